package core

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type (
	// SortKey selects the table column to order by.
	SortKey string

	// Direction is the sort direction.
	Direction string

	// Period restricts the table to completion dates inside a calendar
	// window relative to "now".
	Period string

	// Query describes one rendering of the project table: free-text
	// search over the client name, optional exact payment-status filter,
	// optional period filter, and the sort order. The zero value is not
	// useful; start from DefaultQuery.
	Query struct {
		Search  string
		Payment string
		Period  Period
		Sort    SortKey
		Dir     Direction
	}
)

const (
	SortClient SortKey = "cliente"
	SortPrice  SortKey = "precio"
	SortDate   SortKey = "fecha"

	Asc  Direction = "asc"
	Desc Direction = "desc"

	PeriodAll         Period = "all"
	PeriodThisMonth   Period = "this-month"
	PeriodLastMonth   Period = "last-month"
	PeriodThisQuarter Period = "this-quarter"
	PeriodThisYear    Period = "this-year"
	PeriodLastYear    Period = "last-year"
)

// DefaultQuery matches the dashboard's initial view: everything, newest
// completion date first.
func DefaultQuery() Query {
	return Query{Period: PeriodAll, Sort: SortDate, Dir: Desc}
}

// DefaultDirection is the direction a column starts with when it becomes
// the active sort key.
func DefaultDirection(key SortKey) Direction {
	if key == SortClient {
		return Asc
	}
	return Desc
}

// Toggle returns the query after a click on a column header: clicking the
// active key flips the direction, a new key takes over with its default
// direction.
func (q Query) Toggle(key SortKey) Query {
	if q.Sort == key {
		if q.Dir == Asc {
			q.Dir = Desc
		} else {
			q.Dir = Asc
		}
		return q
	}
	q.Sort = key
	q.Dir = DefaultDirection(key)
	return q
}

// ApplyQuery runs the table pipeline: search, payment filter, period
// filter, then a stable sort. The input slice is never mutated. now only
// anchors the period windows; it is not consulted anywhere else.
func ApplyQuery(projects []Project, q Query, now time.Time) []Project {
	out := make([]Project, 0, len(projects))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	payment := strings.TrimSpace(q.Payment)
	for _, p := range projects {
		if search != "" && !strings.Contains(strings.ToLower(p.Client), search) {
			continue
		}
		if payment != "" && !p.PaymentIs(payment) {
			continue
		}
		if !matchPeriod(p.Completed, q.Period, now) {
			continue
		}
		out = append(out, p)
	}
	sortProjects(out, q.Sort, q.Dir)
	return out
}

// matchPeriod evaluates a period window against a completion date. Any
// real period excludes records without a date; malformed stored dates were
// already normalized to "missing" at the storage boundary, so no
// invalid-date arithmetic happens here.
func matchPeriod(d Date, period Period, now time.Time) bool {
	if period == "" || period == PeriodAll {
		return true
	}
	if d.IsEmpty() {
		return false
	}
	year, month := d.Year(), int(d.Month())
	nowYear, nowMonth := now.Year(), int(now.Month())
	switch period {
	case PeriodThisMonth:
		return year == nowYear && month == nowMonth
	case PeriodLastMonth:
		lastMonth, lastYear := nowMonth-1, nowYear
		if lastMonth < 1 {
			lastMonth, lastYear = 12, nowYear-1
		}
		return year == lastYear && month == lastMonth
	case PeriodThisQuarter:
		return year == nowYear && (month-1)/3 == (nowMonth-1)/3
	case PeriodThisYear:
		return year == nowYear
	case PeriodLastYear:
		return year == nowYear-1
	default:
		// Unknown period values pass everything through, like "all".
		return true
	}
}

func sortProjects(projects []Project, key SortKey, dir Direction) {
	sign := 1
	if dir == Desc {
		sign = -1
	}
	var less func(a, b Project) int
	switch key {
	case SortPrice:
		less = func(a, b Project) int {
			return compareInt64(a.PriceOrZero(), b.PriceOrZero())
		}
	case SortClient:
		// Locale-aware ordering; a collator is not safe for concurrent
		// use, so build one per sort.
		c := collate.New(language.Spanish)
		less = func(a, b Project) int {
			return c.CompareString(a.Client, b.Client)
		}
	default:
		// SortDate: a missing date sorts as earliest instant.
		less = func(a, b Project) int {
			return compareTime(a.Completed.Time, b.Completed.Time)
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return sign*less(projects[i], projects[j]) < 0
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
