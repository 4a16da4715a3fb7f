package core

import (
	"sort"
	"time"
)

type (
	// KPITotals partitions revenue by payment status. The three sums are
	// mutually exclusive; records with no price or an unknown status
	// contribute to none of them.
	KPITotals struct {
		PendingInvoice  int64
		AwaitingPayment int64
		Paid            int64
	}

	// YearTotal is revenue attributed to one reporting-window year.
	YearTotal struct {
		Year  int
		Total int64
	}

	// MonthTotal is one bucket of the rolling monthly series.
	MonthTotal struct {
		Year  int
		Month time.Month
		Total int64
	}

	// ServiceRevenue is billed revenue for one normalized service line.
	ServiceRevenue struct {
		Name  string
		Total int64
	}
)

// UnspecifiedService groups billed records whose service name is blank.
const UnspecifiedService = "Sin especificar"

// ComputeKPIs sums prices by payment status over the whole collection.
func ComputeKPIs(projects []Project) KPITotals {
	var k KPITotals
	for _, p := range projects {
		if p.Price == nil {
			continue
		}
		switch {
		case p.PaymentIs(PaymentPendingInvoice):
			k.PendingInvoice += *p.Price
		case p.PaymentIs(PaymentAwaiting):
			k.AwaitingPayment += *p.Price
		case p.PaymentIs(PaymentPaid):
			k.Paid += *p.Price
		}
	}
	return k
}

// ReportingWindow is the fixed three-year span shown in the yearly strip:
// the year before now, now's year, and the year after.
func ReportingWindow(now time.Time) [3]int {
	y := now.Year()
	return [3]int{y - 1, y, y + 1}
}

// YearlyTotals sums prices by completion-date year over the reporting
// window. Records outside the window, without a date, or without a price
// are silently excluded. The result always has the three window years in
// order, zero-filled.
func YearlyTotals(projects []Project, now time.Time) []YearTotal {
	window := ReportingWindow(now)
	byYear := make(map[int]int64, len(window))
	for _, p := range projects {
		if p.Completed.IsEmpty() || p.Price == nil {
			continue
		}
		byYear[p.Completed.Year()] += *p.Price
	}
	out := make([]YearTotal, 0, len(window))
	for _, y := range window {
		out = append(out, YearTotal{Year: y, Total: byYear[y]})
	}
	return out
}

// billed reports whether a record counts as billed revenue: it has a
// price and is past the pending-invoice stage.
func billed(p Project) bool {
	return p.Price != nil && !p.PaymentIs(PaymentPendingInvoice)
}

// MonthlySeries builds the rolling 12-month revenue series. Only billed
// records with a completion date participate. The series holds exactly 12
// consecutive (year, month) buckets ending at the most recent bucket with
// data, oldest first, zero-filled. With no eligible record it returns nil
// and the chart is omitted rather than zero-filled.
func MonthlySeries(projects []Project) []MonthTotal {
	byMonth := make(map[int]int64) // key: year*12 + month-1
	latest := -1
	for _, p := range projects {
		if !billed(p) || p.Completed.IsEmpty() {
			continue
		}
		key := p.Completed.Year()*12 + int(p.Completed.Month()) - 1
		byMonth[key] += *p.Price
		if key > latest {
			latest = key
		}
	}
	if latest < 0 {
		return nil
	}
	series := make([]MonthTotal, 0, 12)
	for key := latest - 11; key <= latest; key++ {
		series = append(series, MonthTotal{
			Year:  key / 12,
			Month: time.Month(key%12 + 1),
			Total: byMonth[key],
		})
	}
	return series
}

// ServiceBreakdown sums billed revenue per normalized service line, most
// billed first. Unlike the monthly series there is no date requirement.
// Lines that sum to zero are dropped; ties order by name so the output is
// deterministic.
func ServiceBreakdown(projects []Project) []ServiceRevenue {
	byService := make(map[string]int64)
	for _, p := range projects {
		if !billed(p) {
			continue
		}
		name := NormalizeService(p.Service)
		if name == "" {
			name = UnspecifiedService
		}
		byService[name] += *p.Price
	}
	out := make([]ServiceRevenue, 0, len(byService))
	for name, total := range byService {
		if total <= 0 {
			continue
		}
		out = append(out, ServiceRevenue{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}
