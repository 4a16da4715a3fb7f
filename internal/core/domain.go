package core

import (
	"errors"
	"strings"
	"time"
)

// Payment status labels as they live in the funnel. Matching is
// case-insensitive everywhere; anything else is kept as opaque text and
// simply falls outside every KPI bucket.
const (
	PaymentPendingInvoice = "Por facturar"
	PaymentAwaiting       = "esperando pago"
	PaymentPaid           = "pago completo"
)

// InvoiceTerm is the statutory payment term for invoices in Chile.
// An awaiting-payment project whose invoice date is older than this is
// shown as overdue.
const InvoiceTerm = 30 * 24 * time.Hour

type (
	// Date is a calendar day. The zero value means "no date recorded":
	// such records are excluded from every date-bucketed aggregate but
	// still count toward the payment-status KPIs.
	Date struct {
		time.Time
	}

	// Project is one client service engagement. Price is whole Chilean
	// pesos (no minor units); nil means the record never got a price and
	// contributes to no aggregate.
	//
	// Completed carries the invoice date while the project is awaiting
	// payment, and the service completion date otherwise.
	Project struct {
		ID        int64
		Client    string
		Service   string
		Status    string
		Price     *int64
		Contact   string
		Payment   string
		Completed Date
	}
)

var (
	ErrEmptyClient   = errors.New("empty client")
	ErrClientTooLong = errors.New("client too long (max 200 characters)")
	ErrNegativePrice = errors.New("negative price")
	ErrEmptyPayment  = errors.New("empty payment status")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar day ("2006-01-02"). The empty string
// yields the zero Date without error; anything else malformed is an error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether no date was recorded.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// ISO renders the date as "2006-01-02", or "" when empty.
func (d Date) ISO() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}

// PriceOrZero returns the price in pesos, treating a missing price as 0.
// Sorting uses this; aggregates must not (they skip nil outright).
func (p Project) PriceOrZero() int64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// PaymentIs matches the payment status against a label, ignoring case.
func (p Project) PaymentIs(label string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Payment), label)
}

// IsOverdue reports whether an awaiting-payment invoice has passed the
// statutory term. Projects without an invoice date are never overdue.
func (p Project) IsOverdue(now time.Time) bool {
	if !p.PaymentIs(PaymentAwaiting) || p.Completed.IsEmpty() {
		return false
	}
	return now.Sub(p.Completed.Time) > InvoiceTerm
}

// Validate checks a form submission. Status stays an opaque label on
// purpose: legacy rows carry free text and the funnel keeps rendering it.
func (p Project) Validate() error {
	client := strings.TrimSpace(p.Client)
	if client == "" {
		return ErrEmptyClient
	}
	if len(client) > 200 {
		return ErrClientTooLong
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrNegativePrice
	}
	if strings.TrimSpace(p.Payment) == "" {
		return ErrEmptyPayment
	}
	return nil
}
