package uf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidQuantity = errors.New("invalid uf quantity")

// ParseQuantity parses a user-entered UF amount. A decimal comma is
// accepted alongside the decimal point, the value must be positive.
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidQuantity
	}

	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	if q <= 0 || math.IsInf(q, 0) || math.IsNaN(q) {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidQuantity)
	}

	return q, nil
}

// Convert turns a UF quantity into whole pesos at the given rate,
// rounding to the nearest peso.
func Convert(quantity, rate float64) int64 {
	return int64(math.Round(quantity * rate))
}

// PriceKind discriminates how a project price was entered.
type PriceKind int

const (
	// PriceManual is a peso amount typed directly.
	PriceManual PriceKind = iota
	// PriceDerived is a UF quantity converted at the daily rate.
	PriceDerived
)

// PriceEntry is a price either typed in pesos or derived from UF.
type PriceEntry struct {
	Kind     PriceKind
	CLP      int64   // set when Kind == PriceManual
	Quantity float64 // set when Kind == PriceDerived
}

// ManualPrice builds an entry for a peso amount typed directly.
func ManualPrice(clp int64) PriceEntry {
	return PriceEntry{Kind: PriceManual, CLP: clp}
}

// DerivedPrice builds an entry for a UF quantity.
func DerivedPrice(quantity float64) PriceEntry {
	return PriceEntry{Kind: PriceDerived, Quantity: quantity}
}

// Resolve returns the peso amount for the entry at the given rate.
func (e PriceEntry) Resolve(rate float64) int64 {
	if e.Kind == PriceDerived {
		return Convert(e.Quantity, rate)
	}
	return e.CLP
}
