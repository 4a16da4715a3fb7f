// Package core holds the project domain model and the pure dashboard
// engine: normalization, aggregation, and the table filter/sort pipeline.
//
// This file contains peso parsing and formatting. CLP has no minor units,
// so all amounts are plain int64 pesos.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidPrice = errors.New("invalid price")

// ParsePriceCLP parses a whole-peso amount typed by a user. Grouping
// characters and a currency sign are tolerated ("$1.234.567", "1 234 567"):
// every non-digit rune is dropped, mirroring the numeric price field of
// the project form. An input without any digit is an error.
func ParsePriceCLP(s string) (int64, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidPrice
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	return v, nil
}

// FormatCLP renders pesos as "$1.234.567" (es-CL digit grouping).
func FormatCLP(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// FormatCLPShort compacts an amount for chart axes: "$1.5M", "$750K".
func FormatCLPShort(v int64) string {
	switch {
	case v >= 1_000_000:
		whole := v / 1_000_000
		tenth := (v % 1_000_000) / 100_000
		return "$" + strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(tenth, 10) + "M"
	case v >= 1_000:
		return "$" + strconv.FormatInt(v/1_000, 10) + "K"
	default:
		return "$" + strconv.FormatInt(v, 10)
	}
}
