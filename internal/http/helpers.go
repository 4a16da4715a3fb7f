package http

import (
	"errors"
	"fmt"
	"math"

	"reyes/internal/core"
)

// formatUFRate renders the daily UF value with its two decimals, the
// way the indicator is conventionally quoted ("$38.647,23").
func formatUFRate(rate float64) string {
	cents := int64(math.Round(rate * 100))
	return fmt.Sprintf("%s,%02d", core.FormatCLP(cents/100), cents%100)
}

// userFacingError maps domain validation failures to a message shown
// in the form, or "" for errors that should stay internal.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyClient):
		return "El cliente es obligatorio"
	case errors.Is(err, core.ErrClientTooLong):
		return "El nombre del cliente es demasiado largo (máximo 200 caracteres)"
	case errors.Is(err, core.ErrNegativePrice):
		return "El precio no puede ser negativo"
	case errors.Is(err, core.ErrEmptyPayment):
		return "El estado de pago es obligatorio"
	default:
		return ""
	}
}
