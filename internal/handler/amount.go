package handler

import (
	"github.com/shopspring/decimal"
)

// parseAmount converts a decimal currency string ("250.00") into int64 minor
// units. The ledger core only ever sees integers; rounding drift stops here.
func parseAmount(s string) (int64, *FieldError) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &FieldError{Field: "amount", Message: "must be a decimal number"}
	}
	if d.Exponent() < -2 {
		return 0, &FieldError{Field: "amount", Message: "at most two decimal places"}
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, &FieldError{Field: "amount", Message: "at most two decimal places"}
	}
	if !minor.BigInt().IsInt64() {
		return 0, &FieldError{Field: "amount", Message: "out of range"}
	}
	return minor.IntPart(), nil
}

// formatAmount renders int64 minor units back into a decimal string.
func formatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
