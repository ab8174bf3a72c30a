// Package core provides amount parsing and record validation for expenses.
//
// Amounts are handled as integer paise (1/100 rupee) to avoid floating-point
// rounding in currency math.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSafePaise is the largest accepted paise value. It matches the safe
// integer ceiling of the submission clients (2^53 - 1).
const MaxSafePaise = int64(1)<<53 - 1

// ParseAmountToPaise converts a user-entered decimal rupee string to exact
// integer paise. The input must be one or more digits, optionally followed by
// a decimal point and one or two digits. No sign, no exponent, no thousands
// separators.
//
// Examples:
//
//	ParseAmountToPaise("12.3")  -> 1230, nil
//	ParseAmountToPaise("0.07")  -> 7, nil
//	ParseAmountToPaise("100")   -> 10000, nil
func ParseAmountToPaise(amount string) (int64, error) {
	raw := strings.TrimSpace(amount)
	if raw == "" {
		return 0, validationError("Amount is required")
	}

	whole, frac, ok := splitAmount(raw)
	if !ok {
		return 0, validationError("Amount must be a positive number with up to 2 decimals")
	}

	// Right-pad the fractional part to exactly two digits.
	for len(frac) < 2 {
		frac += "0"
	}

	wholePart, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// All-digit input, so the only possible failure is range.
		return 0, validationError("Amount is too large")
	}
	fracPart, _ := strconv.ParseInt(frac, 10, 64)

	if wholePart > (MaxSafePaise-fracPart)/100 {
		return 0, validationError("Amount is too large")
	}
	return wholePart*100 + fracPart, nil
}

// splitAmount validates the shape ^\d+(\.\d{1,2})?$ and returns the whole and
// fractional digit strings.
func splitAmount(raw string) (whole, frac string, ok bool) {
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if whole == "" || !isDigits(whole) {
		return "", "", false
	}
	if hasFrac {
		if len(frac) < 1 || len(frac) > 2 || !isDigits(frac) {
			return "", "", false
		}
	} else {
		frac = ""
	}
	return whole, frac, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatRupees renders paise as a rupee string (e.g. "₹12.34") for display.
func FormatRupees(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	s := strconv.FormatInt(paise/100, 10) + "." + fmt.Sprintf("%02d", paise%100)
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}
