package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar-day format for stored expense dates.
const DateLayout = "2006-01-02"

// dateLayouts lists the accepted input formats, tried in order. Anything with
// a time-of-day component is reduced to its UTC calendar day.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// NormalizeDate parses an ISO date or YYYY-MM-DD string and returns the UTC
// calendar-day prefix, discarding time-of-day.
func NormalizeDate(date string) (string, error) {
	raw := strings.TrimSpace(date)
	if raw == "" {
		return "", validationError("Date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(DateLayout), nil
		}
	}
	return "", validationError("Date must be a valid ISO date or YYYY-MM-DD")
}

// NormalizeCategory trims the category, preserving its case for display.
// Category comparison for filtering is case-insensitive (see CategoryEquals).
func NormalizeCategory(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return "", validationError("Category is required")
	}
	return trimmed, nil
}

// NormalizeDescription trims the description. Blank input becomes the empty
// string; descriptions are never rejected.
func NormalizeDescription(description string) string {
	return strings.TrimSpace(description)
}

// CategoryEquals reports whether two categories match for filtering purposes.
func CategoryEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
