package core

import (
	"errors"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2024-03-07", "2024-03-07", true},
		{" 2024-03-07 ", "2024-03-07", true},
		{"2024-03-07T10:30:00Z", "2024-03-07", true},
		{"2024-03-07T23:59:59.123Z", "2024-03-07", true},
		// Positive offsets roll back to the previous UTC day.
		{"2024-03-08T01:00:00+05:30", "2024-03-07", true},
		{"2024-03-07T18:00:00", "2024-03-07", true},
		{"", "", false},
		{"   ", "", false},
		{"not-a-date", "", false},
		{"2024-13-40", "", false},
		{"07/03/2024", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeDate(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestNormalizeDateMessages(t *testing.T) {
	_, err := NormalizeDate("")
	if err == nil || err.Error() != "Date is required" {
		t.Fatalf("blank date: got %v", err)
	}
	_, err = NormalizeDate("garbage")
	if err == nil || err.Error() != "Date must be a valid ISO date or YYYY-MM-DD" {
		t.Fatalf("unparseable date: got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestNormalizeCategory(t *testing.T) {
	got, err := NormalizeCategory("  Food & Drink  ")
	if err != nil || got != "Food & Drink" {
		t.Fatalf("expected trimmed category, got %q (err=%v)", got, err)
	}

	_, err = NormalizeCategory("   ")
	if err == nil || err.Error() != "Category is required" {
		t.Fatalf("blank category: got %v", err)
	}
}

func TestNormalizeDescription(t *testing.T) {
	if got := NormalizeDescription("  chai  "); got != "chai" {
		t.Fatalf("expected trimmed description, got %q", got)
	}
	if got := NormalizeDescription("   "); got != "" {
		t.Fatalf("blank description should normalize to empty, got %q", got)
	}
}

func TestCategoryEquals(t *testing.T) {
	if !CategoryEquals("Food", "food") || !CategoryEquals("FOOD", "Food") {
		t.Fatal("category comparison should be case-insensitive")
	}
	if CategoryEquals("Food", "Travel") {
		t.Fatal("distinct categories should not match")
	}
}
