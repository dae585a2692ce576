package dates

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeRejectsVagueDates(t *testing.T) {
	for _, raw := range []string{"", "Unknown", "TBA", "TBD", "Coming Soon", "2025", "Q1 2025", "Q4 2026", "soon-ish"} {
		if got := Normalize(raw); got.Kind != Unparseable {
			t.Errorf("Normalize(%q) kind = %v, want Unparseable", raw, got.Kind)
		}
	}
}

func TestNormalizeSpecificDatePatterns(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"16 Oct, 2025", day(2025, time.October, 16)},
		{"1 Jan, 2024", day(2024, time.January, 1)},
		{"Oct 16, 2025", day(2025, time.October, 16)},
		{"October 16, 2025", day(2025, time.October, 16)},
		{"February 3, 2026", day(2026, time.February, 3)},
	}
	for _, tc := range cases {
		got := Normalize(tc.raw)
		if got.Kind != Instant {
			t.Fatalf("Normalize(%q) kind = %v, want Instant", tc.raw, got.Kind)
		}
		if !got.Time.Equal(tc.want) {
			t.Errorf("Normalize(%q) = %v, want %v", tc.raw, got.Time, tc.want)
		}
	}
}

func TestNormalizeMonthOnly(t *testing.T) {
	got := Normalize("October 2025")
	if got.Kind != MonthSpan {
		t.Fatalf("kind = %v, want MonthSpan", got.Kind)
	}
	if !got.MonthStart.Equal(day(2025, time.October, 1)) || !got.MonthEnd.Equal(day(2025, time.October, 31)) {
		t.Errorf("span = [%v, %v]", got.MonthStart, got.MonthEnd)
	}

	// Abbreviated month name takes the fallback layout.
	if got := Normalize("Oct 2025"); got.Kind != MonthSpan {
		t.Errorf("Normalize(Oct 2025) kind = %v, want MonthSpan", got.Kind)
	}
}

func TestNormalizeDecemberRollover(t *testing.T) {
	got := Normalize("December 2025")
	if got.Kind != MonthSpan {
		t.Fatalf("kind = %v, want MonthSpan", got.Kind)
	}
	if !got.MonthEnd.Equal(day(2025, time.December, 31)) {
		t.Errorf("MonthEnd = %v, want 2025-12-31", got.MonthEnd)
	}
}

func TestInRangeInstant(t *testing.T) {
	start, end := day(2025, time.October, 1), day(2025, time.October, 31)
	if !InRange("16 Oct, 2025", start, end) {
		t.Error("specific date inside window should match")
	}
	if InRange("16 Oct, 2025", day(2025, time.November, 1), day(2025, time.November, 30)) {
		t.Error("specific date outside window should not match")
	}
	// Boundaries are inclusive.
	if !InRange("1 Oct, 2025", start, end) || !InRange("31 Oct, 2025", start, end) {
		t.Error("window boundaries should be inclusive")
	}
}

func TestInRangeMonthOverlap(t *testing.T) {
	raw := "October 2025"
	if !InRange(raw, day(2025, time.October, 15), day(2025, time.October, 20)) {
		t.Error("window fully inside the month should match")
	}
	if InRange(raw, day(2025, time.November, 1), day(2025, time.November, 30)) {
		t.Error("window in the following month should not match")
	}
	if !InRange(raw, day(2025, time.September, 25), day(2025, time.October, 2)) {
		t.Error("partial overlap at the start of the month should match")
	}
}

func TestInRangeUnparseable(t *testing.T) {
	for _, raw := range []string{"Unknown", "TBA", "2025", "Q1 2025"} {
		if InRange(raw, day(2000, time.January, 1), day(2100, time.January, 1)) {
			t.Errorf("InRange(%q) should be false for unparseable dates", raw)
		}
	}
}
