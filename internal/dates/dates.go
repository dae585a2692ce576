// Package dates normalizes the free-form release date strings found on catalog
// pages and answers range-membership queries against them. Date strings are
// never reformatted at rest; callers replay the raw string through Normalize.
package dates

import (
	"regexp"
	"strings"
	"time"
)

// Kind classifies a normalization result.
type Kind int

const (
	// Unparseable covers sentinels, vague notations, and anything that failed parsing.
	Unparseable Kind = iota
	// Instant is a date known to day precision.
	Instant
	// MonthSpan is a date known only to month precision, treated as the whole
	// calendar month.
	MonthSpan
)

// Normalized is the outcome of parsing one raw date string.
type Normalized struct {
	Kind Kind
	// Time is set for Instant results.
	Time time.Time
	// MonthStart/MonthEnd bound the calendar month for MonthSpan results (both inclusive).
	MonthStart time.Time
	MonthEnd   time.Time
}

// Sentinel strings and coarse notations rejected before any parse attempt.
// Bare years and quarters are deliberately too vague for range filtering.
var (
	vagueSentinels = map[string]struct{}{
		"unknown":     {},
		"tba":         {},
		"tbd":         {},
		"coming soon": {},
	}
	bareYearRe  = regexp.MustCompile(`^\d{4}$`)
	quarterRe   = regexp.MustCompile(`^Q[1-4]\s+\d{4}`)
	dayAbbrRe   = regexp.MustCompile(`^\d{1,2}\s+[A-Za-z]{3},\s+\d{4}$`)
	abbrDayRe   = regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2},\s+\d{4}$`)
	fullDayRe   = regexp.MustCompile(`^[A-Za-z]+\s+\d{1,2},\s+\d{4}$`)
	monthYearRe = regexp.MustCompile(`^[A-Za-z]+\s+\d{4}$`)
)

// Normalize parses a raw date string. Patterns are tried in a fixed order and
// the first match wins; a parse failure for a matched pattern yields
// Unparseable rather than an error.
func Normalize(raw string) Normalized {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Normalized{Kind: Unparseable}
	}
	if _, vague := vagueSentinels[strings.ToLower(s)]; vague {
		return Normalized{Kind: Unparseable}
	}
	if bareYearRe.MatchString(s) || quarterRe.MatchString(s) {
		return Normalized{Kind: Unparseable}
	}

	switch {
	case dayAbbrRe.MatchString(s):
		return instantFrom(s, "2 Jan, 2006")
	case abbrDayRe.MatchString(s):
		return instantFrom(s, "Jan 2, 2006")
	case fullDayRe.MatchString(s):
		return instantFrom(s, "January 2, 2006")
	case monthYearRe.MatchString(s):
		return monthSpanFrom(s)
	}
	return Normalized{Kind: Unparseable}
}

func instantFrom(s, layout string) Normalized {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Normalized{Kind: Unparseable}
	}
	return Normalized{Kind: Instant, Time: t}
}

func monthSpanFrom(s string) Normalized {
	t, err := time.Parse("January 2006", s)
	if err != nil {
		t, err = time.Parse("Jan 2006", s)
		if err != nil {
			return Normalized{Kind: Unparseable}
		}
	}

	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	// Last day of the month; December rolls over into January of the next year.
	var end time.Time
	if t.Month() == time.December {
		end = time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	} else {
		end = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}
	return Normalized{Kind: MonthSpan, MonthStart: start, MonthEnd: end}
}

// InRange reports whether the raw date string falls within [start, end].
// Unparseable dates never match. An Instant matches by plain comparison. A
// MonthSpan matches when any part of the month overlaps the requested window.
func InRange(raw string, start, end time.Time) bool {
	n := Normalize(raw)
	switch n.Kind {
	case Instant:
		return !n.Time.Before(start) && !n.Time.After(end)
	case MonthSpan:
		return !(n.MonthEnd.Before(start) || n.MonthStart.After(end))
	default:
		return false
	}
}
