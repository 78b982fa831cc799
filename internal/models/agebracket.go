package models

import (
	"strings"
	"time"
)

const yearLength = time.Duration(365.25 * 24 * float64(time.Hour))

var ageBrackets = []struct {
	max   int
	label string
}{
	{3, "0-3"},
	{6, "4-6"},
	{9, "7-9"},
	{12, "10-12"},
	{15, "13-15"},
	{18, "16-18"},
	{35, "19-35"},
	{59, "36-59"},
}

// AgeBracket derives the bracket label for a date of birth at the given instant.
// It returns "" for an empty or unparseable date. Callers store the result at
// write time; it is never recomputed on read.
func AgeBracket(dateOfBirth string, now time.Time) string {
	dob, ok := parseDate(dateOfBirth)
	if !ok {
		return ""
	}
	age := int(now.Sub(dob) / yearLength)
	for _, b := range ageBrackets {
		if age <= b.max {
			return b.label
		}
	}
	return "60+"
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
