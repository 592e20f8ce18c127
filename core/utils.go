package core

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for due dates and payment dates.
const DateLayout = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FormatDate formats t as a calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Max64 returns the larger of a and b.
func Max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Min64 returns the smaller of a and b.
func Min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
