package sketch

import (
	"strconv"
	"strings"
	"time"
)

var (
	dateLayouts = []string{
		"2006-01-02",
		"01-02-2006",
		"01-02-06",
		"01/02/2006",
		"01/02/06",
		"1/2/06",
	}

	dateTimeLayouts = []string{
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05Z07:00",
	}
)

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range layouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v, true
		}
	}

	return time.Time{}, false
}

// ParseDate parses a date-only value in a handful of common layouts.
func ParseDate(s string) (time.Time, bool) {
	return parseLayouts(s, dateLayouts)
}

// ParseDateTime parses a date with a time component.
func ParseDateTime(s string) (time.Time, bool) {
	return parseLayouts(s, dateTimeLayouts)
}

func ParseBool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}

	return b, true
}

func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return i, true
}

func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// hasLeadingZeros checks if a valid integer value contains leading zeros.
// This is often an indicator that this is not an integer, but an identifier.
func hasLeadingZeros(s string) bool {
	if s == "" {
		return false
	}

	return s[0] == '0' && s != "0"
}
