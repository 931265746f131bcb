package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// directDateLayouts are tried in order before falling back to the
// day-first pattern match.
var directDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// dayFirstDatePattern matches DD/MM/YY[YY] and DD-MM-YY[YY]; the year
// component is optional.
var dayFirstDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)

// assumeCurrentYear is the year policy for dates whose source text carries no
// year at all: the statement is assumed to be from the current calendar year.
// Kept as a named function so statement-period-aware inference can replace it
// without touching the parsers.
func assumeCurrentYear(now time.Time) int {
	return now.Year()
}

// NormalizeDate coerces a raw statement date value into a time.Time.
// It tries direct layouts first, then the day-first pattern (two-digit years
// are expanded by prefixing "20", missing years get the current one), and
// defaults to now when nothing matches.
func NormalizeDate(value string, now time.Time) time.Time {
	for _, layout := range directDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := parseDayFirstDate(value, now); err == nil {
		return t
	}
	return now
}

func parseDayFirstDate(value string, now time.Time) (time.Time, error) {
	m := dayFirstDatePattern.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, fmt.Errorf("parseDayFirstDate: %q does not match", value)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	year := assumeCurrentYear(now)
	if m[3] != "" {
		y := m[3]
		if len(y) == 2 {
			y = "20" + y
		}
		parsed, err := strconv.Atoi(y)
		if err != nil {
			return time.Time{}, fmt.Errorf("parseDayFirstDate: bad year %q", m[3])
		}
		year = parsed
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("parseDayFirstDate: out of range day/month in %q", value)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
