// Package datetime normalizes heterogeneous date strings into UTC instants
// and formats them back using a small symbolic pattern language.
//
// Instants are time.Time values in UTC with millisecond precision. Years use
// astronomical numbering: year 0 is 1 BCE and year -499 is 500 BCE.
package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MaxBCEYear bounds BCE and year-only input so instants stay within the
// int64 millisecond range.
const MaxBCEYear = 100_000_000

// YearOnlyMaxDigits is the longest bare numeral read as a year. Longer
// numerals are Unix-epoch millisecond timestamps.
const YearOnlyMaxDigits = 4

var (
	bcePrefixPattern = regexp.MustCompile(`^-(\d+)$`)
	bceSuffixPattern = regexp.MustCompile(`(?i)^(\d+)\s*B\.?\s?C\.?(?:E\.?)?$`)
	digitsPattern    = regexp.MustCompile(`^\d+$`)
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
}

var gregorianLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"January 2006",
	"Jan 2006",
	"Mon, January 2, 2006",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
}

// Parse converts s into an instant. Grammars are tried in priority order:
// BCE markers, ISO-8601 (including FormatISO's expanded years), free-form
// Gregorian, bare integer. The first successful parse wins; otherwise a
// *ParseError is returned.
func Parse(s string) (time.Time, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return time.Time{}, &ParseError{Input: s}
	}

	if t, ok := parseBCE(in); ok {
		return t, nil
	}
	if bcePrefixPattern.MatchString(in) || bceSuffixPattern.MatchString(in) {
		// A BCE marker with an out-of-range year is never a valid date in
		// another grammar.
		return time.Time{}, &ParseError{Input: s}
	}

	if t, ok := parseExpandedISO(in); ok {
		return t, nil
	}
	if t, ok := parseLayouts(in, isoLayouts); ok {
		return t, nil
	}

	if !digitsPattern.MatchString(in) {
		if t, ok := parseLayouts(in, gregorianLayouts); ok {
			return t, nil
		}
		if !strings.ContainsAny(in, "0123456789") {
			return time.Time{}, &ParseError{Input: s}
		}
		if t, err := dateparse.ParseIn(in, time.UTC); err == nil {
			return normalize(t), nil
		}
		return time.Time{}, &ParseError{Input: s}
	}

	if t, ok := parseInteger(in); ok {
		return t, nil
	}
	return time.Time{}, &ParseError{Input: s}
}

// MustParse is like Parse but panics on error. It is meant for constants
// and tests.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseBCE(s string) (time.Time, bool) {
	m := bcePrefixPattern.FindStringSubmatch(s)
	if m == nil {
		m = bceSuffixPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxBCEYear {
		return time.Time{}, false
	}
	return YearStart(1 - n), true
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalize(t), true
		}
	}
	return time.Time{}, false
}

func parseInteger(s string) (time.Time, bool) {
	if len(s) <= YearOnlyMaxDigits {
		year, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		return YearStart(year), true
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return FromMillis(ms), true
}

func normalize(t time.Time) time.Time {
	return FromMillis(t.UnixMilli())
}

// YearStart returns Jan 1, 00:00:00 UTC of the astronomical year.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Millis returns t as signed milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis returns the UTC instant ms milliseconds after the Unix epoch.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
