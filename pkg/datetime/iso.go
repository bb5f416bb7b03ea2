package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// expandedISOPattern matches ISO-8601 timestamps with a signed year of four
// or more digits, such as "-000499-01-01T00:00:00.000Z".
var expandedISOPattern = regexp.MustCompile(`^([+-])(\d{4,9})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?Z$`)

// FormatISO renders t as a UTC ISO-8601 timestamp with milliseconds. Years
// outside 0000..9999 use the expanded signed six-digit form. Parse accepts
// both, so FormatISO is the wire form of an instant.
func FormatISO(t time.Time) string {
	t = t.UTC()
	rest := t.Format("-01-02T15:04:05.000Z")
	year := t.Year()
	switch {
	case year >= 0 && year <= 9999:
		return fmt.Sprintf("%04d%s", year, rest)
	case year < 0:
		return fmt.Sprintf("-%06d%s", -year, rest)
	default:
		return fmt.Sprintf("+%06d%s", year, rest)
	}
}

func parseExpandedISO(s string) (time.Time, bool) {
	m := expandedISOPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil || year > MaxBCEYear {
		return time.Time{}, false
	}
	if m[1] == "-" {
		year = -year
	}

	fields := make([]int, 5)
	for i := range fields {
		fields[i], _ = strconv.Atoi(m[3+i])
	}
	month, day, hour, minute, second := fields[0], fields[1], fields[2], fields[3], fields[4]
	if month < 1 || month > 12 || day < 1 || day > DaysIn(year, time.Month(month)) ||
		hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	ms := 0
	if frac := m[8]; frac != "" {
		ms, _ = strconv.Atoi(frac)
		for i := len(frac); i < 3; i++ {
			ms *= 10
		}
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, ms*int(time.Millisecond), time.UTC), true
}
