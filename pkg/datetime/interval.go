package datetime

import (
	"fmt"
	"time"
)

// AddInterval adds amount units to t. Month-scale units use calendar
// arithmetic and clamp the day of month on overflow (Jan 31 + 1 month is the
// last day of February). Smaller units are exact millisecond arithmetic.
// A zero amount returns t unchanged.
func AddInterval(t time.Time, amount int, unit Unit) (time.Time, error) {
	if !unit.Valid() {
		return time.Time{}, fmt.Errorf("unknown interval unit %q", unit)
	}
	t = t.UTC()
	if amount == 0 {
		return t, nil
	}

	months, ok := monthsPerUnit[unit]
	if !ok {
		return FromMillis(Millis(t) + int64(amount)*int64(unit.Milliseconds())), nil
	}

	year, month, day := t.Date()
	total := year*12 + int(month-1) + amount*months
	newYear, newMonth := floorDiv(total, 12), time.Month(floorMod(total, 12)+1)
	if last := DaysIn(newYear, newMonth); day > last {
		day = last
	}
	return time.Date(newYear, newMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
}

// DaysIn returns the number of days in the given month of an astronomical year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Floor aligns t down to the start of its unit. With step > 1 the result is
// also a multiple of step units counted from the Unix epoch (sub-month
// units), from Monday 1969-12-29 (weeks) or from year 0 (month and larger).
func Floor(t time.Time, unit Unit, step int) (time.Time, error) {
	if !unit.Valid() {
		return time.Time{}, fmt.Errorf("unknown interval unit %q", unit)
	}
	if step < 1 {
		step = 1
	}
	t = t.UTC()

	switch unit {
	case Millisecond, Second, Minute, Hour, Day:
		size := int64(unit.Milliseconds()) * int64(step)
		return FromMillis(floorDiv64(Millis(t), size) * size), nil
	case Week:
		// The Unix epoch is a Thursday; shift so buckets start on Mondays.
		const mondayOffset = 3 * int64(msPerDay)
		size := int64(Week.Milliseconds()) * int64(step)
		return FromMillis(floorDiv64(Millis(t)+mondayOffset, size)*size - mondayOffset), nil
	case Month:
		index := t.Year()*12 + int(t.Month()-1)
		index = floorDiv(index, step) * step
		return time.Date(floorDiv(index, 12), time.Month(floorMod(index, 12)+1), 1, 0, 0, 0, 0, time.UTC), nil
	}

	years := (monthsPerUnit[unit] / 12) * step
	return YearStart(floorDiv(t.Year(), years) * years), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
