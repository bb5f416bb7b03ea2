package datetime

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a calendar interval unit used by ethers, ticks and interval arithmetic.
type Unit string

const (
	Millisecond Unit = "millisecond"
	Second      Unit = "second"
	Minute      Unit = "minute"
	Hour        Unit = "hour"
	Day         Unit = "day"
	Week        Unit = "week"
	Month       Unit = "month"
	Year        Unit = "year"
	Decade      Unit = "decade"
	Century     Unit = "century"
	Millennium  Unit = "millennium"
)

// Average lengths for month-and-larger units. Month and year pixel widths
// derived from these are approximations of the real calendar lengths.
const (
	msPerDay   = float64(24 * time.Hour / time.Millisecond)
	msPerYear  = 365.25 * msPerDay
	msPerMonth = 30.436875 * msPerDay
)

var msPerUnit = map[Unit]float64{
	Millisecond: 1,
	Second:      float64(time.Second / time.Millisecond),
	Minute:      float64(time.Minute / time.Millisecond),
	Hour:        float64(time.Hour / time.Millisecond),
	Day:         msPerDay,
	Week:        7 * msPerDay,
	Month:       msPerMonth,
	Year:        msPerYear,
	Decade:      10 * msPerYear,
	Century:     100 * msPerYear,
	Millennium:  1000 * msPerYear,
}

// monthsPerUnit is the number of calendar months in each month-scale unit.
var monthsPerUnit = map[Unit]int{
	Month:      1,
	Year:       12,
	Decade:     120,
	Century:    1200,
	Millennium: 12000,
}

// Units lists every unit from finest to coarsest.
var Units = []Unit{Millisecond, Second, Minute, Hour, Day, Week, Month, Year, Decade, Century, Millennium}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	_, ok := msPerUnit[u]
	return ok
}

// Milliseconds returns the (possibly approximate) length of one unit in ms.
func (u Unit) Milliseconds() float64 {
	return msPerUnit[u]
}

// IsCalendar reports whether u is month-scale and needs calendar arithmetic.
func (u Unit) IsCalendar() bool {
	_, ok := monthsPerUnit[u]
	return ok
}

// ParseUnit resolves a unit name, accepting plurals and any letter case.
func ParseUnit(s string) (Unit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "centuries":
		name = "century"
	case "millennia", "millenniums":
		name = "millennium"
	default:
		name = strings.TrimSuffix(name, "s")
	}
	u := Unit(name)
	if !u.Valid() {
		return "", fmt.Errorf("unknown interval unit %q", s)
	}
	return u, nil
}
