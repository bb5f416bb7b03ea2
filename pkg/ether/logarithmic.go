package ether

import (
	"fmt"
	"math"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Logarithmic compresses distance from the origin logarithmically:
//
//	pixel = sign(Δ) * log_base(|Δ| + 1) * pixels
//
// where Δ is the distance from the origin measured in interval units.
type Logarithmic struct {
	unit      datetime.Unit
	pixels    float64
	base      float64
	logBase   float64
	msPerUnit float64
}

// NewLogarithmic returns a logarithmic ether. base must be greater than 1.
func NewLogarithmic(unit datetime.Unit, pixels, base float64) (*Logarithmic, error) {
	if err := validateBase(unit, pixels); err != nil {
		return nil, err
	}
	if !(base > 1) || math.IsInf(base, 1) {
		return nil, &ConfigError{Field: "base", Reason: fmt.Sprintf("must be greater than 1, got %v", base)}
	}
	return &Logarithmic{
		unit:      unit,
		pixels:    pixels,
		base:      base,
		logBase:   math.Log(base),
		msPerUnit: unit.Milliseconds(),
	}, nil
}

func (e *Logarithmic) DateToPixel(t, origin time.Time) float64 {
	return e.compress(deltaMillis(t, origin) / e.msPerUnit)
}

func (e *Logarithmic) PixelToDate(px float64, origin time.Time) time.Time {
	return offsetMillis(origin, e.expand(px)*e.msPerUnit)
}

// PixelWidth measures the distance of t1 from t0 with t0 as the origin.
func (e *Logarithmic) PixelWidth(t0, t1 time.Time) float64 {
	return e.DateToPixel(t1, t0)
}

func (e *Logarithmic) IntervalUnit() datetime.Unit { return e.unit }

func (e *Logarithmic) IntervalPixels() float64 { return e.pixels }

// Base returns the logarithm base.
func (e *Logarithmic) Base() float64 { return e.base }

func (e *Logarithmic) compress(units float64) float64 {
	if units == 0 {
		return 0
	}
	return math.Copysign(math.Log1p(math.Abs(units))/e.logBase*e.pixels, units)
}

func (e *Logarithmic) expand(px float64) float64 {
	if px == 0 {
		return 0
	}
	return math.Copysign(math.Expm1(math.Abs(px)/e.pixels*e.logBase), px)
}
