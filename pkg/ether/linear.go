package ether

import (
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Linear maps time to pixels at a constant density of pixels per unit.
type Linear struct {
	unit      datetime.Unit
	pixels    float64
	msPerUnit float64
}

// NewLinear returns a linear ether. pixels must be positive.
func NewLinear(unit datetime.Unit, pixels float64) (*Linear, error) {
	if err := validateBase(unit, pixels); err != nil {
		return nil, err
	}
	return &Linear{unit: unit, pixels: pixels, msPerUnit: unit.Milliseconds()}, nil
}

func (e *Linear) DateToPixel(t, origin time.Time) float64 {
	return e.msToPixels(deltaMillis(t, origin))
}

func (e *Linear) PixelToDate(px float64, origin time.Time) time.Time {
	return offsetMillis(origin, e.pixelsToMs(px))
}

func (e *Linear) PixelWidth(t0, t1 time.Time) float64 {
	return e.msToPixels(deltaMillis(t1, t0))
}

func (e *Linear) IntervalUnit() datetime.Unit { return e.unit }

func (e *Linear) IntervalPixels() float64 { return e.pixels }

// PixelsPerMillisecond is the constant density of this ether.
func (e *Linear) PixelsPerMillisecond() float64 {
	return e.pixels / e.msPerUnit
}

func (e *Linear) msToPixels(ms float64) float64 {
	return ms / e.msPerUnit * e.pixels
}

func (e *Linear) pixelsToMs(px float64) float64 {
	return px / e.pixels * e.msPerUnit
}
