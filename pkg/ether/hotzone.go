package ether

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Zone is a time range drawn with Magnify times the base pixel density.
type Zone struct {
	Start   time.Time
	End     time.Time
	Magnify float64
}

// HotZone is a linear ether with magnified zones. A zone that ends after
// the origin stretches its own linear width by Magnify and shifts every
// later instant by the whole expansion, wherever the origin sits in it. A
// zone that ends at or before the origin leaves the mapping untouched. With
// the origin inside a zone, the origin itself is therefore not at pixel 0.
type HotZone struct {
	linear *Linear
	zones  []Zone
}

// NewHotZone returns a hot-zone ether. Zones may be given in any order but
// must not overlap; each needs Start before End and a positive Magnify.
func NewHotZone(unit datetime.Unit, pixels float64, zones []Zone) (*HotZone, error) {
	linear, err := NewLinear(unit, pixels)
	if err != nil {
		return nil, err
	}

	sorted := make([]Zone, len(zones))
	copy(sorted, zones)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i, z := range sorted {
		if !z.Start.Before(z.End) {
			return nil, &ConfigError{Field: fmt.Sprintf("zones[%d]", i), Reason: "start must be before end"}
		}
		if !(z.Magnify > 0) || math.IsInf(z.Magnify, 1) {
			return nil, &ConfigError{Field: fmt.Sprintf("zones[%d].magnify", i), Reason: fmt.Sprintf("must be positive, got %v", z.Magnify)}
		}
		if i > 0 && z.Start.Before(sorted[i-1].End) {
			return nil, &ConfigError{Field: fmt.Sprintf("zones[%d]", i), Reason: "overlaps the previous zone"}
		}
		sorted[i].Start = z.Start.UTC()
		sorted[i].End = z.End.UTC()
	}

	return &HotZone{linear: linear, zones: sorted}, nil
}

func (e *HotZone) DateToPixel(t, origin time.Time) float64 {
	d := deltaMillis(t, origin)
	px := e.linear.msToPixels(d)
	for _, z := range e.zones {
		a, b := deltaMillis(z.Start, origin), deltaMillis(z.End, origin)
		if b <= 0 {
			continue
		}
		if d <= a {
			break
		}
		covered := math.Min(d, b) - a
		px += (z.Magnify - 1) * e.linear.msToPixels(covered)
	}
	return px
}

// PixelToDate inverts DateToPixel exactly by walking the piecewise-linear
// segments between the boundaries of the zones that end after origin.
func (e *HotZone) PixelToDate(px float64, origin time.Time) time.Time {
	k := e.linear.PixelsPerMillisecond()

	var shift float64
	for _, z := range e.zones {
		a, b := deltaMillis(z.Start, origin), deltaMillis(z.End, origin)
		if b <= 0 {
			continue
		}
		atStart := k*a + shift
		if px < atStart {
			return offsetMillis(origin, (px-shift)/k)
		}
		atEnd := atStart + z.Magnify*k*(b-a)
		if px <= atEnd {
			return offsetMillis(origin, a+(px-atStart)/(k*z.Magnify))
		}
		shift += (z.Magnify - 1) * k * (b - a)
	}
	return offsetMillis(origin, (px-shift)/k)
}

// PixelWidth is measured from t0, so a zone holding t0 does not offset it.
func (e *HotZone) PixelWidth(t0, t1 time.Time) float64 {
	return e.DateToPixel(t1, t0) - e.DateToPixel(t0, t0)
}

func (e *HotZone) IntervalUnit() datetime.Unit { return e.linear.unit }

func (e *HotZone) IntervalPixels() float64 { return e.linear.pixels }

// Zones returns the zones sorted by start time.
func (e *HotZone) Zones() []Zone {
	out := make([]Zone, len(e.zones))
	copy(out, e.zones)
	return out
}

// Base returns the unmagnified linear ether.
func (e *HotZone) Base() *Linear { return e.linear }
