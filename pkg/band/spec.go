// Package band composes ethers, layout and scale ticks into the bands of a
// timeline. Bands share one origin instant and viewport width but each has
// its own ether and layout geometry.
package band

import (
	"errors"
	"fmt"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
	"github.com/leowmjw/go-timeline-bands/pkg/ether"
	"github.com/leowmjw/go-timeline-bands/pkg/layout"
)

var ErrInvalidSpec = errors.New("invalid timeline specification")

// Spec is the declarative description of a timeline, as decoded from HCL
// or JSON. Dates are kept as strings and parsed during validation.
type Spec struct {
	ID string `json:"id,omitempty"`
	// Origin is the instant at the left edge. Empty centres the data.
	Origin string     `json:"origin,omitempty"`
	Width  float64    `json:"width"`
	Bands  []BandSpec `json:"bands"`
}

// BandSpec describes a single band.
type BandSpec struct {
	Name   string      `json:"name"`
	Ether  EtherSpec   `json:"ether"`
	Layout *LayoutSpec `json:"layout,omitempty"`
	Ticks  bool        `json:"ticks,omitempty"`
	// MinLabelSpacing overrides the scale default when positive.
	MinLabelSpacing float64 `json:"minLabelSpacing,omitempty"`
	// Density adds per-tick event counts to the result.
	Density bool `json:"density,omitempty"`
}

// EtherSpec is the string-dated form of ether.Config.
type EtherSpec struct {
	Type   string     `json:"type,omitempty"`
	Unit   string     `json:"unit"`
	Pixels float64    `json:"pixels"`
	Base   float64    `json:"base,omitempty"`
	Zones  []ZoneSpec `json:"zones,omitempty"`
}

type ZoneSpec struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Magnify float64 `json:"magnify"`
}

// LayoutSpec overrides individual layout defaults. Nil fields keep the
// default value.
type LayoutSpec struct {
	TrackHeight    *float64 `json:"trackHeight,omitempty"`
	TrackGap       *float64 `json:"trackGap,omitempty"`
	TrackOffset    *float64 `json:"trackOffset,omitempty"`
	MinWidth       *float64 `json:"minWidth,omitempty"`
	AvgCharWidth   *float64 `json:"avgCharWidth,omitempty"`
	PointBuffer    *float64 `json:"pointBuffer,omitempty"`
	DurationBuffer *float64 `json:"durationBuffer,omitempty"`
}

// Options merges the overrides onto layout.DefaultOptions.
func (l *LayoutSpec) Options() layout.Options {
	opts := layout.DefaultOptions()
	if l == nil {
		return opts
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&opts.TrackHeight, l.TrackHeight)
	set(&opts.TrackGap, l.TrackGap)
	set(&opts.TrackOffset, l.TrackOffset)
	set(&opts.MinWidth, l.MinWidth)
	set(&opts.AvgCharWidth, l.AvgCharWidth)
	set(&opts.PointBuffer, l.PointBuffer)
	set(&opts.DurationBuffer, l.DurationBuffer)
	return opts
}

// BuildEther parses the string dates and constructs the ether.
func (s EtherSpec) BuildEther() (ether.Ether, error) {
	unit, err := datetime.ParseUnit(s.Unit)
	if err != nil {
		return nil, err
	}

	cfg := ether.Config{
		Type:   ether.Type(s.Type),
		Unit:   unit,
		Pixels: s.Pixels,
		Base:   s.Base,
	}
	for i, z := range s.Zones {
		start, err := datetime.Parse(z.Start)
		if err != nil {
			return nil, fmt.Errorf("zone %d start: %w", i, err)
		}
		end, err := datetime.Parse(z.End)
		if err != nil {
			return nil, fmt.Errorf("zone %d end: %w", i, err)
		}
		cfg.Zones = append(cfg.Zones, ether.Zone{Start: start, End: end, Magnify: z.Magnify})
	}
	return ether.New(cfg)
}

// ParseOrigin returns the explicit origin and true, or false when the
// origin is left for FitOrigin.
func (s Spec) ParseOrigin() (time.Time, bool, error) {
	if s.Origin == "" {
		return time.Time{}, false, nil
	}
	t, err := datetime.Parse(s.Origin)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("origin: %w", err)
	}
	return t, true, nil
}

// Validate checks everything that can be checked without events: the
// origin, each band's ether and layout geometry, and unique band names.
func (s Spec) Validate() error {
	if !(s.Width > 0) {
		return fmt.Errorf("%w: width must be positive, got %v", ErrInvalidSpec, s.Width)
	}
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: at least one band is required", ErrInvalidSpec)
	}
	if _, _, err := s.ParseOrigin(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	seen := make(map[string]bool, len(s.Bands))
	for i, b := range s.Bands {
		if b.Name == "" {
			return fmt.Errorf("%w: band %d has no name", ErrInvalidSpec, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate band %q", ErrInvalidSpec, b.Name)
		}
		seen[b.Name] = true

		if _, err := b.Ether.BuildEther(); err != nil {
			return fmt.Errorf("%w: band %q: %w", ErrInvalidSpec, b.Name, err)
		}
		if err := b.Layout.Options().Validate(); err != nil {
			return fmt.Errorf("%w: band %q: %w", ErrInvalidSpec, b.Name, err)
		}
	}
	return nil
}
