// Package ether maps instants to one-dimensional pixel offsets and back.
//
// Every Ether measures pixels relative to a caller-chosen origin instant,
// so dateToPixel(origin, origin) is always 0. Ethers are immutable values
// and safe for concurrent use.
package ether

import (
	"errors"
	"fmt"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid ether configuration")

// ConfigError reports an invalid construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid ether configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Ether converts between instants and pixel offsets from an origin.
type Ether interface {
	// DateToPixel returns the signed pixel offset of t from origin.
	DateToPixel(t, origin time.Time) float64
	// PixelToDate returns the instant at pixel offset px from origin.
	PixelToDate(px float64, origin time.Time) time.Time
	// PixelWidth returns the signed pixel distance from t0 to t1.
	PixelWidth(t0, t1 time.Time) float64
	IntervalUnit() datetime.Unit
	IntervalPixels() float64
}

// Type names an Ether variant in configuration.
type Type string

const (
	LinearType      Type = "linear"
	LogarithmicType Type = "logarithmic"
	HotZoneType     Type = "hotzone"
)

// Config is the declarative form of an Ether, as read from HCL or JSON.
type Config struct {
	Type   Type          `json:"type"`
	Unit   datetime.Unit `json:"unit"`
	Pixels float64       `json:"pixels"`
	Base   float64       `json:"base,omitempty"`
	Zones  []Zone        `json:"zones,omitempty"`
}

// New builds the Ether described by cfg. An empty type means linear.
func New(cfg Config) (Ether, error) {
	switch cfg.Type {
	case LinearType, "":
		return NewLinear(cfg.Unit, cfg.Pixels)
	case LogarithmicType:
		return NewLogarithmic(cfg.Unit, cfg.Pixels, cfg.Base)
	case HotZoneType:
		return NewHotZone(cfg.Unit, cfg.Pixels, cfg.Zones)
	default:
		return nil, &ConfigError{Field: "type", Reason: fmt.Sprintf("%q is not one of linear, logarithmic, hotzone", cfg.Type)}
	}
}

func validateBase(unit datetime.Unit, pixels float64) error {
	if !unit.Valid() {
		return &ConfigError{Field: "unit", Reason: fmt.Sprintf("%q is not a known interval unit", unit)}
	}
	if !(pixels > 0) {
		return &ConfigError{Field: "pixels", Reason: fmt.Sprintf("must be positive, got %v", pixels)}
	}
	return nil
}

// deltaMillis returns t - origin in milliseconds.
func deltaMillis(t, origin time.Time) float64 {
	return float64(datetime.Millis(t) - datetime.Millis(origin))
}

// offsetMillis returns origin + ms, rounded to the nearest millisecond.
func offsetMillis(origin time.Time, ms float64) time.Time {
	return datetime.FromMillis(datetime.Millis(origin) + roundMillis(ms))
}

func roundMillis(ms float64) int64 {
	if ms < 0 {
		return -int64(-ms + 0.5)
	}
	return int64(ms + 0.5)
}
