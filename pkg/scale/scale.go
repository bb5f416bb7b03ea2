// Package scale picks axis label granularity for a pixel density and emits
// calendar-aligned ticks in the same pixel space as the layout.
package scale

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
	"github.com/leowmjw/go-timeline-bands/pkg/ether"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

const (
	DefaultMinLabelSpacing = 80.0
	// LabelPadding is added to a label's estimated width when choosing a scale.
	LabelPadding = 10.0
	// Overscan is how far outside the viewport ticks are still emitted.
	Overscan = 100.0
	// MaxTicks caps a single generation pass.
	MaxTicks = 200
)

// Config is one granularity of the scale table.
type Config struct {
	Unit     datetime.Unit `json:"unit"`
	Interval int           `json:"interval"`
	Format   string        `json:"format"`
	TickMs   float64       `json:"tickMs"`
}

// Tick is one axis label position.
type Tick struct {
	Time    time.Time `json:"time"`
	Label   string    `json:"label"`
	PixelX  float64   `json:"pixelX"`
	IsMajor bool      `json:"isMajor"`
}

func entry(unit datetime.Unit, interval int, format string) Config {
	return Config{Unit: unit, Interval: interval, Format: format, TickMs: float64(interval) * unit.Milliseconds()}
}

// table runs from finest to coarsest.
var table = []Config{
	entry(datetime.Minute, 1, "HH:mm"),
	entry(datetime.Minute, 5, "HH:mm"),
	entry(datetime.Minute, 15, "HH:mm"),
	entry(datetime.Minute, 30, "HH:mm"),
	entry(datetime.Hour, 1, "HH:mm"),
	entry(datetime.Hour, 3, "HH:mm"),
	entry(datetime.Hour, 6, "HH:mm"),
	entry(datetime.Hour, 12, "HH:mm"),
	entry(datetime.Day, 1, "MMM d"),
	entry(datetime.Day, 2, "MMM d"),
	entry(datetime.Week, 1, "MMM d"),
	entry(datetime.Month, 1, "MMM yyyy"),
	entry(datetime.Month, 3, "MMM yyyy"),
	entry(datetime.Month, 6, "MMM yyyy"),
	entry(datetime.Year, 1, "yyyy"),
	entry(datetime.Year, 2, "yyyy"),
	entry(datetime.Year, 5, "yyyy"),
	entry(datetime.Decade, 1, "yyyy"),
	entry(datetime.Decade, 2, "yyyy"),
	entry(datetime.Decade, 5, "yyyy"),
	entry(datetime.Century, 1, "yyyy"),
	entry(datetime.Century, 2, "yyyy"),
	entry(datetime.Century, 5, "yyyy"),
}

// Table returns a copy of the scale table, finest first.
func Table() []Config {
	out := make([]Config, len(table))
	copy(out, table)
	return out
}

var labelWidths = map[string]float64{
	"HH:mm":    40,
	"MMM d":    50,
	"MMM yyyy": 70,
	"yyyy":     40,
}

// LabelWidth estimates the rendered width in pixels of labels drawn with
// format. Unknown formats are estimated from their display width.
func LabelWidth(format string) float64 {
	if w, ok := labelWidths[format]; ok {
		return w
	}
	return float64(runewidth.StringWidth(format)) * 7
}

// ConfigFor returns the finest table entry whose tick spacing at
// pixelsPerMs leaves room for its labels, falling back to the coarsest.
// A non-positive minLabelSpacing uses DefaultMinLabelSpacing.
func ConfigFor(pixelsPerMs, minLabelSpacing float64) Config {
	if !(minLabelSpacing > 0) {
		minLabelSpacing = DefaultMinLabelSpacing
	}
	if pixelsPerMs > 0 && !math.IsInf(pixelsPerMs, 1) {
		for _, cfg := range table {
			required := math.Max(minLabelSpacing, LabelWidth(cfg.Format)+LabelPadding)
			if cfg.TickMs*pixelsPerMs >= required {
				return cfg
			}
		}
	}
	return table[len(table)-1]
}

// GenerateTicks emits ticks aligned to cfg between the tick at or before
// visible.Start and visible.End, positioned linearly at pixelsPerMs from
// origin. Only ticks within the viewport plus Overscan are returned.
func GenerateTicks(visible timeline.Range, cfg Config, pixelsPerMs float64, origin time.Time, viewportWidth float64) ([]Tick, error) {
	base := datetime.Millis(origin)
	project := func(t time.Time) float64 {
		return float64(datetime.Millis(t)-base) * pixelsPerMs
	}
	return generate(visible, cfg, project, viewportWidth)
}

// TicksForEther chooses a scale from the ether's base density and places
// ticks with the ether itself. Ticks closer than a label width to the
// previous one are dropped, which only happens where a non-linear ether
// compresses time.
func TicksForEther(eth ether.Ether, visible timeline.Range, origin time.Time, viewportWidth, minLabelSpacing float64) ([]Tick, Config, error) {
	cfg := ConfigFor(PixelsPerMillisecond(eth), minLabelSpacing)
	project := func(t time.Time) float64 {
		return eth.DateToPixel(t, origin)
	}

	ticks, err := generate(visible, cfg, project, viewportWidth)
	if err != nil {
		return nil, cfg, err
	}

	minGap := LabelWidth(cfg.Format)
	thinned := ticks[:0]
	for _, tick := range ticks {
		if n := len(thinned); n > 0 && tick.PixelX-thinned[n-1].PixelX < minGap {
			continue
		}
		thinned = append(thinned, tick)
	}
	return thinned, cfg, nil
}

// PixelsPerMillisecond is the unmagnified density of an ether.
func PixelsPerMillisecond(eth ether.Ether) float64 {
	return eth.IntervalPixels() / eth.IntervalUnit().Milliseconds()
}

// VisibleRange returns the instants at the left and right edge of a
// viewport of width pixels starting at origin.
func VisibleRange(eth ether.Ether, origin time.Time, width float64) timeline.Range {
	return timeline.Range{Start: eth.PixelToDate(0, origin), End: eth.PixelToDate(width, origin)}
}

func generate(visible timeline.Range, cfg Config, project func(time.Time) float64, viewportWidth float64) ([]Tick, error) {
	if cfg.Interval < 1 {
		return nil, fmt.Errorf("scale interval must be positive, got %d", cfg.Interval)
	}
	if err := datetime.ValidatePattern(cfg.Format); err != nil {
		return nil, err
	}

	current, err := datetime.Floor(visible.Start, cfg.Unit, cfg.Interval)
	if err != nil {
		return nil, err
	}

	var ticks []Tick
	for n := 0; n < MaxTicks && !current.After(visible.End); n++ {
		px := project(current)
		if px >= -Overscan && px <= viewportWidth+Overscan {
			label, err := datetime.Format(current, cfg.Format)
			if err != nil {
				return nil, err
			}
			ticks = append(ticks, Tick{Time: current, Label: label, PixelX: px, IsMajor: IsMajor(current, cfg.Unit)})
		}
		if current, err = datetime.AddInterval(current, cfg.Interval, cfg.Unit); err != nil {
			return nil, err
		}
	}
	return ticks, nil
}

// IsMajor reports whether t sits on the boundary of the next coarser unit:
// the hour for minute ticks, the day for hours, the month for days and
// weeks, the year for months, and so on up to the millennium.
func IsMajor(t time.Time, unit datetime.Unit) bool {
	switch unit {
	case datetime.Millisecond:
		return t.Nanosecond() == 0
	case datetime.Second:
		return t.Second() == 0
	case datetime.Minute:
		return t.Minute() == 0
	case datetime.Hour:
		return t.Hour() == 0
	case datetime.Day:
		return t.Day() == 1
	case datetime.Week:
		return t.Day() <= 7
	case datetime.Month:
		return t.Month() == time.January
	case datetime.Year:
		return floorMod(t.Year(), 10) == 0
	case datetime.Decade:
		return floorMod(t.Year(), 100) == 0
	case datetime.Century, datetime.Millennium:
		return floorMod(t.Year(), 1000) == 0
	}
	return false
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func (t Tick) MarshalJSON() ([]byte, error) {
	type alias Tick
	return json.Marshal(struct {
		alias
		Time string `json:"time"`
	}{alias(t), datetime.FormatISO(t.Time)})
}

func (t *Tick) UnmarshalJSON(data []byte) error {
	type alias Tick
	wire := struct {
		*alias
		Time string `json:"time"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	tm, err := datetime.Parse(wire.Time)
	if err != nil {
		return fmt.Errorf("tick time: %w", err)
	}
	t.Time = tm
	return nil
}
