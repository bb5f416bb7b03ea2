// Package layout assigns timeline records to non-overlapping tracks and
// computes their pixel footprint under an Ether.
package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/leowmjw/go-timeline-bands/pkg/ether"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

var ErrInvalidOptions = errors.New("invalid layout options")

// Options are the geometry tunables of a layout pass, in pixels.
type Options struct {
	TrackHeight float64 `json:"trackHeight"`
	TrackGap    float64 `json:"trackGap"`
	TrackOffset float64 `json:"trackOffset"`
	// MinWidth is the narrowest a duration record is drawn.
	MinWidth       float64 `json:"minWidth"`
	AvgCharWidth   float64 `json:"avgCharWidth"`
	PointBuffer    float64 `json:"pointBuffer"`
	DurationBuffer float64 `json:"durationBuffer"`
}

func DefaultOptions() Options {
	return Options{
		TrackHeight:    20,
		TrackGap:       5,
		TrackOffset:    10,
		MinWidth:       2,
		AvgCharWidth:   7,
		PointBuffer:    10,
		DurationBuffer: 5,
	}
}

func (o Options) Validate() error {
	if !(o.TrackHeight > 0) {
		return fmt.Errorf("%w: track height must be positive, got %v", ErrInvalidOptions, o.TrackHeight)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"track gap", o.TrackGap},
		{"track offset", o.TrackOffset},
		{"min width", o.MinWidth},
		{"avg char width", o.AvgCharWidth},
		{"point buffer", o.PointBuffer},
		{"duration buffer", o.DurationBuffer},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidOptions, f.name, f.value)
		}
	}
	return nil
}

// Viewport places the origin instant at pixel 0 and spans Width pixels to
// the right of it. A non-positive Width makes every item visible.
type Viewport struct {
	Origin time.Time
	Width  float64
}

// Item is the laid-out footprint of one record.
type Item struct {
	Record timeline.IntervalRecord `json:"record"`
	// Index is the position of the record in the layout input.
	Index  int     `json:"index"`
	Track  int     `json:"track"`
	X      float64 `json:"x"`
	Width  float64 `json:"width"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	// CollisionStart and CollisionEnd bound the padded range that reserves
	// the track, label included.
	CollisionStart float64 `json:"collisionStart"`
	CollisionEnd   float64 `json:"collisionEnd"`
	Visible        bool    `json:"visible"`
}

// SkippedRecord is a raw event left out of a layout pass.
type SkippedRecord struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the outcome of laying out raw events.
type Result struct {
	Items   []Item          `json:"items"`
	Skipped []SkippedRecord `json:"skipped,omitempty"`
}

// Engine performs greedy track assignment. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

func NewEngine(opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}, nil
}

func (e *Engine) Options() Options { return e.opts }

// Layout assigns every record a track. Records are ordered by start, then
// by shorter duration, then by input position; items come back in that
// order. Records with a manual track are placed first so automatic
// placements route around them. A negative manual track is ignored and the
// record is placed automatically.
func (e *Engine) Layout(records []timeline.IntervalRecord, eth ether.Ether, vp Viewport) []Item {
	items := make([]Item, len(records))
	for i, rec := range records {
		items[i] = e.project(i, rec, eth, vp)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Record, items[j].Record
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if da, db := a.DurationMillis(), b.DurationMillis(); da != db {
			return da < db
		}
		return items[i].Index < items[j].Index
	})

	var arena lanes
	for i := range items {
		if track, ok := manualTrack(items[i].Record); ok {
			arena.at(track).insert(items[i].collision())
			items[i].Track = track
		}
	}
	for i := range items {
		if _, ok := manualTrack(items[i].Record); ok {
			continue
		}
		s := items[i].collision()
		track := arena.firstFit(s)
		arena.at(track).insert(s)
		items[i].Track = track
	}

	for i := range items {
		items[i].Y = e.opts.TrackOffset + float64(items[i].Track)*(e.opts.TrackHeight+e.opts.TrackGap)
		items[i].Height = e.opts.TrackHeight
	}
	return items
}

func manualTrack(rec timeline.IntervalRecord) (int, bool) {
	if rec.ManualTrack == nil || *rec.ManualTrack < 0 {
		return 0, false
	}
	return *rec.ManualTrack, true
}

// LayoutEvents parses raw events and lays out the ones that parse. Events
// that fail are logged and reported in Result.Skipped; they never abort
// the pass. Item.Index refers to the position in raws.
func (e *Engine) LayoutEvents(raws []timeline.RawEvent, eth ether.Ether, vp Viewport) Result {
	records, indexes, skipped := ParseEvents(raws, e.logger)
	items := Reindex(e.Layout(records, eth, vp), indexes)
	return Result{Items: items, Skipped: skipped}
}

// ParseEvents parses raw events into records. indexes[i] is the position in
// raws of records[i]. Failures are logged at warn level and returned.
func ParseEvents(raws []timeline.RawEvent, logger *slog.Logger) (records []timeline.IntervalRecord, indexes []int, skipped []SkippedRecord) {
	if logger == nil {
		logger = slog.Default()
	}
	records = make([]timeline.IntervalRecord, 0, len(raws))
	indexes = make([]int, 0, len(raws))

	for i, raw := range raws {
		rec, err := timeline.ParseRecord(raw)
		if err != nil {
			title, _ := raw["title"].(string)
			logger.Warn("Skipping timeline record", "index", i, "title", title, "error", err)
			skipped = append(skipped, SkippedRecord{Index: i, Title: title, Reason: err.Error(), Err: err})
			continue
		}
		records = append(records, rec)
		indexes = append(indexes, i)
	}
	return records, indexes, skipped
}

// Reindex maps Item.Index through indexes in place and returns items.
func Reindex(items []Item, indexes []int) []Item {
	for i := range items {
		if items[i].Index < len(indexes) {
			items[i].Index = indexes[items[i].Index]
		}
	}
	return items
}

// MinimumBandHeight is the height a band needs to show every track in items.
func (e *Engine) MinimumBandHeight(items []Item) float64 {
	return e.opts.TrackOffset + float64(TrackCount(items))*(e.opts.TrackHeight+e.opts.TrackGap)
}

// TrackCount is the number of tracks items use, counting empty tracks below
// the highest one.
func TrackCount(items []Item) int {
	count := 0
	for _, item := range items {
		if item.Track+1 > count {
			count = item.Track + 1
		}
	}
	return count
}

func (e *Engine) project(index int, rec timeline.IntervalRecord, eth ether.Ether, vp Viewport) Item {
	item := Item{Record: rec, Index: index}
	item.X = eth.DateToPixel(rec.Start, vp.Origin)

	if rec.IsDuration() {
		item.Width = math.Abs(eth.DateToPixel(*rec.End, vp.Origin) - item.X)
		if item.Width < e.opts.MinWidth {
			item.Width = e.opts.MinWidth
		}
		item.CollisionStart = item.X - e.opts.DurationBuffer
		item.CollisionEnd = item.X + item.Width + e.opts.DurationBuffer
	} else {
		buffer := e.LabelBuffer(rec.Title)
		item.CollisionStart = item.X - buffer
		item.CollisionEnd = item.X + buffer
	}

	item.Visible = vp.Width <= 0 || (item.CollisionEnd >= 0 && item.CollisionStart <= vp.Width)
	return item
}

// LabelBuffer is the padding kept on each side of a point record so its
// centred label does not run into a neighbour.
func (e *Engine) LabelBuffer(title string) float64 {
	return float64(runewidth.StringWidth(title))*e.opts.AvgCharWidth/2 + e.opts.PointBuffer
}

func (it Item) collision() span {
	return span{start: it.CollisionStart, end: it.CollisionEnd}
}
