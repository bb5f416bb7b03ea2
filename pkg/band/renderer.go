package band

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leowmjw/go-timeline-bands/pkg/ether"
	"github.com/leowmjw/go-timeline-bands/pkg/layout"
	"github.com/leowmjw/go-timeline-bands/pkg/scale"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

// maxDensityBuckets bounds the histogram of a single band.
const maxDensityBuckets = 1000

// Result is the rendering of one band.
type Result struct {
	Name       string        `json:"name"`
	Items      []layout.Item `json:"items"`
	Ticks      []scale.Tick  `json:"ticks,omitempty"`
	Scale      *scale.Config `json:"scale,omitempty"`
	Density    []Bucket      `json:"density,omitempty"`
	TrackCount int           `json:"trackCount"`
	Height     float64       `json:"height"`
}

// Bucket counts the records touching one tick interval.
type Bucket struct {
	Range timeline.Range `json:"range"`
	Count int            `json:"count"`
}

// Rendering is a fully laid-out timeline.
type Rendering struct {
	ID      string                 `json:"id,omitempty"`
	Origin  time.Time              `json:"origin"`
	Width   float64                `json:"width"`
	Bands   []Result               `json:"bands"`
	Skipped []layout.SkippedRecord `json:"skipped,omitempty"`
}

// Prepared holds the parsed records shared by every band of a rendering.
// Indexes[i] is the position of Records[i] in the raw event list.
type Prepared struct {
	Records []timeline.IntervalRecord `json:"records"`
	Indexes []int                     `json:"indexes"`
	Skipped []layout.SkippedRecord    `json:"skipped,omitempty"`
	Origin  time.Time                 `json:"origin"`
}

type Renderer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger, now: time.Now}
}

// Prepare validates spec, parses the events once and resolves the origin.
// Without an explicit origin the data is centred in the first band; with
// no data either, the current day is centred.
func (r *Renderer) Prepare(spec Spec, raws []timeline.RawEvent) (*Prepared, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	records, indexes, skipped := layout.ParseEvents(raws, r.logger)
	p := &Prepared{Records: records, Indexes: indexes, Skipped: skipped}

	origin, explicit, err := spec.ParseOrigin()
	if err != nil {
		return nil, err
	}
	if !explicit {
		eth, err := spec.Bands[0].Ether.BuildEther()
		if err != nil {
			return nil, err
		}
		origin = r.fitOrigin(records, spec.Width, eth)
	}
	p.Origin = origin
	return p, nil
}

// Render lays out every band in order.
func (r *Renderer) Render(spec Spec, raws []timeline.RawEvent) (*Rendering, error) {
	p, err := r.Prepare(spec, raws)
	if err != nil {
		return nil, err
	}

	out := r.rendering(spec, p)
	for i, b := range spec.Bands {
		res, err := r.RenderBand(b, p, spec.Width)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", b.Name, err)
		}
		out.Bands[i] = res
	}
	return out, nil
}

// RenderConcurrently lays out each band in its own goroutine. Bands share
// only read-only inputs. Results keep band order; the first band error is
// returned.
func (r *Renderer) RenderConcurrently(ctx context.Context, spec Spec, raws []timeline.RawEvent) (*Rendering, error) {
	p, err := r.Prepare(spec, raws)
	if err != nil {
		return nil, err
	}

	out := r.rendering(spec, p)
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range spec.Bands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.RenderBand(b, p, spec.Width)
			if err != nil {
				return fmt.Errorf("band %q: %w", b.Name, err)
			}
			out.Bands[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderBand lays out the prepared records in one band.
func (r *Renderer) RenderBand(b BandSpec, p *Prepared, width float64) (Result, error) {
	eth, err := b.Ether.BuildEther()
	if err != nil {
		return Result{}, err
	}
	logger := r.logger.With("band", b.Name)
	engine, err := layout.NewEngine(b.Layout.Options(), logger)
	if err != nil {
		return Result{}, err
	}

	vp := layout.Viewport{Origin: p.Origin, Width: width}
	items := layout.Reindex(engine.Layout(p.Records, eth, vp), p.Indexes)
	res := Result{
		Name:       b.Name,
		Items:      items,
		TrackCount: layout.TrackCount(items),
		Height:     engine.MinimumBandHeight(items),
	}

	if !b.Ticks && !b.Density {
		return res, nil
	}

	visible := scale.VisibleRange(eth, p.Origin, width)
	ticks, cfg, err := scale.TicksForEther(eth, visible, p.Origin, width, b.MinLabelSpacing)
	if err != nil {
		return Result{}, err
	}
	if b.Ticks {
		res.Ticks = ticks
		res.Scale = &cfg
	}
	if b.Density {
		if buckets := float64(visible.Millis()) / cfg.TickMs; buckets > maxDensityBuckets {
			logger.Warn("Skipping density histogram", "buckets", int64(buckets), "max", maxDensityBuckets)
			return res, nil
		}
		res.Density, err = Density(p.Records, visible, cfg)
		if err != nil {
			return Result{}, err
		}
	}

	logger.Debug("Rendered band", "items", len(items), "tracks", res.TrackCount, "ticks", len(res.Ticks))
	return res, nil
}

func (r *Renderer) rendering(spec Spec, p *Prepared) *Rendering {
	return &Rendering{
		ID:      spec.ID,
		Origin:  p.Origin,
		Width:   spec.Width,
		Bands:   make([]Result, len(spec.Bands)),
		Skipped: p.Skipped,
	}
}

func (r *Renderer) fitOrigin(records []timeline.IntervalRecord, width float64, eth ether.Ether) time.Time {
	if origin, ok := FitOrigin(records, width, eth); ok {
		return origin
	}
	today := r.now().UTC().Truncate(24 * time.Hour)
	return eth.PixelToDate(-width/2, today)
}

// FitOrigin returns the origin that puts the midpoint of the records'
// extent in the middle of a viewport width pixels wide.
func FitOrigin(records []timeline.IntervalRecord, width float64, eth ether.Ether) (time.Time, bool) {
	extent, ok := timeline.Extent(records)
	if !ok {
		return time.Time{}, false
	}
	return eth.PixelToDate(-width/2, extent.Midpoint()), true
}

// Density counts the records touching each tick interval of visible.
// Buckets are half-open except the last, so a point on a shared boundary
// counts once.
func Density(records []timeline.IntervalRecord, visible timeline.Range, cfg scale.Config) ([]Bucket, error) {
	ranges, err := timeline.CreateTumblingRanges(visible, cfg.Unit, cfg.Interval)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, len(ranges))
	for i, rg := range ranges {
		buckets[i].Range = rg
		last := i == len(ranges)-1
		for _, rec := range records {
			span := rec.Span()
			if (last && rg.Overlaps(span)) || (!last && span.Start.Before(rg.End) && !span.End.Before(rg.Start)) {
				buckets[i].Count++
			}
		}
	}
	return buckets, nil
}
