package timeline

import (
	"fmt"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Range is a closed interval of instants.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewRange parses both bounds with the date normalizer.
func NewRange(start, end string) (Range, error) {
	s, err := datetime.Parse(start)
	if err != nil {
		return Range{}, fmt.Errorf("range start: %w", err)
	}
	e, err := datetime.Parse(end)
	if err != nil {
		return Range{}, fmt.Errorf("range end: %w", err)
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("range end %s is before start %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether the two ranges share at least one instant.
func (r Range) Overlaps(o Range) bool {
	return !o.End.Before(r.Start) && !o.Start.After(r.End)
}

// Millis is the length of the range in milliseconds.
func (r Range) Millis() int64 {
	return datetime.Millis(r.End) - datetime.Millis(r.Start)
}

// Midpoint returns the instant halfway between Start and End.
func (r Range) Midpoint() time.Time {
	return datetime.FromMillis(datetime.Millis(r.Start) + r.Millis()/2)
}

// Extent returns the smallest range covering every record. ok is false for
// an empty slice.
func Extent(records []IntervalRecord) (r Range, ok bool) {
	for i, rec := range records {
		end := rec.EndOrStart()
		if i == 0 {
			r = Range{Start: rec.Start, End: end}
			continue
		}
		if rec.Start.Before(r.Start) {
			r.Start = rec.Start
		}
		if end.After(r.End) {
			r.End = end
		}
	}
	return r, len(records) > 0
}

// CreateTumblingRanges splits r into consecutive calendar-aligned ranges of
// step units. The first range starts at r.Start floored to the unit and the
// last one is clipped to r.End.
func CreateTumblingRanges(r Range, unit datetime.Unit, step int) ([]Range, error) {
	if step < 1 {
		step = 1
	}
	current, err := datetime.Floor(r.Start, unit, step)
	if err != nil {
		return nil, err
	}

	var ranges []Range
	for !current.After(r.End) {
		next, err := datetime.AddInterval(current, step, unit)
		if err != nil {
			return nil, err
		}
		end := next
		if end.After(r.End) {
			end = r.End
		}
		ranges = append(ranges, Range{Start: current, End: end})
		if !next.After(current) || !end.Before(r.End) {
			break
		}
		current = next
	}
	return ranges, nil
}
