package timeline

import (
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// IntervalRecord is one logical timeline record. A nil End makes it a point
// record; otherwise it spans [Start, End].
type IntervalRecord struct {
	Start       time.Time              `json:"start"`
	End         *time.Time             `json:"end,omitempty"`
	Title       string                 `json:"title"`
	ManualTrack *int                   `json:"track,omitempty"`
	Attrs       map[string]interface{} `json:"attrs,omitempty"`
}

// IsDuration reports whether the record spans a range rather than a point.
func (r IntervalRecord) IsDuration() bool {
	return r.End != nil
}

// EndOrStart returns End for duration records and Start for point records.
func (r IntervalRecord) EndOrStart() time.Time {
	if r.End != nil {
		return *r.End
	}
	return r.Start
}

// DurationMillis is the span length in milliseconds, 0 for point records.
// Spans can exceed the range of time.Duration, hence milliseconds.
func (r IntervalRecord) DurationMillis() int64 {
	return datetime.Millis(r.EndOrStart()) - datetime.Millis(r.Start)
}

// Span returns the closed range the record covers.
func (r IntervalRecord) Span() Range {
	return Range{Start: r.Start, End: r.EndOrStart()}
}

// RawEvent is an untyped event as it arrives from an event source document.
type RawEvent map[string]interface{}

// IntPtr is a convenience for building records with a manual track.
func IntPtr(v int) *int { return &v }

// TimePtr is a convenience for building duration records.
func TimePtr(t time.Time) *time.Time { return &t }
