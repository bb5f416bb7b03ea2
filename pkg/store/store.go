// Package store persists the raw JSON events of each timeline.
package store

import (
	"context"
	"errors"

	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

var ErrEmptyTimelineID = errors.New("timeline id must not be empty")

// Store appends and loads raw events. Events are opaque JSON objects in the
// event-source shape; they are only parsed to filter by range.
type Store interface {
	AppendEvents(ctx context.Context, timelineID string, events [][]byte) error
	// LoadEvents returns the events of a timeline in append order. A non-nil
	// r keeps only events whose span overlaps it.
	LoadEvents(ctx context.Context, timelineID string, r *timeline.Range) ([][]byte, error)
	CountEvents(ctx context.Context, timelineID string) (int, error)
}

// EventSpan parses a stored event and returns its span. ok is false for
// events that cannot be decoded into a record.
func EventSpan(data []byte) (span timeline.Range, ok bool) {
	raw, err := timeline.DecodeEvent(data)
	if err != nil {
		return timeline.Range{}, false
	}
	rec, err := timeline.ParseRecord(raw)
	if err != nil {
		return timeline.Range{}, false
	}
	return rec.Span(), true
}

// FilterEvents keeps the events whose span overlaps r. Undecodable events
// are dropped.
func FilterEvents(events [][]byte, r timeline.Range) [][]byte {
	var filtered [][]byte
	for _, data := range events {
		if span, ok := EventSpan(data); ok && r.Overlaps(span) {
			filtered = append(filtered, data)
		}
	}
	return filtered
}
