package store

import (
	"context"
	"sync"

	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

// MemoryStore keeps events in a map. It is used by tests and by the
// server when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][][]byte // timelineID -> events
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][][]byte),
	}
}

// AppendEvents copies each event so callers may reuse their buffers.
func (m *MemoryStore) AppendEvents(ctx context.Context, timelineID string, events [][]byte) error {
	if timelineID == "" {
		return ErrEmptyTimelineID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.events[timelineID] = append(m.events[timelineID], append([]byte(nil), e...))
	}
	return nil
}

func (m *MemoryStore) LoadEvents(ctx context.Context, timelineID string, r *timeline.Range) ([][]byte, error) {
	m.mu.RLock()
	events := append([][]byte(nil), m.events[timelineID]...)
	m.mu.RUnlock()

	if r == nil {
		if events == nil {
			return [][]byte{}, nil
		}
		return events, nil
	}
	return FilterEvents(events, *r), nil
}

func (m *MemoryStore) CountEvents(ctx context.Context, timelineID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[timelineID]), nil
}
