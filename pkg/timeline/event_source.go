package timeline

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrInvalidEventSource is returned for documents that are neither an event
// array nor an object with an events array.
var ErrInvalidEventSource = errors.New("invalid event source document")

// EventSource is the JSON document a timeline loads its events from.
type EventSource struct {
	DateTimeFormat string     `json:"dateTimeFormat,omitempty"`
	Events         []RawEvent `json:"events"`
}

// DecodeEventSource accepts either a bare JSON array of events or an
// EventSource object and returns the raw events in document order.
func DecodeEventSource(data []byte) ([]RawEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidEventSource)
	}

	switch trimmed[0] {
	case '[':
		var events []RawEvent
		if err := sonic.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEventSource, err)
		}
		return events, nil
	case '{':
		var src EventSource
		if err := sonic.Unmarshal(trimmed, &src); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEventSource, err)
		}
		if src.Events == nil {
			return nil, fmt.Errorf("%w: missing events array", ErrInvalidEventSource)
		}
		return src.Events, nil
	default:
		return nil, fmt.Errorf("%w: expected array or object", ErrInvalidEventSource)
	}
}

// DecodeEvent decodes a single stored event.
func DecodeEvent(data []byte) (RawEvent, error) {
	var event RawEvent
	if err := sonic.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("failed to decode event: not an object")
	}
	return event, nil
}

// EncodeEvents marshals each event separately, the form events are stored in.
func EncodeEvents(events []RawEvent) ([][]byte, error) {
	encoded := make([][]byte, 0, len(events))
	for i, event := range events {
		data, err := sonic.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %d: %w", i, err)
		}
		encoded = append(encoded, data)
	}
	return encoded, nil
}
