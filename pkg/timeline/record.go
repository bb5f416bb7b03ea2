package timeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
)

// RecordError reports the field that made a raw event unusable.
type RecordError struct {
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// MaxManualTrack bounds the track a record may force itself onto.
const MaxManualTrack = 1000

// Field names recognised in raw events, in lookup order.
var (
	startFields    = []string{"start", "startDate", "start_date"}
	endFields      = []string{"end", "endDate", "end_date"}
	titleFields    = []string{"title"}
	durationFields = []string{"isDuration", "durationEvent", "is_duration"}
	trackFields    = []string{"track"}
)

// ParseRecord turns a raw event into an IntervalRecord. start and title are
// required. A present end makes a duration record unless isDuration is
// explicitly false, in which case end is ignored. isDuration true without an
// end is rejected. Unrecognised fields are kept in Attrs.
func ParseRecord(raw RawEvent) (IntervalRecord, error) {
	var rec IntervalRecord
	consumed := make(map[string]bool)

	startKey, startVal, ok := lookup(raw, startFields)
	if !ok {
		return rec, &RecordError{Field: "start", Err: ErrMissingField}
	}
	consumed[startKey] = true
	start, err := parseDateValue(startVal)
	if err != nil {
		return rec, &RecordError{Field: startKey, Err: err}
	}
	rec.Start = start

	titleKey, titleVal, ok := lookup(raw, titleFields)
	if !ok {
		return rec, &RecordError{Field: "title", Err: ErrMissingField}
	}
	consumed[titleKey] = true
	title, ok := titleVal.(string)
	if !ok {
		return rec, &RecordError{Field: titleKey, Err: fmt.Errorf("%w: expected string, got %T", ErrInvalidField, titleVal)}
	}
	rec.Title = title

	durationExplicit, isDuration := false, false
	if key, val, ok := lookup(raw, durationFields); ok {
		consumed[key] = true
		b, ok := val.(bool)
		if !ok {
			return rec, &RecordError{Field: key, Err: fmt.Errorf("%w: expected bool, got %T", ErrInvalidField, val)}
		}
		durationExplicit, isDuration = true, b
	}

	if key, val, ok := lookup(raw, endFields); ok {
		consumed[key] = true
		if !durationExplicit || isDuration {
			end, err := parseDateValue(val)
			if err != nil {
				return rec, &RecordError{Field: key, Err: err}
			}
			if end.Before(rec.Start) {
				return rec, &RecordError{Field: key, Err: fmt.Errorf("%w: end is before start", ErrInvalidField)}
			}
			rec.End = &end
		}
	} else if isDuration {
		return rec, &RecordError{Field: "end", Err: fmt.Errorf("%w: duration record needs an end", ErrMissingField)}
	}

	if key, val, ok := lookup(raw, trackFields); ok {
		consumed[key] = true
		track, err := parseTrack(val)
		if err != nil {
			return rec, &RecordError{Field: key, Err: err}
		}
		rec.ManualTrack = &track
	}

	for k, v := range raw {
		if consumed[k] {
			continue
		}
		if rec.Attrs == nil {
			rec.Attrs = make(map[string]interface{})
		}
		rec.Attrs[k] = v
	}

	return rec, nil
}

// lookup returns the first present, non-null field among names.
func lookup(raw RawEvent, names []string) (string, interface{}, bool) {
	for _, name := range names {
		if value, exists := raw[name]; exists && value != nil {
			return name, value, true
		}
	}
	return "", nil, false
}

func parseDateValue(v interface{}) (time.Time, error) {
	switch value := v.(type) {
	case string:
		return datetime.Parse(value)
	case float64:
		if value != math.Trunc(value) || math.IsInf(value, 0) {
			return time.Time{}, fmt.Errorf("%w: date number %v is not an integer", ErrInvalidField, value)
		}
		return datetime.Parse(strconv.FormatFloat(value, 'f', -1, 64))
	case int:
		return datetime.Parse(strconv.Itoa(value))
	case int64:
		return datetime.Parse(strconv.FormatInt(value, 10))
	default:
		return time.Time{}, fmt.Errorf("%w: expected date string, got %T", ErrInvalidField, v)
	}
}

func parseTrack(v interface{}) (int, error) {
	var track int
	switch value := v.(type) {
	case float64:
		if value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: track %v is not an integer", ErrInvalidField, value)
		}
		track = int(value)
	case int:
		track = value
	case int64:
		track = int(value)
	case string:
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%w: track %q is not an integer", ErrInvalidField, value)
		}
		track = n
	default:
		return 0, fmt.Errorf("%w: expected integer track, got %T", ErrInvalidField, v)
	}
	if track < 0 || track > MaxManualTrack {
		return 0, fmt.Errorf("%w: track %d is outside 0..%d", ErrInvalidField, track, MaxManualTrack)
	}
	return track, nil
}
