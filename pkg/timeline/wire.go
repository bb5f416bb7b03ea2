package timeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Instants are encoded with datetime.FormatISO; time.Time's own encoding
// rejects years before 0000.

func (r IntervalRecord) MarshalJSON() ([]byte, error) {
	type alias IntervalRecord
	wire := struct {
		alias
		Start string  `json:"start"`
		End   *string `json:"end,omitempty"`
	}{alias: alias(r), Start: datetime.FormatISO(r.Start)}
	if r.End != nil {
		end := datetime.FormatISO(*r.End)
		wire.End = &end
	}
	return json.Marshal(wire)
}

func (r *IntervalRecord) UnmarshalJSON(data []byte) error {
	type alias IntervalRecord
	wire := struct {
		*alias
		Start string  `json:"start"`
		End   *string `json:"end,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	start, err := parseWireTime("start", wire.Start)
	if err != nil {
		return err
	}
	r.Start = start
	r.End = nil
	if wire.End != nil {
		end, err := parseWireTime("end", *wire.End)
		if err != nil {
			return err
		}
		r.End = &end
	}
	return nil
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{datetime.FormatISO(r.Start), datetime.FormatISO(r.End)})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var wire struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	start, err := parseWireTime("start", wire.Start)
	if err != nil {
		return err
	}
	end, err := parseWireTime("end", wire.End)
	if err != nil {
		return err
	}
	*r = Range{Start: start, End: end}
	return nil
}

func parseWireTime(field, s string) (time.Time, error) {
	t, err := datetime.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}
