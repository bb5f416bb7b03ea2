package band

import (
	"encoding/json"
	"fmt"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

// Origins are encoded with datetime.FormatISO so BCE renderings survive
// JSON, both over HTTP and as workflow payloads.

func (r Rendering) MarshalJSON() ([]byte, error) {
	type alias Rendering
	return json.Marshal(struct {
		alias
		Origin string `json:"origin"`
	}{alias(r), datetime.FormatISO(r.Origin)})
}

func (r *Rendering) UnmarshalJSON(data []byte) error {
	type alias Rendering
	wire := struct {
		*alias
		Origin string `json:"origin"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	origin, err := datetime.Parse(wire.Origin)
	if err != nil {
		return fmt.Errorf("rendering origin: %w", err)
	}
	r.Origin = origin
	return nil
}

func (p Prepared) MarshalJSON() ([]byte, error) {
	type alias Prepared
	return json.Marshal(struct {
		alias
		Origin string `json:"origin"`
	}{alias(p), datetime.FormatISO(p.Origin)})
}

func (p *Prepared) UnmarshalJSON(data []byte) error {
	type alias Prepared
	wire := struct {
		*alias
		Origin string `json:"origin"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	origin, err := datetime.Parse(wire.Origin)
	if err != nil {
		return fmt.Errorf("prepared origin: %w", err)
	}
	p.Origin = origin
	return nil
}
