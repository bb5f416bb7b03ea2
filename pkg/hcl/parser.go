package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

// HCLTimeline represents the HCL timeline structure
type HCLTimeline struct {
	TimelineID string         `hcl:"timeline_id,optional"`
	Origin     string         `hcl:"origin,optional"`
	Width      float64        `hcl:"width"`
	Bands      []HCLBand      `hcl:"band,block"`
	Events     *hcl.Attribute `hcl:"events,optional"`
}

// HCLBand represents a single band block
type HCLBand struct {
	Name            string       `hcl:"name,label"`
	Ether           string       `hcl:"ether,optional"` // linear, logarithmic or hotzone
	Unit            string       `hcl:"unit"`
	Pixels          float64      `hcl:"pixels"`
	Base            float64      `hcl:"base,optional"`
	HotZones        []HCLHotZone `hcl:"hot_zone,block"`
	Layout          *HCLLayout   `hcl:"layout,block"`
	Ticks           bool         `hcl:"ticks,optional"`
	Density         bool         `hcl:"density,optional"`
	MinLabelSpacing float64      `hcl:"min_label_spacing,optional"`
}

// HCLHotZone represents a magnified date range of a hotzone band
type HCLHotZone struct {
	Start   string  `hcl:"start"`
	End     string  `hcl:"end"`
	Magnify float64 `hcl:"magnify"`
}

// HCLLayout overrides the layout defaults of a band
type HCLLayout struct {
	TrackHeight    *float64 `hcl:"track_height,optional"`
	TrackGap       *float64 `hcl:"track_gap,optional"`
	TrackOffset    *float64 `hcl:"track_offset,optional"`
	MinWidth       *float64 `hcl:"min_width,optional"`
	AvgCharWidth   *float64 `hcl:"avg_char_width,optional"`
	PointBuffer    *float64 `hcl:"point_buffer,optional"`
	DurationBuffer *float64 `hcl:"duration_buffer,optional"`
}

// Document is a decoded HCL timeline: the band specification plus any
// events declared inline.
type Document struct {
	Spec   band.Spec
	Events []timeline.RawEvent
}

// dateFunc validates its argument with the date normalizer and returns it
// unchanged, so a bad date fails at decode time with a source position.
var dateFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name: "date",
			Type: cty.String,
		},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if _, err := datetime.Parse(args[0].AsString()); err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return args[0], nil
	},
})

// bceFunc turns a year number into the "N BCE" form.
var bceFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name: "year",
			Type: cty.Number,
		},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		year, accuracy := args[0].AsBigFloat().Int64()
		if accuracy != 0 || year < 1 || year > datetime.MaxBCEYear {
			return cty.NilVal, function.NewArgErrorf(0, "year must be a whole number between 1 and %d", datetime.MaxBCEYear)
		}
		return cty.StringVal(fmt.Sprintf("%d BCE", year)), nil
	},
})

func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"date": dateFunc,
			"bce":  bceFunc,
		},
	}
}

// ParseHCLTimeline parses HCL content and converts it to a Document
func ParseHCLTimeline(hclContent string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(hclContent), "timeline.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return parseHCLTimelineFromFile(file)
}

func parseHCLTimelineFromFile(file *hcl.File) (*Document, error) {
	evalCtx := newEvalContext()

	var hclTimeline HCLTimeline
	diags := gohcl.DecodeBody(file.Body, evalCtx, &hclTimeline)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}
	return convertHCLTimeline(&hclTimeline, evalCtx)
}

// convertHCLTimeline converts the decoded HCL structures to a band.Spec
func convertHCLTimeline(hclTimeline *HCLTimeline, evalCtx *hcl.EvalContext) (*Document, error) {
	doc := &Document{
		Spec: band.Spec{
			ID:     hclTimeline.TimelineID,
			Origin: hclTimeline.Origin,
			Width:  hclTimeline.Width,
			Bands:  make([]band.BandSpec, 0, len(hclTimeline.Bands)),
		},
	}

	for _, hclBand := range hclTimeline.Bands {
		b := band.BandSpec{
			Name: hclBand.Name,
			Ether: band.EtherSpec{
				Type:   hclBand.Ether,
				Unit:   hclBand.Unit,
				Pixels: hclBand.Pixels,
				Base:   hclBand.Base,
			},
			Ticks:           hclBand.Ticks,
			Density:         hclBand.Density,
			MinLabelSpacing: hclBand.MinLabelSpacing,
		}
		for _, zone := range hclBand.HotZones {
			b.Ether.Zones = append(b.Ether.Zones, band.ZoneSpec{
				Start:   zone.Start,
				End:     zone.End,
				Magnify: zone.Magnify,
			})
		}
		if l := hclBand.Layout; l != nil {
			b.Layout = &band.LayoutSpec{
				TrackHeight:    l.TrackHeight,
				TrackGap:       l.TrackGap,
				TrackOffset:    l.TrackOffset,
				MinWidth:       l.MinWidth,
				AvgCharWidth:   l.AvgCharWidth,
				PointBuffer:    l.PointBuffer,
				DurationBuffer: l.DurationBuffer,
			}
		}
		doc.Spec.Bands = append(doc.Spec.Bands, b)
	}

	// Inline events are a list of objects with the same fields as JSON events
	if hclTimeline.Events != nil {
		eventsVal, diags := hclTimeline.Events.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate events: %s", diags.Error())
		}
		events, err := hclValueToEvents(eventsVal)
		if err != nil {
			return nil, err
		}
		doc.Events = events
	}

	return doc, nil
}

func hclValueToEvents(val cty.Value) ([]timeline.RawEvent, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsListType() && !val.Type().IsTupleType() {
		return nil, fmt.Errorf("events must be a list of objects, got %s", val.Type().FriendlyName())
	}

	events := make([]timeline.RawEvent, 0, val.LengthInt())
	for i, v := range val.AsValueSlice() {
		m := hclValueToMap(v)
		if m == nil {
			return nil, fmt.Errorf("event %d must be an object, got %s", i, v.Type().FriendlyName())
		}
		events = append(events, timeline.RawEvent(m))
	}
	return events, nil
}

// hclValueToMap converts a cty.Value (HCL's type system) to a Go map[string]interface{}
func hclValueToMap(val cty.Value) map[string]interface{} {
	if val.IsNull() {
		return nil
	}

	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil
	}

	result := make(map[string]interface{})
	for key, attr := range val.AsValueMap() {
		result[key] = hclValueToInterface(attr)
	}
	return result
}

// hclValueToInterface converts a cty.Value to a Go interface{}
func hclValueToInterface(val cty.Value) interface{} {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}

	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Number:
		// float64, as encoding/json would produce
		f, _ := val.AsBigFloat().Float64()
		return f
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type().IsObjectType() || val.Type().IsMapType():
		return hclValueToMap(val)
	case val.Type().IsListType() || val.Type().IsTupleType() || val.Type().IsSetType():
		values := val.AsValueSlice()
		result := make([]interface{}, len(values))
		for i, v := range values {
			result[i] = hclValueToInterface(v)
		}
		return result
	default:
		return val.GoString()
	}
}

// IsHCL attempts to detect if the given content is in HCL format
func IsHCL(content []byte) bool {
	_, diags := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return !diags.HasErrors()
}
