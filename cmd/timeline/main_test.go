package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "--", "44 BCE", "-753", "2006-06-28T12:30:00+08:00")
	require.NoError(t, err)

	assert.Contains(t, out, "-000043-01-01T00:00:00.000Z")
	assert.Contains(t, out, "-000753-01-01T00:00:00.000Z")
	assert.Contains(t, out, "2006-06-28T04:30:00.000Z")

	out, err = execute(t, "parse", "the dawn of time")
	require.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestFormatCommand(t *testing.T) {
	out, err := execute(t, "format", "--pattern", "yyyy", "2006-06-28", "44 BCE")
	require.NoError(t, err)
	assert.Equal(t, "2006\n44 BCE\n", out)
}

func TestTicksCommand(t *testing.T) {
	out, err := execute(t, "ticks", "--unit", "year", "--pixels", "100", "--origin", "2000", "--width", "500", "--json")
	require.NoError(t, err)

	var got struct {
		Ticks []json.RawMessage `json:"ticks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.Ticks)
	assert.Contains(t, out, `"2001"`)

	_, err = execute(t, "ticks", "--ether", "logarithmic", "--base", "1", "--json")
	assert.Error(t, err)
}

func TestLayoutCommand_Local(t *testing.T) {
	out, err := execute(t, "layout", "--events", "testdata/events.json", "testdata/rome.hcl")
	require.NoError(t, err)

	var rendering band.Rendering
	require.NoError(t, json.Unmarshal([]byte(out), &rendering))

	assert.Equal(t, "rome", rendering.ID)
	assert.Equal(t, -549, rendering.Origin.Year())
	require.Len(t, rendering.Bands, 1)
	assert.Len(t, rendering.Bands[0].Items, 3)
	require.Len(t, rendering.Skipped, 1)
	assert.Equal(t, 3, rendering.Skipped[0].Index)
	assert.Equal(t, "Undated", rendering.Skipped[0].Title)
}

func TestRenderText(t *testing.T) {
	spec := band.Spec{
		Origin: "2006-06-01",
		Width:  100,
		Bands: []band.BandSpec{
			{Name: "days", Ether: band.EtherSpec{Unit: "day", Pixels: 10}},
		},
	}
	raws := []timeline.RawEvent{
		{"start": "2006-06-03", "title": "Launch"},
		{"start": "2006-06-05", "end": "2006-06-08", "isDuration": true, "title": "Beta"},
	}
	rendering, err := band.NewRenderer(nil).Render(spec, raws)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, renderText(&out, rendering, 100))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "== days (2 tracks)", lines[0])
	assert.Contains(t, out.String(), "Launch")
	assert.Contains(t, out.String(), strings.Repeat("=", 30)+" Beta")
	assert.Equal(t, 20, strings.Index(lines[1], "*"))
}

func TestTextRow(t *testing.T) {
	row := newTextRow(6)
	row.put(0, "日本")
	assert.Equal(t, "日本  ", row.String())

	row = newTextRow(6)
	row.fill(4, 6, "=")
	row.putClipped(0, "abcdefgh")
	assert.Equal(t, "ab… ==", row.String())

	assert.False(t, row.free(3, 2))
	assert.True(t, row.free(3, 1))
}
