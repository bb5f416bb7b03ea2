package hcl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
)

// AssertSpecsEqual compares two timeline specifications band by band so a
// failure names the band that differs.
func AssertSpecsEqual(t *testing.T, expected, actual *band.Spec) {
	t.Helper()
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Origin, actual.Origin)
	assert.Equal(t, expected.Width, actual.Width)

	if !assert.Equal(t, len(expected.Bands), len(actual.Bands)) {
		return
	}
	for i := range expected.Bands {
		AssertBandsEqual(t, &expected.Bands[i], &actual.Bands[i])
	}
}

// AssertBandsEqual compares two band specifications.
func AssertBandsEqual(t *testing.T, expected, actual *band.BandSpec) {
	t.Helper()
	assert.Equal(t, expected.Name, actual.Name)
	assert.Equal(t, expected.Ether, actual.Ether, "band %q ether", expected.Name)
	assert.Equal(t, expected.Ticks, actual.Ticks, "band %q ticks", expected.Name)
	assert.Equal(t, expected.Density, actual.Density, "band %q density", expected.Name)
	assert.Equal(t, expected.MinLabelSpacing, actual.MinLabelSpacing, "band %q min label spacing", expected.Name)
	assert.Equal(t, expected.Layout.Options(), actual.Layout.Options(), "band %q layout", expected.Name)
}
