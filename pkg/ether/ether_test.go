package ether

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

var origin = time.Date(2006, time.June, 28, 0, 0, 0, 0, time.UTC)

func sampleInstants() []time.Time {
	return []time.Time{
		origin,
		origin.Add(time.Millisecond),
		origin.Add(-time.Millisecond),
		origin.Add(37 * time.Hour),
		origin.AddDate(0, -7, 3),
		origin.AddDate(12, 0, 0),
		datetime.YearStart(-499),
		datetime.YearStart(1),
		time.Date(1969, time.December, 31, 23, 59, 59, 999_000_000, time.UTC),
	}
}

func within(t *testing.T, want, got time.Time, tolerance time.Duration) {
	t.Helper()
	diff := got.Sub(want)
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, tolerance, "expected %v, got %v", want, got)
}

func TestLinear_DateToPixel(t *testing.T) {
	e, err := NewLinear(datetime.Day, 10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, e.DateToPixel(origin, origin))
	assert.InDelta(t, 10.0, e.DateToPixel(origin.AddDate(0, 0, 1), origin), 1e-9)
	assert.InDelta(t, -35.0, e.DateToPixel(origin.Add(-84*time.Hour), origin), 1e-9)
	assert.InDelta(t, 5.0, e.PixelWidth(origin, origin.Add(12*time.Hour)), 1e-9)
	assert.InDelta(t, -5.0, e.PixelWidth(origin.Add(12*time.Hour), origin), 1e-9)
	assert.Equal(t, datetime.Day, e.IntervalUnit())
	assert.Equal(t, 10.0, e.IntervalPixels())
}

func TestLinear_YearUsesAverageLength(t *testing.T) {
	e, err := NewLinear(datetime.Year, 100)
	require.NoError(t, err)

	start := datetime.YearStart(2023)
	end := datetime.YearStart(2024)
	// 365 calendar days against an average of 365.25.
	assert.InDelta(t, 100*365/365.25, e.PixelWidth(start, end), 1e-9)
}

func TestLinear_RoundTrip(t *testing.T) {
	for _, unit := range []datetime.Unit{datetime.Millisecond, datetime.Minute, datetime.Day, datetime.Month, datetime.Year, datetime.Millennium} {
		e, err := NewLinear(unit, 37.5)
		require.NoError(t, err)
		for _, ts := range sampleInstants() {
			within(t, ts, e.PixelToDate(e.DateToPixel(ts, origin), origin), time.Millisecond)
		}
	}
}

func TestLogarithmic_RoundTrip(t *testing.T) {
	for _, base := range []float64{1.5, 2, math.E, 10} {
		e, err := NewLogarithmic(datetime.Day, 50, base)
		require.NoError(t, err)
		for _, ts := range sampleInstants() {
			// The compressed scale loses resolution far from the origin.
			span := math.Abs(float64(datetime.Millis(ts) - datetime.Millis(origin)))
			tolerance := time.Duration(math.Max(1, span*1e-9)) * time.Millisecond
			within(t, ts, e.PixelToDate(e.DateToPixel(ts, origin), origin), tolerance)
		}
	}
}

func TestLogarithmic_Shape(t *testing.T) {
	e, err := NewLogarithmic(datetime.Day, 100, 10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, e.DateToPixel(origin, origin))
	// nine days after the origin is exactly one decade of base 10
	assert.InDelta(t, 100.0, e.DateToPixel(origin.AddDate(0, 0, 9), origin), 1e-9)
	assert.InDelta(t, -100.0, e.DateToPixel(origin.AddDate(0, 0, -9), origin), 1e-9)

	near := e.DateToPixel(origin.AddDate(0, 0, 10), origin)
	far := e.DateToPixel(origin.AddDate(0, 0, 1000), origin)
	assert.Less(t, far, 100*near, "growth must be sub-linear")
	assert.Equal(t, 10.0, e.Base())
}

func TestEthers_Monotonic(t *testing.T) {
	linear, err := NewLinear(datetime.Hour, 3)
	require.NoError(t, err)
	logarithmic, err := NewLogarithmic(datetime.Hour, 3, 2)
	require.NoError(t, err)
	hot, err := NewHotZone(datetime.Hour, 3, []Zone{
		{Start: origin.Add(10 * time.Hour), End: origin.Add(20 * time.Hour), Magnify: 4},
		{Start: origin.Add(-30 * time.Hour), End: origin.Add(-25 * time.Hour), Magnify: 0.5},
	})
	require.NoError(t, err)

	for name, e := range map[string]Ether{"linear": linear, "logarithmic": logarithmic, "hotzone": hot} {
		t.Run(name, func(t *testing.T) {
			prev := math.Inf(-1)
			for h := -48; h <= 48; h++ {
				px := e.DateToPixel(origin.Add(time.Duration(h)*time.Hour), origin)
				assert.Greater(t, px, prev, "hour %d", h)
				prev = px
			}
		})
	}
}

func TestHotZone_Magnification(t *testing.T) {
	base, err := NewLinear(datetime.Day, 10)
	require.NoError(t, err)

	a := origin.AddDate(0, 0, 10)
	b := origin.AddDate(0, 0, 20)
	e, err := NewHotZone(datetime.Day, 10, []Zone{{Start: a, End: b, Magnify: 2}})
	require.NoError(t, err)

	tests := []struct {
		name     string
		t        time.Time
		expected float64
	}{
		{"before zone", origin.AddDate(0, 0, 5), 50},
		{"zone start", a, 100},
		{"inside zone", origin.AddDate(0, 0, 15), 200},
		{"zone end", b, 300},
		{"after zone", origin.AddDate(0, 0, 25), 350},
		{"before origin", origin.AddDate(0, 0, -3), -30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, e.DateToPixel(tt.t, origin), 1e-9)
		})
	}

	inside := origin.AddDate(0, 0, 12)
	assert.Greater(t, e.DateToPixel(inside, origin), base.DateToPixel(inside, origin))
}

func TestHotZone_OriginInsideOrAfterZone(t *testing.T) {
	a := origin.AddDate(0, 0, -10)
	b := origin.AddDate(0, 0, 10)
	e, err := NewHotZone(datetime.Day, 10, []Zone{{Start: a, End: b, Magnify: 3}})
	require.NoError(t, err)

	// Origin inside the zone: the zone is stretched from its linear start
	// pixel and later instants shift by its whole expansion.
	assert.InDelta(t, -100.0, e.DateToPixel(a, origin), 1e-9)
	assert.InDelta(t, 200.0, e.DateToPixel(origin, origin), 1e-9)
	assert.InDelta(t, 500.0, e.DateToPixel(b, origin), 1e-9)
	assert.InDelta(t, 550.0, e.DateToPixel(origin.AddDate(0, 0, 15), origin), 1e-9)
	assert.InDelta(t, -150.0, e.DateToPixel(origin.AddDate(0, 0, -15), origin), 1e-9)

	// Origin after the zone: the zone has no effect.
	later := origin.AddDate(0, 0, 30)
	assert.InDelta(t, 50.0, e.DateToPixel(later.AddDate(0, 0, 5), later), 1e-9)
	assert.InDelta(t, -400.0, e.DateToPixel(a, later), 1e-9)
	assert.InDelta(t, -300.0, e.DateToPixel(origin, later), 1e-9)

	// Origin at the zone end counts as after it.
	assert.InDelta(t, -200.0, e.DateToPixel(a, b), 1e-9)
}

func TestHotZone_ShiftByOriginPosition(t *testing.T) {
	e, err := NewHotZone(datetime.Day, 10, []Zone{
		{Start: origin.AddDate(0, 0, 10), End: origin.AddDate(0, 0, 20), Magnify: 2},
	})
	require.NoError(t, err)
	day := func(n int) time.Time { return origin.AddDate(0, 0, n) }

	tests := []struct {
		name     string
		target   time.Time
		origin   time.Time
		expected float64
	}{
		{"origin beyond zone, target before it", day(5), day(30), -250},
		{"origin beyond zone, target inside it", day(15), day(30), -150},
		{"origin inside zone, target after it", day(25), day(15), 200},
		{"origin inside zone, target inside it", day(18), day(15), 110},
		{"origin before zone, target after it", day(25), day(0), 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, e.DateToPixel(tt.target, tt.origin), 1e-9)
			within(t, tt.target, e.PixelToDate(tt.expected, tt.origin), time.Millisecond)
		})
	}

	assert.InDelta(t, 0.0, e.PixelWidth(day(15), day(15)), 1e-9)
	assert.InDelta(t, 60.0, e.PixelWidth(day(15), day(18)), 1e-9)
	assert.InDelta(t, -60.0, e.PixelWidth(day(15), day(12)), 1e-9)
}

func TestHotZone_ExactInverse(t *testing.T) {
	e, err := NewHotZone(datetime.Day, 10, []Zone{
		{Start: origin.AddDate(0, 0, 40), End: origin.AddDate(0, 0, 45), Magnify: 0.25},
		{Start: origin.AddDate(0, 0, 10), End: origin.AddDate(0, 0, 20), Magnify: 2},
		{Start: origin.AddDate(0, 0, -20), End: origin.AddDate(0, 0, 2), Magnify: 5},
	})
	require.NoError(t, err)

	for d := -40; d <= 60; d++ {
		ts := origin.AddDate(0, 0, d).Add(7 * time.Hour)
		within(t, ts, e.PixelToDate(e.DateToPixel(ts, origin), origin), time.Millisecond)
	}
	for _, ts := range sampleInstants() {
		within(t, ts, e.PixelToDate(e.DateToPixel(ts, origin), origin), time.Millisecond)
	}
}

func TestHotZone_SortsZones(t *testing.T) {
	later := Zone{Start: origin.AddDate(1, 0, 0), End: origin.AddDate(2, 0, 0), Magnify: 2}
	earlier := Zone{Start: origin, End: origin.AddDate(0, 1, 0), Magnify: 3}
	e, err := NewHotZone(datetime.Month, 5, []Zone{later, earlier})
	require.NoError(t, err)

	zones := e.Zones()
	require.Len(t, zones, 2)
	assert.Equal(t, 3.0, zones[0].Magnify)
	assert.Equal(t, 2.0, zones[1].Magnify)
	assert.InDelta(t, e.Base().PixelWidth(origin, origin.AddDate(0, 0, -3)), e.PixelWidth(origin, origin.AddDate(0, 0, -3)), 1e-9)
}

func TestConstruction_Errors(t *testing.T) {
	zone := func(startDay, endDay int, magnify float64) Zone {
		return Zone{Start: origin.AddDate(0, 0, startDay), End: origin.AddDate(0, 0, endDay), Magnify: magnify}
	}

	tests := []struct {
		name  string
		build func() error
		field string
	}{
		{"linear zero pixels", func() error { _, err := NewLinear(datetime.Day, 0); return err }, "pixels"},
		{"linear negative pixels", func() error { _, err := NewLinear(datetime.Day, -1); return err }, "pixels"},
		{"linear NaN pixels", func() error { _, err := NewLinear(datetime.Day, math.NaN()); return err }, "pixels"},
		{"unknown unit", func() error { _, err := NewLinear(datetime.Unit("fortnight"), 1); return err }, "unit"},
		{"log base one", func() error { _, err := NewLogarithmic(datetime.Day, 10, 1); return err }, "base"},
		{"log base below one", func() error { _, err := NewLogarithmic(datetime.Day, 10, 0.5); return err }, "base"},
		{"log zero pixels", func() error { _, err := NewLogarithmic(datetime.Day, 0, 10); return err }, "pixels"},
		{"hot zero pixels", func() error { _, err := NewHotZone(datetime.Day, 0, nil); return err }, "pixels"},
		{"hot inverted zone", func() error { _, err := NewHotZone(datetime.Day, 1, []Zone{zone(5, 1, 2)}); return err }, "zones[0]"},
		{"hot empty zone", func() error { _, err := NewHotZone(datetime.Day, 1, []Zone{zone(1, 1, 2)}); return err }, "zones[0]"},
		{"hot zero magnify", func() error { _, err := NewHotZone(datetime.Day, 1, []Zone{zone(1, 2, 0)}); return err }, "zones[0].magnify"},
		{"hot overlapping zones", func() error { _, err := NewHotZone(datetime.Day, 1, []Zone{zone(4, 8, 2), zone(1, 5, 2)}); return err }, "zones[1]"},
		{"unknown type", func() error { _, err := New(Config{Type: "spiral", Unit: datetime.Day, Pixels: 1}); return err }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestHotZone_TouchingZonesAllowed(t *testing.T) {
	_, err := NewHotZone(datetime.Day, 1, []Zone{
		{Start: origin, End: origin.AddDate(0, 0, 1), Magnify: 2},
		{Start: origin.AddDate(0, 0, 1), End: origin.AddDate(0, 0, 2), Magnify: 3},
	})
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	e, err := New(Config{Unit: datetime.Year, Pixels: 20})
	require.NoError(t, err)
	assert.IsType(t, &Linear{}, e)

	e, err = New(Config{Type: LogarithmicType, Unit: datetime.Year, Pixels: 20, Base: 2})
	require.NoError(t, err)
	assert.IsType(t, &Logarithmic{}, e)

	e, err = New(Config{Type: HotZoneType, Unit: datetime.Year, Pixels: 20, Zones: []Zone{
		{Start: datetime.YearStart(1900), End: datetime.YearStart(1950), Magnify: 3},
	}})
	require.NoError(t, err)
	assert.IsType(t, &HotZone{}, e)
	assert.Equal(t, datetime.Year, e.IntervalUnit())
	assert.Equal(t, 20.0, e.IntervalPixels())
}
