package timeline

import (
	"testing"
	"time"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRange_ContainsAndOverlaps(t *testing.T) {
	r := Range{Start: day(2000, 1, 1), End: day(2000, 12, 31)}

	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Errorf("bounds should be contained")
	}
	if r.Contains(day(2001, 1, 1)) {
		t.Errorf("instant after end should not be contained")
	}

	tests := []struct {
		name     string
		other    Range
		expected bool
	}{
		{"inside", Range{Start: day(2000, 3, 1), End: day(2000, 4, 1)}, true},
		{"touching end", Range{Start: day(2000, 12, 31), End: day(2001, 6, 1)}, true},
		{"before", Range{Start: day(1999, 1, 1), End: day(1999, 12, 31)}, false},
		{"covering", Range{Start: day(1990, 1, 1), End: day(2010, 1, 1)}, true},
		{"point inside", Range{Start: day(2000, 6, 1), End: day(2000, 6, 1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Overlaps(tt.other); got != tt.expected {
				t.Errorf("Overlaps = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestNewRange(t *testing.T) {
	r, err := NewRange("44 BCE", "14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start.Year() != -43 || r.End.Year() != 14 {
		t.Errorf("unexpected range %v", r)
	}

	if _, err := NewRange("2001", "2000"); err == nil {
		t.Errorf("expected error for inverted range")
	}
	if _, err := NewRange("whenever", "2000"); err == nil {
		t.Errorf("expected error for unparsable start")
	}
}

func TestExtent(t *testing.T) {
	if _, ok := Extent(nil); ok {
		t.Errorf("empty input has no extent")
	}

	records := []IntervalRecord{
		{Start: day(2001, 5, 1), Title: "point"},
		{Start: day(1999, 1, 1), End: TimePtr(day(2000, 1, 1)), Title: "early"},
		{Start: day(2000, 6, 1), End: TimePtr(day(2003, 1, 1)), Title: "long"},
	}
	r, ok := Extent(records)
	if !ok {
		t.Fatalf("expected extent")
	}
	if !r.Start.Equal(day(1999, 1, 1)) || !r.End.Equal(day(2003, 1, 1)) {
		t.Errorf("unexpected extent %v", r)
	}
	if !r.Midpoint().Equal(datetime.FromMillis((datetime.Millis(r.Start) + datetime.Millis(r.End)) / 2)) {
		t.Errorf("unexpected midpoint %v", r.Midpoint())
	}
}

func TestCreateTumblingRanges(t *testing.T) {
	r := Range{Start: day(2000, 3, 15), End: day(2003, 1, 1)}

	ranges, err := CreateTumblingRanges(r, datetime.Year, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 3 {
		t.Fatalf("expected 3 ranges, got %d: %v", len(ranges), ranges)
	}
	if !ranges[0].Start.Equal(day(2000, 1, 1)) {
		t.Errorf("first range should start at the year boundary, got %v", ranges[0].Start)
	}
	for i := 1; i < len(ranges); i++ {
		if !ranges[i].Start.Equal(ranges[i-1].End) {
			t.Errorf("ranges should be contiguous at %d", i)
		}
	}
	if !ranges[len(ranges)-1].End.Equal(r.End) {
		t.Errorf("last range should end at range end")
	}

	months, err := CreateTumblingRanges(Range{Start: day(2001, 1, 31), End: day(2001, 4, 10)}, datetime.Month, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(months) != 4 {
		t.Errorf("expected 4 monthly ranges, got %d", len(months))
	}
}
