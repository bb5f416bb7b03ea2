package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
)

const defaultColumns = 100

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return defaultColumns
	}
	return width
}

// renderText draws each band as a ruler of tick labels followed by one
// line per track. Pixels are scaled so the viewport fills columns.
func renderText(w io.Writer, r *band.Rendering, columns int) error {
	if columns < 1 {
		return fmt.Errorf("columns must be positive, got %d", columns)
	}
	scaleX := float64(columns) / r.Width
	toColumn := func(px float64) int {
		return int(math.Floor(px * scaleX))
	}

	for _, b := range r.Bands {
		if _, err := fmt.Fprintf(w, "== %s (%d tracks)\n", b.Name, b.TrackCount); err != nil {
			return err
		}

		if len(b.Ticks) > 0 {
			ruler := newTextRow(columns)
			for _, tick := range b.Ticks {
				label := "|" + tick.Label
				if col := toColumn(tick.PixelX); ruler.free(col, runewidth.StringWidth(label)+1) {
					ruler.put(col, label)
				}
			}
			if _, err := fmt.Fprintln(w, ruler); err != nil {
				return err
			}
		}

		rows := make([]*textRow, b.TrackCount)
		for i := range rows {
			rows[i] = newTextRow(columns)
		}
		for _, item := range b.Items {
			if !item.Visible || item.Track < 0 || item.Track >= len(rows) {
				continue
			}
			row := rows[item.Track]
			start := toColumn(item.X)
			labelAt := start + 2
			if item.Record.IsDuration() {
				end := toColumn(item.X + item.Width)
				if end <= start {
					end = start + 1
				}
				row.fill(start, end, "=")
				labelAt = end + 1
			} else {
				row.fill(start, start+1, "*")
			}
			row.putClipped(labelAt, item.Record.Title)
		}
		for _, row := range rows {
			if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// textRow is a line of display cells. A wide rune fills its first cell and
// leaves the next one empty.
type textRow struct {
	cells []string
}

func newTextRow(columns int) *textRow {
	cells := make([]string, columns)
	for i := range cells {
		cells[i] = " "
	}
	return &textRow{cells: cells}
}

// free reports whether width blank cells start at col.
func (r *textRow) free(col, width int) bool {
	if col < 0 || col+width > len(r.cells) {
		return false
	}
	for _, c := range r.cells[col : col+width] {
		if c != " " {
			return false
		}
	}
	return true
}

func (r *textRow) fill(from, to int, s string) {
	from = max(from, 0)
	to = min(to, len(r.cells))
	for i := from; i < to; i++ {
		r.cells[i] = s
	}
}

// put writes s from col while it fits in blank cells.
func (r *textRow) put(col int, s string) {
	for _, ru := range s {
		w := runewidth.RuneWidth(ru)
		if w == 0 {
			continue
		}
		if !r.free(col, w) {
			return
		}
		r.cells[col] = string(ru)
		for i := 1; i < w; i++ {
			r.cells[col+i] = ""
		}
		col += w
	}
}

// putClipped writes s from col, truncated to the blank run there.
func (r *textRow) putClipped(col int, s string) {
	if col < 0 || col >= len(r.cells) {
		return
	}
	avail := 0
	for col+avail < len(r.cells) && r.cells[col+avail] == " " {
		avail++
	}
	// keep one blank cell before whatever follows
	if col+avail < len(r.cells) {
		avail--
	}
	if avail <= 0 {
		return
	}
	r.put(col, runewidth.Truncate(s, avail, "…"))
}

func (r *textRow) String() string {
	return strings.Join(r.cells, "")
}
