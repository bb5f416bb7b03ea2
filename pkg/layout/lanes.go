package layout

import "sort"

// span is an occupied pixel range on a lane.
type span struct {
	start, end float64
}

// collides reports whether two spans share more than a touching boundary.
// A zero-width span collides with anything that contains its point.
func (s span) collides(o span) bool {
	if s.start < o.end && o.start < s.end {
		return true
	}
	if s.start == s.end || o.start == o.end {
		return s.start <= o.end && o.start <= s.end
	}
	return false
}

// lane holds spans sorted by start. While no forced placement has
// overlapped, ends are sorted too and lookups can stop early.
type lane struct {
	spans       []span
	overlapping bool
}

func (l *lane) fits(s span) bool {
	// spans starting after s.end cannot collide
	i := sort.Search(len(l.spans), func(i int) bool { return l.spans[i].start > s.end })
	for j := i - 1; j >= 0; j-- {
		occupied := l.spans[j]
		if occupied.collides(s) {
			return false
		}
		if !l.overlapping && occupied.end < s.start {
			break
		}
	}
	return true
}

func (l *lane) insert(s span) {
	if !l.fits(s) {
		l.overlapping = true
	}
	i := sort.Search(len(l.spans), func(i int) bool { return l.spans[i].start > s.start })
	l.spans = append(l.spans, span{})
	copy(l.spans[i+1:], l.spans[i:])
	l.spans[i] = s
}

// lanes is the growable arena of tracks.
type lanes []*lane

// at returns lane idx, creating empty lanes up to it.
func (ls *lanes) at(idx int) *lane {
	for len(*ls) <= idx {
		*ls = append(*ls, &lane{})
	}
	return (*ls)[idx]
}

// firstFit returns the lowest track s fits on, appending a new lane if none.
func (ls *lanes) firstFit(s span) int {
	for i, l := range *ls {
		if l.fits(s) {
			return i
		}
	}
	ls.at(len(*ls))
	return len(*ls) - 1
}
