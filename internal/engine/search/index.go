package search

import "sort"

// TextSource is the minimal read view the index needs to rescan a window
// of the buffer around an edit. *buffer.Buffer satisfies it directly.
type TextSource interface {
	TextRange(start, end ByteOffset) string
	Len() ByteOffset
}

// Index maintains a sorted, non-overlapping match list for one active
// Query plus a current-match pointer, and keeps it up to date incrementally
// as edits land instead of rescanning the whole buffer on every keystroke.
type Index struct {
	query        *Query
	matches      []Match
	current      int // index into matches, -1 if none
	rescanWindow ByteOffset
}

// NewIndex creates an empty Index. rescanWindow bounds how much context
// around an edit gets rescanned during incremental maintenance (spec
// default: 4096 bytes).
func NewIndex(rescanWindow int) *Index {
	if rescanWindow <= 0 {
		rescanWindow = 4096
	}
	return &Index{current: -1, rescanWindow: ByteOffset(rescanWindow)}
}

// SetQuery installs q as the active query and performs a full-buffer scan.
// A nil query clears the index (no active search).
func (ix *Index) SetQuery(q *Query, src TextSource) {
	ix.query = q
	ix.current = -1
	if q.IsEmpty() {
		ix.matches = nil
		return
	}
	ix.matches = q.FindAllIn(src.TextRange(0, src.Len()))
	if len(ix.matches) > 0 {
		ix.current = 0
	}
}

// Query returns the active query, or nil if none is set.
func (ix *Index) Query() *Query {
	return ix.query
}

// Matches returns the current sorted, non-overlapping match list. The
// returned slice must not be mutated by the caller.
func (ix *Index) Matches() []Match {
	return ix.matches
}

// Current returns the match the pointer currently sits on.
func (ix *Index) Current() (Match, bool) {
	if ix.current < 0 || ix.current >= len(ix.matches) {
		return Match{}, false
	}
	return ix.matches[ix.current], true
}

// Next advances the pointer to the next match, wrapping at the end.
func (ix *Index) Next() (Match, bool) {
	if len(ix.matches) == 0 {
		return Match{}, false
	}
	ix.current = (ix.current + 1) % len(ix.matches)
	return ix.matches[ix.current], true
}

// Prev moves the pointer to the previous match, wrapping at the start.
func (ix *Index) Prev() (Match, bool) {
	if len(ix.matches) == 0 {
		return Match{}, false
	}
	ix.current--
	if ix.current < 0 {
		ix.current = len(ix.matches) - 1
	}
	return ix.matches[ix.current], true
}

// OnEdit performs the incremental maintenance pass described in spec §4.5
// for a single committed span edit: drop matches overlapping the edited
// range, shift the start offsets of later matches by the length delta,
// rescan a bounded window around the edit, and merge the rescanned matches
// back in, preserving sort order.
func (ix *Index) OnEdit(src TextSource, startByte, oldLen, newLen ByteOffset) {
	if ix.query.IsEmpty() {
		return
	}

	editEnd := startByte + oldLen
	delta := newLen - oldLen

	var kept []Match
	for _, m := range ix.matches {
		if m.Overlaps(Match{Start: startByte, End: editEnd}) {
			continue // dropped: overlapped the edited range
		}
		if m.Start >= editEnd {
			kept = append(kept, m.Shift(delta))
		} else {
			kept = append(kept, m) // entirely before the edit, unaffected
		}
	}

	newEditEnd := startByte + newLen
	winStart := startByte - ix.rescanWindow
	if winStart < 0 {
		winStart = 0
	}
	winEnd := newEditEnd + ix.rescanWindow
	if bufLen := src.Len(); winEnd > bufLen {
		winEnd = bufLen
	}
	if winStart > winEnd {
		winStart = winEnd
	}

	window := Match{Start: winStart, End: winEnd}
	rescanned := ix.query.FindAllIn(src.TextRange(winStart, winEnd))
	for i := range rescanned {
		rescanned[i] = rescanned[i].Shift(winStart)
	}

	merged := make([]Match, 0, len(kept)+len(rescanned))
	for _, m := range kept {
		if !m.Overlaps(window) {
			merged = append(merged, m)
		}
	}
	merged = append(merged, rescanned...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	ix.matches = merged
	if len(ix.matches) == 0 {
		ix.current = -1
	} else if ix.current >= len(ix.matches) {
		ix.current = 0
	}
}

// Clear removes the active query and all matches.
func (ix *Index) Clear() {
	ix.query = nil
	ix.matches = nil
	ix.current = -1
}
