package search

import "github.com/smashed/core/internal/engine/buffer"

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Edit is an alias for buffer.Edit for convenience.
type Edit = buffer.Edit

// Match is a single, non-overlapping occurrence of a query in the buffer.
type Match struct {
	Start, End ByteOffset
}

// Len returns the byte length of the match.
func (m Match) Len() ByteOffset {
	return m.End - m.Start
}

// Overlaps returns true if m and other share any byte.
func (m Match) Overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}

// Shift returns m translated by delta bytes.
func (m Match) Shift(delta ByteOffset) Match {
	return Match{Start: m.Start + delta, End: m.End + delta}
}
