package cursor

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/smashed/core/internal/engine/buffer"
)

// Snapshot is the read-only buffer view motion functions walk over.
// Only the accessors motion needs are named here, so this package does not
// have to import buffer's full surface.
type Snapshot interface {
	Text() string
	TextRange(start, end ByteOffset) string
	Len() ByteOffset
	LineCount() uint32
	LineText(line uint32) string
	LineStartOffset(line uint32) ByteOffset
	LineEndOffset(line uint32) ByteOffset
	OffsetToPoint(offset ByteOffset) Point
	PointToOffset(point Point) ByteOffset
}

var _ Snapshot = (*buffer.Snapshot)(nil)

// Motion names one of the cursor movements the editing core's external
// move_cursors(motion, extend) interface (spec §6) can dispatch to.
type Motion uint8

const (
	// MotionCharLeft/MotionCharRight move by one code point.
	MotionCharLeft Motion = iota
	MotionCharRight

	// MotionWordLeft/MotionWordRight move by one Unicode word segment.
	MotionWordLeft
	MotionWordRight

	// MotionLineUp/MotionLineDown move one visual line, preserving the
	// sticky column.
	MotionLineUp
	MotionLineDown

	// MotionLineStart/MotionLineEnd move to the start/end of the current
	// line.
	MotionLineStart
	MotionLineEnd

	// MotionBufferStart/MotionBufferEnd move to the start/end of the buffer.
	MotionBufferStart
	MotionBufferEnd

	// MotionPageUp/MotionPageDown move by a page of visual lines,
	// preserving the sticky column.
	MotionPageUp
	MotionPageDown
)

// String returns the motion's name, for logging and CLI dispatch.
func (m Motion) String() string {
	switch m {
	case MotionCharLeft:
		return "char_left"
	case MotionCharRight:
		return "char_right"
	case MotionWordLeft:
		return "word_left"
	case MotionWordRight:
		return "word_right"
	case MotionLineUp:
		return "line_up"
	case MotionLineDown:
		return "line_down"
	case MotionLineStart:
		return "line_start"
	case MotionLineEnd:
		return "line_end"
	case MotionBufferStart:
		return "buffer_start"
	case MotionBufferEnd:
		return "buffer_end"
	case MotionPageUp:
		return "page_up"
	case MotionPageDown:
		return "page_down"
	default:
		return "unknown"
	}
}

// IsVertical reports whether m is a motion that preserves a sticky column
// across calls (LineUp/LineDown/PageUp/PageDown) rather than resetting it
// to the destination's own column.
func (m Motion) IsVertical() bool {
	switch m {
	case MotionLineUp, MotionLineDown, MotionPageUp, MotionPageDown:
		return true
	default:
		return false
	}
}

// CharLeft returns the offset of the code point before offset, stepping
// back over a single rune rather than a single byte.
func CharLeft(snap Snapshot, offset ByteOffset) ByteOffset {
	if offset <= 0 {
		return 0
	}
	windowStart := offset - 4
	if windowStart < 0 {
		windowStart = 0
	}
	window := snap.TextRange(windowStart, offset)
	_, size := utf8.DecodeLastRuneInString(window)
	if size == 0 {
		return offset - 1
	}
	return offset - ByteOffset(size)
}

// CharRight returns the offset of the code point after offset, stepping
// forward over a single rune rather than a single byte.
func CharRight(snap Snapshot, offset ByteOffset) ByteOffset {
	total := snap.Len()
	if offset >= total {
		return total
	}
	windowEnd := offset + 4
	if windowEnd > total {
		windowEnd = total
	}
	window := snap.TextRange(offset, windowEnd)
	_, size := utf8.DecodeRuneInString(window)
	if size == 0 {
		return offset + 1
	}
	return offset + ByteOffset(size)
}

// ApplyMotion dispatches m against snap, returning the resulting offset and
// the stickyColumn to pass back in on the next call. offset and
// stickyColumn are the cursor's current offset and sticky column (see
// StickyColumn); pageLines is the page size MotionPageUp/MotionPageDown use.
// Motions that are not vertical reset the returned sticky column to the
// destination's own column, so a subsequent vertical motion starts fresh
// from wherever horizontal motion actually landed.
func ApplyMotion(snap Snapshot, m Motion, offset ByteOffset, stickyColumn uint32, pageLines uint32) (ByteOffset, uint32) {
	switch m {
	case MotionCharLeft:
		next := CharLeft(snap, offset)
		return next, StickyColumn(snap, next)
	case MotionCharRight:
		next := CharRight(snap, offset)
		return next, StickyColumn(snap, next)
	case MotionWordLeft:
		next := WordLeft(snap, offset)
		return next, StickyColumn(snap, next)
	case MotionWordRight:
		next := WordRight(snap, offset)
		return next, StickyColumn(snap, next)
	case MotionLineUp:
		return LineUp(snap, offset, stickyColumn)
	case MotionLineDown:
		return LineDown(snap, offset, stickyColumn)
	case MotionLineStart:
		next := snap.LineStartOffset(snap.OffsetToPoint(offset).Line)
		return next, StickyColumn(snap, next)
	case MotionLineEnd:
		next := snap.LineEndOffset(snap.OffsetToPoint(offset).Line)
		return next, StickyColumn(snap, next)
	case MotionBufferStart:
		return 0, 0
	case MotionBufferEnd:
		next := snap.Len()
		return next, StickyColumn(snap, next)
	case MotionPageUp:
		return PageUp(snap, offset, stickyColumn, pageLines)
	case MotionPageDown:
		return PageDown(snap, offset, stickyColumn, pageLines)
	default:
		return offset, stickyColumn
	}
}

// WordLeft returns the offset of the start of the word boundary before
// offset, using Unicode word segmentation (UAX #29) rather than an ASCII
// notion of "word character". If offset is already at a boundary, it moves
// to the previous one.
func WordLeft(snap Snapshot, offset ByteOffset) ByteOffset {
	if offset <= 0 {
		return 0
	}
	point := snap.OffsetToPoint(offset)
	lineStart := snap.LineStartOffset(point.Line)
	if offset == lineStart {
		if point.Line == 0 {
			return 0
		}
		return snap.LineEndOffset(point.Line - 1)
	}

	line := snap.LineText(point.Line)
	prefix := line[:int(offset-lineStart)]

	// wordBoundaries(prefix) always ends with len(prefix) itself (the
	// boundary at offset); the previous entry is where the prior word
	// segment began.
	boundaries := wordBoundaries(prefix)
	if len(boundaries) < 2 {
		return lineStart
	}
	prev := boundaries[len(boundaries)-2]
	return lineStart + ByteOffset(prev)
}

// WordRight returns the offset of the start of the word boundary after
// offset, using Unicode word segmentation (UAX #29).
func WordRight(snap Snapshot, offset ByteOffset) ByteOffset {
	total := snap.Len()
	if offset >= total {
		return total
	}
	point := snap.OffsetToPoint(offset)
	lineEnd := snap.LineEndOffset(point.Line)
	if offset >= lineEnd {
		if point.Line+1 >= snap.LineCount() {
			return total
		}
		return snap.LineStartOffset(point.Line + 1)
	}

	line := snap.LineText(point.Line)
	rest := line[int(offset-snap.LineStartOffset(point.Line)):]

	// The first segment is whatever word/space run offset already sits
	// inside of; skip past it to land on the next boundary.
	first, _, _ := uniseg.FirstWordInString(rest, -1)
	if len(first) == 0 {
		return lineEnd
	}
	return offset + ByteOffset(len(first))
}

// wordBoundaries returns the byte offset after every word segment in s,
// in ascending order (including the final boundary at len(s)).
func wordBoundaries(s string) []int {
	var bounds []int
	state := -1
	pos := 0
	rest := s
	for len(rest) > 0 {
		var segment string
		segment, rest, state = uniseg.FirstWordInString(rest, state)
		pos += len(segment)
		bounds = append(bounds, pos)
	}
	return bounds
}

// LineUp returns the offset one visual line above offset, preserving the
// caller-supplied sticky column (measured in code points) rather than the
// cursor's own column. Pass the cursor's current code-point column as
// stickyColumn on the first call, then the returned column on subsequent
// calls so repeated vertical motion through short lines does not forget the
// original horizontal position.
func LineUp(snap Snapshot, offset ByteOffset, stickyColumn uint32) (ByteOffset, uint32) {
	point := snap.OffsetToPoint(offset)
	if point.Line == 0 {
		return 0, stickyColumn
	}
	target := Point{Line: point.Line - 1, Column: stickyColumn}
	return clampToLine(snap, target), stickyColumn
}

// LineDown returns the offset one visual line below offset, preserving the
// sticky column. See LineUp.
func LineDown(snap Snapshot, offset ByteOffset, stickyColumn uint32) (ByteOffset, uint32) {
	point := snap.OffsetToPoint(offset)
	lastLine := snap.LineCount() - 1
	if point.Line >= lastLine {
		return snap.Len(), stickyColumn
	}
	target := Point{Line: point.Line + 1, Column: stickyColumn}
	return clampToLine(snap, target), stickyColumn
}

// PageUp moves offset up by pageLines visual lines, preserving sticky column.
func PageUp(snap Snapshot, offset ByteOffset, stickyColumn uint32, pageLines uint32) (ByteOffset, uint32) {
	point := snap.OffsetToPoint(offset)
	var target uint32
	if point.Line > pageLines {
		target = point.Line - pageLines
	}
	return clampToLine(snap, Point{Line: target, Column: stickyColumn}), stickyColumn
}

// PageDown moves offset down by pageLines visual lines, preserving sticky column.
func PageDown(snap Snapshot, offset ByteOffset, stickyColumn uint32, pageLines uint32) (ByteOffset, uint32) {
	point := snap.OffsetToPoint(offset)
	lastLine := snap.LineCount() - 1
	target := point.Line + pageLines
	if target > lastLine {
		target = lastLine
	}
	return clampToLine(snap, Point{Line: target, Column: stickyColumn}), stickyColumn
}

// StickyColumn returns the code-point column of offset, suitable as the
// initial stickyColumn argument to LineUp/LineDown/PageUp/PageDown.
func StickyColumn(snap Snapshot, offset ByteOffset) uint32 {
	return snap.OffsetToPoint(offset).Column
}

// clampToLine resolves a Point whose Column may exceed the target line's
// length to the end of that line instead of spilling onto the next one.
func clampToLine(snap Snapshot, point Point) ByteOffset {
	lineStart := snap.LineStartOffset(point.Line)
	lineEnd := snap.LineEndOffset(point.Line)
	offset := snap.PointToOffset(point)
	if offset > lineEnd {
		return lineEnd
	}
	if offset < lineStart {
		return lineStart
	}
	return offset
}
