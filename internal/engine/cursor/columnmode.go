package cursor

import "strings"

// ColumnBlock describes a rectangular (block) selection spanning a range of
// lines and a range of code-point columns, the same shape on every line
// regardless of how long each individual line actually is.
type ColumnBlock struct {
	StartLine, EndLine     uint32
	StartColumn, EndColumn uint32
}

// Normalize returns a ColumnBlock with StartLine <= EndLine and
// StartColumn <= EndColumn.
func (b ColumnBlock) Normalize() ColumnBlock {
	if b.StartLine > b.EndLine {
		b.StartLine, b.EndLine = b.EndLine, b.StartLine
	}
	if b.StartColumn > b.EndColumn {
		b.StartColumn, b.EndColumn = b.EndColumn, b.StartColumn
	}
	return b
}

// ToCursorSet materializes a ColumnBlock into one selection per covered
// line. A line shorter than StartColumn contributes a cursor at its own end
// rather than a selection, matching the usual block-selection behavior of
// not padding short lines with phantom columns.
func ColumnBlockToCursorSet(snap Snapshot, block ColumnBlock) *CursorSet {
	block = block.Normalize()
	var sels []Selection
	for line := block.StartLine; line <= block.EndLine; line++ {
		if line >= snap.LineCount() {
			break
		}
		lineEnd := snap.LineEndOffset(line)
		lineLen := snap.OffsetToPoint(lineEnd).Column

		startCol := block.StartColumn
		endCol := block.EndColumn
		if startCol > lineLen {
			startCol = lineLen
		}
		if endCol > lineLen {
			endCol = lineLen
		}

		anchor := snap.PointToOffset(Point{Line: line, Column: startCol})
		head := snap.PointToOffset(Point{Line: line, Column: endCol})
		sels = append(sels, NewSelection(anchor, head))
	}
	if len(sels) == 0 {
		return NewCursorSetAt(0)
	}
	return NewCursorSetFromSlice(sels)
}

// ExtendColumnBlock grows or shrinks a ColumnBlock so its far corner tracks
// the given point, keeping the near corner (the original anchor) fixed.
func ExtendColumnBlock(block ColumnBlock, anchorLine, anchorColumn uint32, toLine, toColumn uint32) ColumnBlock {
	return ColumnBlock{
		StartLine:   anchorLine,
		EndLine:     toLine,
		StartColumn: anchorColumn,
		EndColumn:   toColumn,
	}
}

// AddCursorAtNextMatch extends cs with a new selection at the next
// occurrence of pat after the primary selection's end, preserving the text
// already under the primary selection (so repeated invocations build up one
// cursor per match, editor-multi-cursor style). If pat is empty or no
// further match exists, cs is returned unchanged.
func AddCursorAtNextMatch(snap Snapshot, cs *CursorSet, pat string) *CursorSet {
	if pat == "" {
		return cs
	}
	primary := cs.Primary()
	text := snap.Text()
	searchFrom := int(primary.End())
	if searchFrom > len(text) {
		searchFrom = len(text)
	}

	idx := strings.Index(text[searchFrom:], pat)
	if idx < 0 {
		return cs
	}
	start := ByteOffset(searchFrom + idx)
	end := start + ByteOffset(len(pat))
	cs.Add(NewSelection(start, end))
	return cs
}
