package buffer

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/smashed/core/internal/engine/encoding"
	"github.com/smashed/core/internal/engine/rope"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "\\n"
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// Buffer wraps a Rope with additional editor metadata: line ending, tab
// width, and revision.
//
// Buffer is not safe for concurrent use. The editing core is single-owner
// (see the concurrency model in SPEC_FULL.md §5): all mutation happens on
// one edit thread via the pipeline package, which is the only caller that
// should hold a Buffer by pointer across goroutines. Readers that need
// concurrent access should take a Snapshot, which is immutable and safe to
// share freely.
type Buffer struct {
	rope       rope.Rope
	revisionID RevisionID
	lineEnding LineEnding
	tabWidth   int
	path       string
	savedHash  [32]byte
	hasSaved   bool
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		rope:       rope.New(),
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
		tabWidth:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	s = b.normalizeToLF(s)
	b.rope = rope.FromString(s)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	b := NewBuffer(opts...)

	// Read all content first to handle line ending normalization correctly
	// (CRLF sequences may be split across read boundaries)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text := b.normalizeToLF(string(data))
	b.rope = rope.FromString(text)
	return b, nil
}

// normalizeToLF rewrites every line ending in s to a bare LF. The rope
// always stores LF-only content (spec §4.7) regardless of b.lineEnding,
// which records only the style content is transcoded back to on save; see
// encoding.FromLF and Engine.Save.
func (b *Buffer) normalizeToLF(s string) string {
	return encoding.ToLF(s)
}

// Read Operations

// Text returns the full buffer content as a string.
// For large buffers, prefer using TextRange or iterators.
func (b *Buffer) Text() string {
	return b.rope.String()
}

// TextRange returns text in the given byte range.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	return b.rope.Slice(rope.ByteOffset(start), rope.ByteOffset(end))
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	return ByteOffset(b.rope.Len())
}

// RuneLen returns the total number of Unicode code points in the buffer.
func (b *Buffer) RuneLen() int {
	return b.rope.RuneCount()
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	return b.rope.LineCount()
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	return b.rope.LineText(line)
}

// LineLen returns the length of a specific line in bytes (without newline).
func (b *Buffer) LineLen(line uint32) int {
	start := b.rope.LineStartOffset(line)
	end := b.rope.LineEndOffset(line)
	return int(end - start)
}

// LineRuneLen returns the length of a specific line in code points.
func (b *Buffer) LineRuneLen(line uint32) int {
	return utf8.RuneCountInString(b.rope.LineText(line))
}

// ByteAt returns the byte at the given offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, bool) {
	return b.rope.ByteAt(rope.ByteOffset(offset))
}

// RuneAt returns the rune at the given byte offset.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (b *Buffer) RuneAt(offset ByteOffset) (rune, int) {
	ropeLen := ByteOffset(b.rope.Len())
	if offset < 0 || offset >= ropeLen {
		return utf8.RuneError, 0
	}

	end := offset + 4
	if end > ropeLen {
		end = ropeLen
	}

	s := b.rope.Slice(rope.ByteOffset(offset), rope.ByteOffset(end))
	return utf8.DecodeRuneInString(s)
}

// Coordinate Conversion
//
// Point.Column counts Unicode code points from the start of the line, not
// bytes. The rope's own line/column math (rope.Point) is byte-based and
// stays that way for speed; these conversions translate at the boundary.

// OffsetToPoint converts a byte offset to a code-point line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	p := b.rope.OffsetToPoint(rope.ByteOffset(offset))
	lineStart := b.rope.LineStartOffset(p.Line)
	prefix := b.rope.Slice(lineStart, rope.ByteOffset(offset))
	return Point{Line: p.Line, Column: uint32(utf8.RuneCountInString(prefix))}
}

// PointToOffset converts a code-point line/column to a byte offset.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	lineStart := b.rope.LineStartOffset(point.Line)
	lineEnd := b.rope.LineEndOffset(point.Line)
	lineText := b.rope.Slice(lineStart, lineEnd)
	return ByteOffset(lineStart) + ByteOffset(byteOffsetFromRuneColumn(lineText, point.Column))
}

// OffsetToPointUTF16 converts a byte offset to UTF-16 line/column.
func (b *Buffer) OffsetToPointUTF16(offset ByteOffset) PointUTF16 {
	point := b.rope.OffsetToPoint(rope.ByteOffset(offset))
	lineStart := b.rope.LineStartOffset(point.Line)
	lineText := b.rope.Slice(lineStart, rope.ByteOffset(offset))

	utf16Col := utf16ColumnFromString(lineText)

	return PointUTF16{Line: point.Line, Column: utf16Col}
}

// PointUTF16ToOffset converts UTF-16 line/column to byte offset.
func (b *Buffer) PointUTF16ToOffset(point PointUTF16) ByteOffset {
	lineStart := b.rope.LineStartOffset(point.Line)
	lineEnd := b.rope.LineEndOffset(point.Line)
	lineText := b.rope.Slice(lineStart, lineEnd)

	byteCol := byteOffsetFromUTF16Column(lineText, point.Column)

	return ByteOffset(lineStart) + ByteOffset(byteCol)
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	return ByteOffset(b.rope.LineStartOffset(line))
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	return ByteOffset(b.rope.LineEndOffset(line))
}

// Write Operations
//
// These are the rope-mutating primitives the pipeline package calls from
// its "apply to rope" stage. They do not validate cross-cutting concerns
// (cursor remap, history, swap log, dirty/revision bookkeeping beyond the
// bare revision bump) -- that orchestration lives in pipeline.Pipeline.

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	if offset < 0 || offset > ByteOffset(b.rope.Len()) {
		return 0, ErrOffsetOutOfRange
	}

	text = b.normalizeToLF(text)
	b.rope = b.rope.Insert(rope.ByteOffset(offset), text)
	b.revisionID = NewRevisionID()

	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	if start < 0 || start > end || end > ByteOffset(b.rope.Len()) {
		return ErrRangeInvalid
	}

	b.rope = b.rope.Delete(rope.ByteOffset(start), rope.ByteOffset(end))
	b.revisionID = NewRevisionID()

	return nil
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	if start < 0 || start > end || end > ByteOffset(b.rope.Len()) {
		return 0, ErrRangeInvalid
	}

	text = b.normalizeToLF(text)
	b.rope = b.rope.Replace(rope.ByteOffset(start), rope.ByteOffset(end), text)
	b.revisionID = NewRevisionID()

	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
		edit.Range.End > ByteOffset(b.rope.Len()) {
		return EditResult{}, ErrRangeInvalid
	}

	oldText := b.rope.Slice(rope.ByteOffset(edit.Range.Start), rope.ByteOffset(edit.Range.End))
	text := b.normalizeToLF(edit.NewText)
	b.rope = b.rope.Replace(rope.ByteOffset(edit.Range.Start), rope.ByteOffset(edit.Range.End), text)
	b.revisionID = NewRevisionID()

	newEnd := edit.Range.Start + ByteOffset(len(text))

	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: newEnd},
		OldText:  oldText,
		Delta:    int64(len(text)) - int64(edit.Range.Len()),
	}, nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) to maintain validity.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return ErrEditsOverlap
		}
	}

	ropeLen := ByteOffset(b.rope.Len())
	for _, edit := range edits {
		if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
			edit.Range.End > ropeLen {
			return ErrRangeInvalid
		}
	}

	for _, edit := range edits {
		text := b.normalizeToLF(edit.NewText)
		b.rope = b.rope.Replace(rope.ByteOffset(edit.Range.Start), rope.ByteOffset(edit.Range.End), text)
	}

	b.revisionID = NewRevisionID()
	return nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	return b.revisionID
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.rope.IsEmpty()
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	return b.tabWidth
}

// SetLineEnding sets the buffer's line ending style.
// This does not convert existing line endings.
func (b *Buffer) SetLineEnding(le LineEnding) {
	b.lineEnding = le
}

// SetTabWidth sets the buffer's tab width.
func (b *Buffer) SetTabWidth(width int) {
	if width > 0 {
		b.tabWidth = width
	}
}

// Path returns the buffer's associated file path, or "" for an unnamed buffer.
func (b *Buffer) Path() string {
	return b.path
}

// SetPath sets the buffer's associated file path.
func (b *Buffer) SetPath(path string) {
	b.path = path
}

// SavedBytes returns the buffer's current content transcoded from the
// rope's internal LF-only form to its on-disk line-ending style
// (spec §4.7). This is what Save writes and what ContentHash hashes, so
// the saved hash always matches the bytes actually on disk.
func (b *Buffer) SavedBytes() []byte {
	return []byte(encoding.FromLF(b.rope.String(), toEncodingLineEnding(b.lineEnding)))
}

// toEncodingLineEnding maps a buffer.LineEnding to its encoding.LineEnding
// counterpart for encoding.FromLF.
func toEncodingLineEnding(le LineEnding) encoding.LineEnding {
	switch le {
	case LineEndingCRLF:
		return encoding.CRLF
	case LineEndingCR:
		return encoding.CR
	default:
		return encoding.LF
	}
}

// ContentHash returns the SHA-256 hash of the buffer's saved-form content
// (SavedBytes), matching the bytes a save or a swap-log hash comparison
// would see on disk.
func (b *Buffer) ContentHash() [32]byte {
	return hashString(string(b.SavedBytes()))
}

// MarkSaved records the current content hash as the saved baseline.
func (b *Buffer) MarkSaved() {
	b.savedHash = b.ContentHash()
	b.hasSaved = true
}

// SetSavedHash records an externally computed hash as the saved baseline
// (used when opening a file: the on-disk hash is known before any rope
// content is built from it).
func (b *Buffer) SetSavedHash(hash [32]byte) {
	b.savedHash = hash
	b.hasSaved = true
}

// IsDirty reports whether the buffer's content differs from the saved hash.
// A buffer with no saved baseline is dirty iff it is non-empty.
func (b *Buffer) IsDirty() bool {
	if !b.hasSaved {
		return !b.IsEmpty()
	}
	return b.ContentHash() != b.savedHash
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	return &Snapshot{
		rope:       b.rope, // Ropes are immutable, safe to share
		revisionID: b.revisionID,
		lineEnding: b.lineEnding,
		tabWidth:   b.tabWidth,
	}
}

// Helper functions for coordinate conversion

// byteOffsetFromRuneColumn converts a code-point column to a byte offset
// within a line, clamped to the line's length.
func byteOffsetFromRuneColumn(line string, col uint32) int {
	var n uint32
	byteOffset := 0
	for _, r := range line {
		if n >= col {
			break
		}
		byteOffset += utf8.RuneLen(r)
		n++
	}
	return byteOffset
}

// utf16ColumnFromString counts UTF-16 code units in a string.
func utf16ColumnFromString(s string) uint32 {
	var col uint32
	for _, r := range s {
		if r >= 0x10000 {
			col += 2 // Surrogate pair (characters outside BMP)
		} else {
			col++
		}
	}
	return col
}

// byteOffsetFromUTF16Column converts a UTF-16 column to byte offset within a line.
func byteOffsetFromUTF16Column(line string, utf16Col uint32) int {
	var col uint32
	var byteOffset int

	for _, r := range line {
		if col >= utf16Col {
			break
		}

		if r >= 0x10000 {
			col += 2 // Surrogate pair
		} else {
			col++
		}
		byteOffset += utf8.RuneLen(r)
	}

	return byteOffset
}
