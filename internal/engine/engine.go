package engine

import (
	"fmt"
	"io"
	"sync"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/cursor"
	"github.com/smashed/core/internal/engine/encoding"
	"github.com/smashed/core/internal/engine/engineconf"
	"github.com/smashed/core/internal/engine/history"
	"github.com/smashed/core/internal/engine/pipeline"
	"github.com/smashed/core/internal/engine/search"
	"github.com/smashed/core/internal/engine/swap"
)

// Re-export commonly used types for convenience, so most callers never
// need to import the sub-packages directly.
type (
	// ByteOffset is a byte position in the buffer.
	ByteOffset = buffer.ByteOffset

	// Point represents a line/column position.
	Point = buffer.Point

	// PointUTF16 represents a UTF-16 line/column position (for LSP).
	PointUTF16 = buffer.PointUTF16

	// Range represents a byte range in the buffer.
	Range = buffer.Range

	// Edit represents an edit operation.
	Edit = buffer.Edit

	// EditResult contains information about a completed edit.
	EditResult = buffer.EditResult

	// Selection represents a cursor selection.
	Selection = cursor.Selection

	// LineEnding specifies the line ending style.
	LineEnding = buffer.LineEnding

	// RevisionID uniquely identifies a buffer revision.
	RevisionID = buffer.RevisionID

	// NodeID identifies a node in the undo tree.
	NodeID = history.NodeID

	// EditCommand is anything the pipeline can apply: Insert, Delete,
	// Replace, IndentLines, TransformCase, or Batch.
	EditCommand = pipeline.EditCommand

	// Insert inserts text at a position.
	Insert = pipeline.Insert

	// Delete removes a range.
	Delete = pipeline.Delete

	// ReplaceCmd replaces a range with new text. (Named ReplaceCmd, not
	// Replace, because Engine already has a Replace method.)
	ReplaceCmd = pipeline.Replace

	// IndentLines shifts a set of lines' leading indentation.
	IndentLines = pipeline.IndentLines

	// IndentDirection selects IndentIn or IndentOut.
	IndentDirection = pipeline.IndentDirection

	// TransformCase rewrites a range's case.
	TransformCase = pipeline.TransformCase

	// CaseKind selects which case transform TransformCase applies.
	CaseKind = pipeline.CaseKind

	// CmdBatch groups several EditCommands into one atomic, one undo-step
	// application. (Named CmdBatch to avoid colliding with any future
	// batch-oriented method.)
	CmdBatch = pipeline.Batch

	// Origin tags the provenance of an applied edit.
	Origin = pipeline.Origin

	// EditOutcome reports what a pipeline.Apply/Undo/Redo/Jump call did.
	EditOutcome = pipeline.EditOutcome

	// ChangeSpan is one contiguous byte-range replacement within an
	// EditOutcome or EditEvent.
	ChangeSpan = pipeline.ChangeSpan

	// EditEvent is published to subscribers after every committed edit.
	EditEvent = pipeline.EditEvent

	// EventReceiver is a subscriber's read handle on the event stream.
	EventReceiver = pipeline.Receiver

	// SearchQuery describes what the search index looks for.
	SearchQuery = search.Query

	// SearchMatch is one occurrence found by the search index.
	SearchMatch = search.Match

	// Motion names a cursor movement MoveCursors can dispatch (spec §6
	// move_cursors(motion, extend)).
	Motion = cursor.Motion

	// ColumnBlock describes a rectangular (block) selection, the shape
	// SetColumnSelection/ExtendColumnSelection build a CursorSet from.
	ColumnBlock = cursor.ColumnBlock
)

// Re-export constants.
const (
	LineEndingLF   = buffer.LineEndingLF
	LineEndingCRLF = buffer.LineEndingCRLF
	LineEndingCR   = buffer.LineEndingCR

	IndentIn  = pipeline.IndentIn
	IndentOut = pipeline.IndentOut

	CaseUpper  = pipeline.CaseUpper
	CaseLower  = pipeline.CaseLower
	CaseTitle  = pipeline.CaseTitle
	CaseToggle = pipeline.CaseToggle

	OriginLocal  = pipeline.Local
	OriginRemote = pipeline.Remote
	OriginUndo   = pipeline.Undo
	OriginReplay = pipeline.Replay

	MotionCharLeft     = cursor.MotionCharLeft
	MotionCharRight    = cursor.MotionCharRight
	MotionWordLeft     = cursor.MotionWordLeft
	MotionWordRight    = cursor.MotionWordRight
	MotionLineUp       = cursor.MotionLineUp
	MotionLineDown     = cursor.MotionLineDown
	MotionLineStart    = cursor.MotionLineStart
	MotionLineEnd      = cursor.MotionLineEnd
	MotionBufferStart  = cursor.MotionBufferStart
	MotionBufferEnd    = cursor.MotionBufferEnd
	MotionPageUp       = cursor.MotionPageUp
	MotionPageDown     = cursor.MotionPageDown
)

// Engine is the main facade for the text editor's editing core. It
// composes a Buffer, CursorSet, branching undo History, search Index, and
// an optional swap-log Writer behind the edit Pipeline, the sole mutation
// entry point (every write method below funnels through it).
//
// All operations are thread-safe: a single RWMutex serializes writes and
// allows concurrent reads, matching the single-edit-thread model the
// pipeline itself assumes -- the mutex is what turns Engine's external
// multi-goroutine API into that single logical thread.
type Engine struct {
	mu sync.RWMutex

	buf     *buffer.Buffer
	cursors *cursor.CursorSet
	hist    *history.History
	idx     *search.Index
	bc      *pipeline.Broadcaster
	pipe    *pipeline.Pipeline
	swapW   *swap.Writer

	cfg      engineconf.Config
	readOnly bool

	// stickyCols holds the code-point column MoveCursors preserves across a
	// run of vertical motions (LineUp/LineDown/PageUp/PageDown), indexed
	// the same as cursors.All() as of the last MoveCursors call.
	// stickyValid is cleared by anything else that changes the cursor set
	// or buffer content, so a vertical run never resumes stale columns.
	stickyCols  []uint32
	stickyValid bool
}

func buildSettings(opts []Option) *settings {
	s := &settings{
		tabWidth:   engineconf.DefaultTabWidth,
		lineEnding: buffer.LineEndingLF,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newFromBuffer wires every sub-component around an already-constructed
// buffer. Shared by New and NewFromReader.
func newFromBuffer(buf *buffer.Buffer, s *settings) *Engine {
	cfg := engineconf.New(s.confOpts...)

	e := &Engine{
		buf:      buf,
		cursors:  cursor.NewCursorSetAt(0),
		hist:     history.NewHistory(cfg.MaxUndoNodes).WithMaxAge(cfg.UndoMaxAge).WithMaxMemory(cfg.UndoMaxMemoryBytes).WithGroupingInterval(cfg.GroupingInterval),
		idx:      search.NewIndex(cfg.SearchRescanWindow),
		bc:       pipeline.NewBroadcaster(cfg.EventBufferSize, cfg.Logger),
		cfg:      cfg,
		readOnly: s.readOnly,
	}
	if s.path != "" {
		e.buf.SetPath(s.path)
	}
	e.pipe = pipeline.New(e.buf, e.cursors, e.hist, e.idx, nil, e.bc, cfg.Logger)
	return e
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	s := buildSettings(opts)

	bufOpts := []buffer.Option{
		buffer.WithTabWidth(s.tabWidth),
		buffer.WithLineEnding(s.lineEnding),
	}
	var buf *buffer.Buffer
	if s.initContent != "" {
		buf = buffer.NewBufferFromString(s.initContent, bufOpts...)
	} else {
		buf = buffer.NewBuffer(bufOpts...)
	}

	return newFromBuffer(buf, s)
}

// NewFromReader creates an Engine from an io.Reader, e.g. an opened file.
// Like OpenFile, a leading UTF-8 BOM is stripped and, if WithDecoder was
// given, the remaining bytes are run through it before entering the rope
// (spec §4.7).
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	s := buildSettings(opts)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	stripped, _ := encoding.DetectBOM(raw)
	text, err := decodeBytes(stripped, s.decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	bufOpts := []buffer.Option{
		buffer.WithTabWidth(s.tabWidth),
		buffer.WithLineEnding(s.lineEnding),
	}
	buf := buffer.NewBufferFromString(text, bufOpts...)

	return newFromBuffer(buf, s), nil
}

// ============================================================================
// Read Operations (Buffer interface)
// ============================================================================

// Text returns the full buffer content.
// For large buffers, prefer using TextRange or iterators.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Text()
}

// TextRange returns text in the given byte range.
func (e *Engine) TextRange(start, end ByteOffset) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.TextRange(start, end)
}

// Len returns the total byte length of the buffer.
func (e *Engine) Len() ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Len()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineCount()
}

// LineText returns the text of a specific line (without newline).
func (e *Engine) LineText(line uint32) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineText(line)
}

// LineLen returns the length of a specific line in bytes (without newline).
func (e *Engine) LineLen(line uint32) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineLen(line)
}

// ByteAt returns the byte at the given offset.
func (e *Engine) ByteAt(offset ByteOffset) (byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.ByteAt(offset)
}

// RuneAt returns the rune at the given byte offset.
func (e *Engine) RuneAt(offset ByteOffset) (rune, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.RuneAt(offset)
}

// IsEmpty returns true if the buffer is empty.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.IsEmpty()
}

// IsDirty reports whether the buffer's content differs from its last
// saved baseline.
func (e *Engine) IsDirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.IsDirty()
}

// ============================================================================
// Position Conversion
// ============================================================================

// OffsetToPoint converts a byte offset to line/column.
func (e *Engine) OffsetToPoint(offset ByteOffset) Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.OffsetToPoint(offset)
}

// PointToOffset converts line/column to byte offset.
func (e *Engine) PointToOffset(point Point) ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.PointToOffset(point)
}

// OffsetToPointUTF16 converts a byte offset to UTF-16 line/column.
func (e *Engine) OffsetToPointUTF16(offset ByteOffset) PointUTF16 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.OffsetToPointUTF16(offset)
}

// PointUTF16ToOffset converts UTF-16 line/column to byte offset.
func (e *Engine) PointUTF16ToOffset(point PointUTF16) ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.PointUTF16ToOffset(point)
}

// LineStartOffset returns the byte offset of the start of a line.
func (e *Engine) LineStartOffset(line uint32) ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineStartOffset(line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (e *Engine) LineEndOffset(line uint32) ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineEndOffset(line)
}

// ============================================================================
// Write Operations -- every one of these funnels through e.pipe.Apply,
// the editing core's sole mutation entry point.
// ============================================================================

// Insert inserts text at the given offset. Returns the end position of the
// inserted text.
func (e *Engine) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return 0, ErrReadOnly
	}
	outcome, err := e.pipe.Apply(pipeline.Insert{Position: offset, Text: text}, pipeline.Local)
	if err != nil {
		return 0, err
	}
	return endOffsetOf(outcome, offset), nil
}

// Delete removes text in the given range.
func (e *Engine) Delete(start, end ByteOffset) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	_, err := e.pipe.Apply(pipeline.Delete{Range: Range{Start: start, End: end}}, pipeline.Local)
	return err
}

// Replace replaces text in the given range with new text. Returns the end
// position of the replacement text.
func (e *Engine) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return 0, ErrReadOnly
	}
	outcome, err := e.pipe.Apply(pipeline.Replace{Range: Range{Start: start, End: end}, Text: text}, pipeline.Local)
	if err != nil {
		return 0, err
	}
	return endOffsetOf(outcome, start), nil
}

// ApplyEdit applies a single edit operation.
func (e *Engine) ApplyEdit(edit Edit) (EditResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditResult{}, ErrReadOnly
	}
	oldText := e.buf.TextRange(edit.Range.Start, edit.Range.End)
	outcome, err := e.pipe.Apply(pipeline.Replace{Range: edit.Range, Text: edit.NewText}, pipeline.Local)
	if err != nil {
		return EditResult{}, err
	}
	if len(outcome.Changes) == 0 {
		return EditResult{OldRange: edit.Range, NewRange: edit.Range, OldText: oldText}, nil
	}
	cs := outcome.Changes[0]
	newEnd := cs.StartByte + ByteOffset(len(cs.NewText))
	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: cs.StartByte, End: newEnd},
		OldText:  oldText,
		Delta:    int64(len(cs.NewText)) - int64(edit.Range.Len()),
	}, nil
}

// ApplyEdits applies multiple edits atomically, as a single undo step.
// Edits must be in reverse order (highest offset first), matching the
// buffer package's own ApplyEdits contract.
func (e *Engine) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	cmds := make([]EditCommand, len(edits))
	for i, edit := range edits {
		cmds[i] = pipeline.Replace{Range: edit.Range, Text: edit.NewText}
	}
	_, err := e.pipe.Apply(pipeline.Batch{Commands: cmds}, pipeline.Local)
	return err
}

// IndentLines shifts the indentation of the named lines in or out by one
// level, as a single undo step.
func (e *Engine) IndentLines(lines []uint32, direction IndentDirection, width int, useSpaces bool) (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Apply(pipeline.IndentLines{Lines: lines, Direction: direction, Width: width, UseSpaces: useSpaces}, pipeline.Local)
}

// TransformCase rewrites the case of the text in the given range.
func (e *Engine) TransformCase(start, end ByteOffset, kind CaseKind) (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Apply(pipeline.TransformCase{Range: Range{Start: start, End: end}, Case: kind}, pipeline.Local)
}

// Apply runs cmd through the pipeline with an explicit origin, the
// low-level entry point external callers (a future CRDT integration using
// OriginRemote, or swap-log recovery using OriginReplay) use directly.
func (e *Engine) Apply(cmd EditCommand, origin Origin) (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly && origin == pipeline.Local {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Apply(cmd, origin)
}

// endOffsetOf returns the end byte offset of an Insert/Replace outcome's
// single change span, falling back to fallback if the command was a no-op
// (e.g. inserting "" produced no reported change).
func endOffsetOf(outcome EditOutcome, fallback ByteOffset) ByteOffset {
	if len(outcome.Changes) == 0 {
		return fallback
	}
	cs := outcome.Changes[0]
	return cs.StartByte + ByteOffset(len(cs.NewText))
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverses the commit at the undo tree's current node.
func (e *Engine) Undo() (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Undo()
}

// Redo re-applies the current node's default child.
func (e *Engine) Redo() (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Redo()
}

// Jump moves the undo tree to an arbitrary node, undoing and redoing along
// the path between the current position and id.
func (e *Engine) Jump(id NodeID) (EditOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return EditOutcome{}, ErrReadOnly
	}
	return e.pipe.Jump(id)
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// UndoCount returns the number of nodes between the tree root and the
// current position.
func (e *Engine) UndoCount() int { return e.hist.UndoCount() }

// RedoCount returns the number of children reachable from the current
// node by repeated Redo.
func (e *Engine) RedoCount() int { return e.hist.RedoCount() }

// CurrentNodeID returns the undo tree's current node, for later Jump calls.
func (e *Engine) CurrentNodeID() NodeID { return e.hist.CurrentNodeID() }

// Children returns the child node IDs branching from id, for presenting a
// history browser UI.
func (e *Engine) Children(id NodeID) ([]NodeID, error) { return e.hist.Children(id) }

// BeginUndoGroup starts a new undo group. All edits until EndUndoGroup will
// be undone as a single unit.
func (e *Engine) BeginUndoGroup(name string) { e.hist.BeginGroup(name) }

// EndUndoGroup ends the current undo group.
func (e *Engine) EndUndoGroup() { e.hist.EndGroup() }

// CancelUndoGroup cancels the current undo group without recording it.
func (e *Engine) CancelUndoGroup() { e.hist.CancelGroup() }

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() { e.hist.Clear() }

// ============================================================================
// Cursor Operations
// ============================================================================

// Cursors returns a clone of the cursor set, safe to read without holding
// the engine's lock.
func (e *Engine) Cursors() *cursor.CursorSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors.Clone()
}

// SetCursors replaces the cursor set.
func (e *Engine) SetCursors(cs *cursor.CursorSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors = cs.Clone()
	e.pipe = pipeline.New(e.buf, e.cursors, e.hist, e.idx, e.swapWriterOrNil(), e.bc, e.cfg.Logger)
	e.stickyValid = false
}

// PrimaryCursor returns the primary cursor offset.
func (e *Engine) PrimaryCursor() ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors.PrimaryCursor()
}

// PrimarySelection returns the primary selection.
func (e *Engine) PrimarySelection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors.Primary()
}

// SetPrimaryCursor sets the primary cursor position.
func (e *Engine) SetPrimaryCursor(offset ByteOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Set(cursor.NewCursorSelection(offset))
	e.stickyValid = false
}

// SetPrimarySelection sets the primary selection.
func (e *Engine) SetPrimarySelection(sel Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Set(sel)
	e.stickyValid = false
}

// CursorCount returns the number of cursors.
func (e *Engine) CursorCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors.Count()
}

// HasMultipleCursors returns true if there are multiple cursors.
func (e *Engine) HasMultipleCursors() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursors.IsMulti()
}

// AddCursor adds a new cursor at the given offset.
func (e *Engine) AddCursor(offset ByteOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Add(cursor.NewCursorSelection(offset))
}

// AddSelection adds a new selection.
func (e *Engine) AddSelection(sel Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Add(sel)
}

// ClearSecondary removes all cursors except the primary.
func (e *Engine) ClearSecondary() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Clear()
}

// ClampCursors ensures all cursors are within valid buffer range and sit on
// a UTF-8 code point boundary (spec §4.2), in case a caller moved a cursor
// directly rather than through an edit or motion that already guarantees it.
func (e *Engine) ClampCursors() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors.Clamp(e.buf.Len())
	e.cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		return sel.ClampToCharBoundary(e.buf)
	})
}

// ============================================================================
// Search
// ============================================================================

// SetSearchQuery installs q as the active search query and performs an
// initial full-buffer scan. A nil query clears the index.
func (e *Engine) SetSearchQuery(q *SearchQuery) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx.SetQuery(q, e.buf)
}

// SearchMatches returns the active query's current match list.
func (e *Engine) SearchMatches() []SearchMatch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Matches()
}

// SearchNext advances to and returns the next match, wrapping at the end.
func (e *Engine) SearchNext() (SearchMatch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.Next()
}

// SearchPrev moves to and returns the previous match, wrapping at the start.
func (e *Engine) SearchPrev() (SearchMatch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.Prev()
}

// ClearSearch removes the active query and all matches.
func (e *Engine) ClearSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx.Clear()
}

// ============================================================================
// Events
// ============================================================================

// Subscribe returns a receiver of every EditEvent published after a
// committed edit, undo, redo, or jump. Callers must drain or Close it.
func (e *Engine) Subscribe() EventReceiver {
	return e.bc.Subscribe()
}

// ============================================================================
// Swap log (crash recovery)
// ============================================================================

// OpenSwapLog starts a background swap-log writer for the engine's
// associated file path, so every subsequent commit is journaled for crash
// recovery (spec §4.6). Requires SetPath/WithPath to have set a path.
func (e *Engine) OpenSwapLog() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.buf.Path()
	if path == "" {
		return ErrNoPath
	}
	hash, err := swap.HashFile(path)
	if err != nil {
		// A brand new, not-yet-saved file has no on-disk content to hash.
		hash = e.buf.ContentHash()
	}
	w, err := swap.NewWriter(path, hash, e.cfg.SwapFlushInterval, e.cfg.SwapChannelBuffer, e.cfg.Logger)
	if err != nil {
		return err
	}
	e.swapW = w
	e.pipe.SetSwapWriter(w)
	return nil
}

// CloseSwapLog flushes and stops the swap-log writer without removing the
// journal file (used on a clean shutdown where the caller isn't sure the
// content has just been saved).
func (e *Engine) CloseSwapLog() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.swapW == nil {
		return nil
	}
	err := e.swapW.Close()
	e.pipe.SetSwapWriter(nil)
	e.swapW = nil
	return err
}

// DiscardSwapLog stops the swap-log writer and deletes its journal file,
// called once the buffer's content has been durably saved to its real
// path.
func (e *Engine) DiscardSwapLog() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.swapW == nil {
		return nil
	}
	err := e.swapW.Delete()
	e.pipe.SetSwapWriter(nil)
	e.swapW = nil
	return err
}

// RecoverFromSwap replays every command recorded in the swap log for the
// engine's associated path, applying each with OriginReplay so the replay
// itself is not re-journaled or recorded as a new undo-tree node. It
// returns the number of commands successfully replayed.
func (e *Engine) RecoverFromSwap() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.buf.Path()
	if path == "" {
		return 0, ErrNoPath
	}
	return swap.Replay(path, func(cmd pipeline.EditCommand) error {
		_, err := e.pipe.Apply(cmd, pipeline.Replay)
		return err
	})
}

func (e *Engine) swapWriterOrNil() pipeline.SwapWriter {
	if e.swapW == nil {
		return nil
	}
	return e.swapW
}

// ============================================================================
// Configuration
// ============================================================================

// TabWidth returns the tab width.
func (e *Engine) TabWidth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.TabWidth()
}

// SetTabWidth sets the tab width.
func (e *Engine) SetTabWidth(width int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.SetTabWidth(width)
}

// LineEnding returns the line ending style.
func (e *Engine) LineEnding() LineEnding {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineEnding()
}

// SetLineEnding sets the line ending style.
func (e *Engine) SetLineEnding(ending LineEnding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.SetLineEnding(ending)
}

// Path returns the buffer's associated file path, or "" for an unnamed
// buffer.
func (e *Engine) Path() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Path()
}

// SetPath sets the buffer's associated file path.
func (e *Engine) SetPath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.SetPath(path)
}

// MarkSaved records the buffer's current content hash as the saved
// baseline, so IsDirty reports false until the next edit.
func (e *Engine) MarkSaved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.MarkSaved()
}

// IsReadOnly returns true if the engine is read-only.
func (e *Engine) IsReadOnly() bool { return e.readOnly }

// RevisionID returns the current buffer revision.
func (e *Engine) RevisionID() RevisionID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.RevisionID()
}

// ============================================================================
// Buffer Snapshot
// ============================================================================

// Snapshot returns a read-only snapshot of the current buffer state, safe
// to read concurrently with further engine writes.
func (e *Engine) Snapshot() *buffer.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Snapshot()
}

// ============================================================================
// Clear and Reset
// ============================================================================

// Clear removes all content from the buffer and resets history, search,
// and cursors. The swap log, if open, is left running.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	if e.buf.Len() > 0 {
		if err := e.buf.Delete(0, e.buf.Len()); err != nil {
			return err
		}
	}
	e.resetAfterContentReplace()
	return nil
}

// SetContent replaces all content and resets history, search, and cursors.
func (e *Engine) SetContent(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	if _, err := e.buf.Replace(0, e.buf.Len(), content); err != nil {
		return err
	}
	e.resetAfterContentReplace()
	return nil
}

func (e *Engine) resetAfterContentReplace() {
	e.cursors = cursor.NewCursorSetAt(0)
	e.hist.Clear()
	e.idx.Clear()
	e.pipe = pipeline.New(e.buf, e.cursors, e.hist, e.idx, e.swapWriterOrNil(), e.bc, e.cfg.Logger)
}
