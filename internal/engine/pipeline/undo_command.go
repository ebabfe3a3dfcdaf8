package pipeline

import (
	"unicode/utf8"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/cursor"
	"github.com/smashed/core/internal/engine/history"
)

// undoCommand is the history.Command the pipeline records for every
// Local/Remote commit. It replays one or more already-applied spans
// forward (Execute, used by Redo) or backward (Undo), and restores the
// cursor snapshot captured on the matching side.
type undoCommand struct {
	spans         []appliedSpan
	cursorsBefore []cursor.Selection
	cursorsAfter  []cursor.Selection
	label         string
}

// Execute re-applies every span forward, in the order it was first
// applied, and restores the post-edit cursor state. Used by History.Redo.
func (c *undoCommand) Execute(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	for _, s := range c.spans {
		if _, err := buf.Replace(s.oldRange.Start, s.oldRange.End, s.newText); err != nil {
			return err
		}
	}
	cursors.SetAll(c.cursorsAfter)
	return nil
}

// Undo reverses every span in reverse order and restores the pre-edit
// cursor state. Used by History.Undo.
func (c *undoCommand) Undo(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	for i := len(c.spans) - 1; i >= 0; i-- {
		s := c.spans[i]
		if _, err := buf.Replace(s.newRange.Start, s.newRange.End, s.oldText); err != nil {
			return err
		}
	}
	cursors.SetAll(c.cursorsBefore)
	return nil
}

// Description returns a human-readable label for the undo/redo UI.
func (c *undoCommand) Description() string {
	return c.label
}

// MemSize reports the retained undo-text size the history tree's pruning
// budget should charge this node for (the history package's sizedCommand
// interface).
func (c *undoCommand) MemSize() int64 {
	var n int64
	for _, s := range c.spans {
		n += int64(len(s.oldText)) + int64(len(s.newText))
	}
	return n
}

// TypingSpan implements history.Typed: a single-span, pure-insert
// undoCommand whose new text is exactly one code point is a candidate for
// Push's typing-coalescing heuristic (spec §4.3). Anything else -- a
// delete, a replace, a multi-span Batch, a multi-rune paste -- opts out.
func (c *undoCommand) TypingSpan() (start, end buffer.ByteOffset, ok bool) {
	if len(c.spans) != 1 {
		return 0, 0, false
	}
	s := c.spans[0]
	if s.oldText != "" {
		return 0, 0, false
	}
	if utf8.RuneCountInString(s.newText) != 1 {
		return 0, 0, false
	}
	return s.oldRange.Start, s.newRange.End, true
}

// MergeTyping implements history.Mergeable, folding a following
// single-character insert into the receiver so one undo/redo step covers
// both keystrokes. Only merges with another *undoCommand (the only
// concrete type the pipeline ever hands to history.Push).
func (c *undoCommand) MergeTyping(next history.Command) (history.Command, bool) {
	n, ok := next.(*undoCommand)
	if !ok || len(n.spans) != 1 {
		return nil, false
	}
	return &undoCommand{
		spans:         append(append([]appliedSpan{}, c.spans...), n.spans...),
		cursorsBefore: c.cursorsBefore,
		cursorsAfter:  n.cursorsAfter,
		label:         c.label,
	}, true
}
