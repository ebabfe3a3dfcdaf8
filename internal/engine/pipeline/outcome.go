package pipeline

import "github.com/smashed/core/internal/engine/buffer"

// EditOutcome describes the net effect of a committed EditCommand: the
// resulting revision, the undo-tree node the commit produced (zero for
// Undo/Replay origins, which do not create new nodes), and the list of
// contiguous spans that changed -- the same data published in the
// subsequent EditEvent.
type EditOutcome struct {
	Revision  buffer.RevisionID
	NodeID    uint64
	Changes   []ChangeSpan
	Dirty     bool
	Committed bool // false for a no-op command that produced no span edits
}
