package pipeline

import "github.com/smashed/core/internal/engine/history"

// Undo reverses the commit at the undo tree's current node and moves the
// pointer to its parent. Like Apply, it still appends to the swap log,
// updates the search index, and publishes an EditEvent (tagged Origin ==
// Undo) -- it just never creates a new undo-tree node, since Undo *is* the
// tree operation.
func (p *Pipeline) Undo() (EditOutcome, error) {
	cmd, err := p.hist.UndoWithCommand(p.buf, p.cursors)
	if err != nil {
		return EditOutcome{}, err
	}
	return p.afterHistoryMove(cmd, false, Undo)
}

// Redo re-applies the commit at the current node's last-visited child and
// advances the pointer to it.
func (p *Pipeline) Redo() (EditOutcome, error) {
	cmd, err := p.hist.RedoWithCommand(p.buf, p.cursors)
	if err != nil {
		return EditOutcome{}, err
	}
	return p.afterHistoryMove(cmd, true, Undo)
}

// Jump walks the tree from the current node to id, undoing upward and
// redoing downward, then runs the same post-move bookkeeping Undo/Redo do.
// Because Jump can touch many nodes in one call, the search index is
// refreshed with a full rescan afterward rather than incrementally, and the
// EditEvent reports the whole buffer as changed.
func (p *Pipeline) Jump(id history.NodeID) (EditOutcome, error) {
	if err := p.hist.Jump(id, p.buf, p.cursors); err != nil {
		return EditOutcome{}, err
	}

	if p.idx != nil {
		p.idx.SetQuery(p.idx.Query(), p.buf)
	}

	rev := p.buf.RevisionID()
	changes := []ChangeSpan{{StartByte: 0, OldLen: 0, NewText: p.buf.Text()}}
	if p.bc != nil {
		p.bc.Publish(EditEvent{Revision: rev, Origin: Undo, Changes: changes})
	}
	return EditOutcome{Revision: rev, NodeID: uint64(id), Changes: changes, Dirty: p.buf.IsDirty(), Committed: true}, nil
}

// afterHistoryMove runs the swap-log append, search-index maintenance, and
// EditEvent publication shared by Undo and Redo, once the tree has already
// moved and the buffer already reflects the new state.
func (p *Pipeline) afterHistoryMove(cmd history.Command, forward bool, origin Origin) (EditOutcome, error) {
	uc, ok := cmd.(*undoCommand)
	if !ok {
		// Defensive: every command the pipeline itself ever pushes is an
		// *undoCommand. Fall back to a whole-buffer change report.
		rev := p.buf.RevisionID()
		changes := []ChangeSpan{{StartByte: 0, OldLen: 0, NewText: p.buf.Text()}}
		if p.idx != nil {
			p.idx.SetQuery(p.idx.Query(), p.buf)
		}
		if p.bc != nil {
			p.bc.Publish(EditEvent{Revision: rev, Origin: origin, Changes: changes})
		}
		return EditOutcome{Revision: rev, Changes: changes, Dirty: p.buf.IsDirty(), Committed: true}, nil
	}

	changes := make([]ChangeSpan, 0, len(uc.spans))
	order := uc.spans
	if !forward {
		// Undo replays spans back-to-front; report them in the same order
		// they were actually reapplied to the rope.
		order = make([]appliedSpan, len(uc.spans))
		for i, s := range uc.spans {
			order[len(uc.spans)-1-i] = s
		}
	}
	for _, s := range order {
		var cs ChangeSpan
		if forward {
			cs = ChangeSpan{StartByte: s.oldRange.Start, OldLen: s.oldRange.Len(), NewText: s.newText}
		} else {
			cs = ChangeSpan{StartByte: s.newRange.Start, OldLen: s.newRange.Len(), NewText: s.oldText}
		}
		changes = append(changes, cs)
		if p.idx != nil {
			p.idx.OnEdit(p.buf, cs.StartByte, cs.OldLen, ByteOffset(len(cs.NewText)))
		}
	}

	if p.swap != nil {
		if err := p.swap.Append(reconstructCommand(order, forward)); err != nil {
			p.logger.Warn("pipeline: swap log append failed on undo/redo", "error", err)
		}
	}

	rev := p.buf.RevisionID()
	if p.bc != nil {
		p.bc.Publish(EditEvent{Revision: rev, Origin: origin, Changes: changes})
	}
	return EditOutcome{Revision: rev, Changes: changes, Dirty: p.buf.IsDirty(), Committed: true}, nil
}

// reconstructCommand rebuilds an EditCommand describing an undo/redo move,
// so swap-log replay can reproduce it without needing its own notion of the
// undo tree: a Batch of Replace commands, applied in the same order the
// spans were actually reapplied to the rope.
func reconstructCommand(order []appliedSpan, forward bool) EditCommand {
	cmds := make([]EditCommand, len(order))
	for i, s := range order {
		if forward {
			cmds[i] = Replace{Range: s.oldRange, Text: s.newText}
		} else {
			cmds[i] = Replace{Range: s.newRange, Text: s.oldText}
		}
	}
	return Batch{Commands: cmds}
}
