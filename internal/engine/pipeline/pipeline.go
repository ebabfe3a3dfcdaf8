package pipeline

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/cursor"
	"github.com/smashed/core/internal/engine/history"
	"github.com/smashed/core/internal/engine/search"
)

// SwapWriter is the durability seam the pipeline appends committed commands
// to. It is satisfied by *swap.Writer; pipeline never imports the swap
// package directly to avoid a dependency cycle (swap imports pipeline for
// the EditCommand/Origin types its replay path reconstructs).
type SwapWriter interface {
	Append(cmd EditCommand) error
}

// span is one resolved, order-independent byte-range replacement a command
// expands into before being applied to the rope.
type span struct {
	Range Range
	Text  string
}

// appliedSpan records enough about one already-applied span to undo or
// redo it later.
type appliedSpan struct {
	oldRange Range
	newRange Range
	oldText  string
	newText  string
}

// Pipeline is the editing core's sole mutation entry point (spec §4.2). It
// owns no state beyond references to the buffer and its sub-components;
// the Engine facade owns the Pipeline and serializes calls into it (single
// edit thread, no internal locking here).
type Pipeline struct {
	buf     *buffer.Buffer
	cursors *cursor.CursorSet
	hist    *history.History
	idx     *search.Index
	swap    SwapWriter
	bc      *Broadcaster
	logger  *slog.Logger
}

// New builds a Pipeline over already-constructed sub-components. idx, swap,
// and bc may be nil (no active search, no swap log, no subscribers).
func New(buf *buffer.Buffer, cursors *cursor.CursorSet, hist *history.History, idx *search.Index, sw SwapWriter, bc *Broadcaster, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{buf: buf, cursors: cursors, hist: hist, idx: idx, swap: sw, bc: bc, logger: logger}
}

// SetSwapWriter installs (or clears, with nil) the swap log destination.
func (p *Pipeline) SetSwapWriter(sw SwapWriter) { p.swap = sw }

// Apply runs cmd through the full pipeline: validate, apply, remap cursors,
// record history, append to the swap log, update dirty/revision, and
// publish an EditEvent. Any validation failure leaves the buffer exactly
// as it was; either the whole command commits or none of it does.
func (p *Pipeline) Apply(cmd EditCommand, origin Origin) (EditOutcome, error) {
	spans, label, err := resolve(p.buf, cmd)
	if err != nil {
		return EditOutcome{}, err
	}
	if len(spans) == 0 {
		return EditOutcome{Revision: p.buf.RevisionID(), Dirty: p.buf.IsDirty(), Committed: false}, nil
	}

	cursorsBefore := p.cursors.All()
	applied, err := p.applySpans(spans)
	if err != nil {
		return EditOutcome{}, err
	}
	cursorsAfter := p.cursors.All()

	var nodeID history.NodeID
	if origin.RecordsHistory() {
		commitOrigin := history.CommitOther
		if origin == Local {
			commitOrigin = history.CommitLocal
		}
		p.hist.PushFromOrigin(&undoCommand{
			spans:         applied,
			cursorsBefore: cursorsBefore,
			cursorsAfter:  cursorsAfter,
			label:         label,
		}, commitOrigin)
		nodeID = p.hist.CurrentNodeID()
	}

	if p.swap != nil {
		if err := p.swap.Append(cmd); err != nil {
			p.logger.Warn("pipeline: swap log append failed, edit remains durable only in memory", "error", err)
		}
	}

	changes := make([]ChangeSpan, len(applied))
	for i, a := range applied {
		changes[i] = ChangeSpan{StartByte: a.oldRange.Start, OldLen: a.oldRange.Len(), NewText: a.newText}
	}

	if p.idx != nil {
		for _, a := range applied {
			p.idx.OnEdit(p.buf, a.oldRange.Start, a.oldRange.Len(), ByteOffset(len(a.newText)))
		}
	}

	rev := p.buf.RevisionID()
	dirty := p.buf.IsDirty()

	if p.bc != nil {
		p.bc.Publish(EditEvent{Revision: rev, Origin: origin, Changes: changes})
	}

	return EditOutcome{Revision: rev, NodeID: uint64(nodeID), Changes: changes, Dirty: dirty, Committed: true}, nil
}

// applySpans applies each span to the rope in order, remapping cursors
// after each one. If any span fails to apply, every span applied so far is
// undone in reverse order and the cursor set is restored, so the failure
// leaves no observable trace (spec: "partial Batch application is not
// observable").
func (p *Pipeline) applySpans(spans []span) ([]appliedSpan, error) {
	cursorsBefore := p.cursors.All()
	applied := make([]appliedSpan, 0, len(spans))

	for _, sp := range spans {
		if err := checkRange(p.buf, sp.Range); err != nil {
			p.rollback(applied, cursorsBefore)
			return nil, err
		}
		oldText := p.buf.TextRange(sp.Range.Start, sp.Range.End)
		newEnd, err := p.buf.Replace(sp.Range.Start, sp.Range.End, sp.Text)
		if err != nil {
			p.rollback(applied, cursorsBefore)
			return nil, mapBufferErr(err)
		}
		applied = append(applied, appliedSpan{
			oldRange: sp.Range,
			newRange: Range{Start: sp.Range.Start, End: newEnd},
			oldText:  oldText,
			newText:  sp.Text,
		})
		cursor.TransformCursorSet(p.cursors, buffer.Edit{Range: sp.Range, NewText: sp.Text})
	}

	return applied, nil
}

// rollback undoes every already-applied span in reverse order and restores
// the pre-command cursor set, so a mid-batch failure is never observable.
func (p *Pipeline) rollback(applied []appliedSpan, cursorsBefore []cursor.Selection) {
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		if _, err := p.buf.Replace(a.newRange.Start, a.newRange.End, a.oldText); err != nil {
			p.logger.Error("pipeline: rollback of already-applied span failed; buffer state may be inconsistent", "error", err)
		}
	}
	p.cursors.SetAll(cursorsBefore)
}

// checkRange validates r against buf, distinguishing the two ways a range
// can be rejected per spec §4.1/§7: ErrOutOfBounds when an endpoint falls
// past the buffer's current length, ErrInvalidRange when start > end or an
// endpoint would split a UTF-8 code point.
func checkRange(buf *buffer.Buffer, r Range) error {
	if r.End < r.Start {
		return ErrInvalidRange
	}
	if r.Start < 0 || r.Start > buf.Len() || r.End > buf.Len() {
		return ErrOutOfBounds
	}
	if !isBoundary(buf, r.Start) || !isBoundary(buf, r.End) {
		return ErrInvalidRange
	}
	return nil
}

// isBoundary reports whether offset lies on a UTF-8 code-point boundary:
// the buffer start/end, or a byte that is not a continuation byte.
func isBoundary(buf *buffer.Buffer, offset ByteOffset) bool {
	if offset == 0 || offset == buf.Len() {
		return true
	}
	b, ok := buf.ByteAt(offset)
	if !ok {
		return false
	}
	return b&0xC0 != 0x80
}

func mapBufferErr(err error) error {
	switch err {
	case buffer.ErrOffsetOutOfRange:
		return ErrOutOfBounds
	case buffer.ErrRangeInvalid, buffer.ErrEditsOverlap:
		return ErrInvalidRange
	default:
		return err
	}
}

// resolve expands cmd into an ordered list of non-overlapping spans to
// apply against buf's current content, plus a human-readable label for the
// resulting undo node. For Batch, each sub-command is resolved and applied
// against a scratch copy of buf in turn, so a later sub-command sees the
// effect of earlier ones (the spec's "evolving rope state") without
// mutating buf itself; the combined span list is what Apply's own
// applySpans call then replays against the real buffer.
func resolve(buf *buffer.Buffer, cmd EditCommand) ([]span, string, error) {
	switch c := cmd.(type) {
	case Insert:
		return []span{{Range: Range{Start: c.Position, End: c.Position}, Text: c.Text}}, "Insert", nil
	case Delete:
		if !c.Range.IsValid() {
			return nil, "", ErrInvalidRange
		}
		return []span{{Range: c.Range, Text: ""}}, "Delete", nil
	case Replace:
		if !c.Range.IsValid() {
			return nil, "", ErrInvalidRange
		}
		return []span{{Range: c.Range, Text: c.Text}}, "Replace", nil
	case IndentLines:
		spans, err := resolveIndent(buf, c)
		return spans, "Indent", err
	case TransformCase:
		spans, err := resolveCase(buf, c)
		return spans, "Transform Case", err
	case Batch:
		spans, err := resolveBatch(buf, c)
		return spans, "Batch", err
	default:
		return nil, "", ErrUnknownCommand
	}
}

// resolveBatch validates and resolves each sub-command in turn against a
// scratch copy of buf (Rope is an immutable value, so copying Buffer is a
// cheap, fully independent snapshot: later scratch.Replace calls build new
// Rope values and never touch buf's). The returned spans, applied in order
// against the real buffer, reproduce exactly what resolving against the
// scratch produced.
func resolveBatch(buf *buffer.Buffer, c Batch) ([]span, error) {
	scratch := *buf
	var all []span
	for _, sub := range c.Commands {
		spans, _, err := resolve(&scratch, sub)
		if err != nil {
			return nil, err
		}
		for _, sp := range spans {
			if err := checkRange(&scratch, sp.Range); err != nil {
				return nil, err
			}
			if _, err := scratch.Replace(sp.Range.Start, sp.Range.End, sp.Text); err != nil {
				return nil, mapBufferErr(err)
			}
			all = append(all, sp)
		}
	}
	return all, nil
}

// resolveIndent expands an IndentLines command into one span per named
// line: IndentIn prepends a tab (or Width spaces), IndentOut strips up to
// one indent level from the line's start.
func resolveIndent(buf *buffer.Buffer, c IndentLines) ([]span, error) {
	spans := make([]span, 0, len(c.Lines))
	for _, line := range c.Lines {
		start := buf.LineStartOffset(line)
		switch c.Direction {
		case IndentIn:
			text := "\t"
			if c.UseSpaces {
				width := c.Width
				if width <= 0 {
					width = 4
				}
				text = strings.Repeat(" ", width)
			}
			spans = append(spans, span{Range: Range{Start: start, End: start}, Text: text})
		case IndentOut:
			end := buf.LineEndOffset(line)
			lineText := buf.TextRange(start, end)
			trim := leadingIndentLen(lineText, c.Width)
			if trim > 0 {
				spans = append(spans, span{Range: Range{Start: start, End: start + ByteOffset(trim)}, Text: ""})
			}
		}
	}
	// Every span's Range was computed against buf's original, unmutated
	// offsets. applySpans replays spans in order against the real buffer,
	// so an earlier (lower-offset) span applied first would shift every
	// later span's stale offset out from under it. Applying highest offset
	// first avoids that: no edit ever touches content below its own start,
	// so descending order leaves every not-yet-applied span's offset valid.
	sort.Slice(spans, func(i, j int) bool { return spans[i].Range.Start > spans[j].Range.Start })
	return spans, nil
}

// leadingIndentLen returns how many leading bytes of line to strip for one
// dedent level: one tab, or up to width spaces, whichever the line starts
// with.
func leadingIndentLen(line string, width int) int {
	if width <= 0 {
		width = 4
	}
	if strings.HasPrefix(line, "\t") {
		return 1
	}
	n := 0
	for n < len(line) && n < width && line[n] == ' ' {
		n++
	}
	return n
}

// resolveCase expands a TransformCase command into a single span covering
// its range, with the new text computed according to Case.
func resolveCase(buf *buffer.Buffer, c TransformCase) ([]span, error) {
	if !c.Range.IsValid() {
		return nil, ErrInvalidRange
	}
	text := buf.TextRange(c.Range.Start, c.Range.End)
	return []span{{Range: c.Range, Text: applyCase(text, c.Case)}}, nil
}

func applyCase(s string, kind CaseKind) string {
	switch kind {
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseLower:
		return strings.ToLower(s)
	case CaseTitle:
		return titleCase(s)
	case CaseToggle:
		return toggleCase(s)
	default:
		return s
	}
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	atWordStart := true
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			atWordStart = true
			b.WriteRune(r)
			continue
		}
		if atWordStart {
			b.WriteRune(unicode.ToUpper(r))
			atWordStart = false
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func toggleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLower(r):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
