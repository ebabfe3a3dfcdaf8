package pipeline

import (
	"testing"
	"time"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/cursor"
	"github.com/smashed/core/internal/engine/history"
)

func newTestPipeline(content string) (*Pipeline, *buffer.Buffer) {
	buf := buffer.NewBufferFromString(content)
	cursors := cursor.NewCursorSetAt(0)
	hist := history.NewHistory(10000)
	p := New(buf, cursors, hist, nil, nil, nil, nil)
	return p, buf
}

func TestApplyInsert(t *testing.T) {
	p, buf := newTestPipeline("abc")
	out, err := p.Apply(Insert{Position: 1, Text: "XY"}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Committed {
		t.Fatal("expected Committed true")
	}
	if buf.Text() != "aXYbc" {
		t.Fatalf("Text() = %q, want %q", buf.Text(), "aXYbc")
	}
}

func TestApplyDeleteInvalidRange(t *testing.T) {
	p, buf := newTestPipeline("abc")
	_, err := p.Apply(Delete{Range: Range{Start: 2, End: 1}}, Local)
	if err != ErrInvalidRange {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	if buf.Text() != "abc" {
		t.Fatalf("buffer mutated on validation failure: %q", buf.Text())
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	p, buf := newTestPipeline("abc")
	_, err := p.Apply(Insert{Position: 99, Text: "x"}, Local)
	if err != ErrOutOfBounds {
		t.Fatalf("err = %v, want ErrOutOfBounds for offset past buffer length", err)
	}
	if buf.Text() != "abc" {
		t.Fatalf("buffer mutated on validation failure: %q", buf.Text())
	}
}

func TestApplyMidCodepointRejected(t *testing.T) {
	p, buf := newTestPipeline("héllo") // 'é' is 2 bytes at offset 1-3
	_, err := p.Apply(Delete{Range: Range{Start: 2, End: 4}}, Local)
	if err != ErrInvalidRange {
		t.Fatalf("err = %v, want ErrInvalidRange for mid-codepoint range", err)
	}
	if buf.Text() != "héllo" {
		t.Fatalf("buffer mutated on validation failure: %q", buf.Text())
	}
}

func newGroupingTestPipeline(content string, interval time.Duration) (*Pipeline, *buffer.Buffer, *history.History) {
	buf := buffer.NewBufferFromString(content)
	cursors := cursor.NewCursorSetAt(0)
	hist := history.NewHistory(10000).WithGroupingInterval(interval)
	p := New(buf, cursors, hist, nil, nil, nil, nil)
	return p, buf, hist
}

func TestApplyCoalescesAdjacentLocalTyping(t *testing.T) {
	p, buf, hist := newGroupingTestPipeline("", 500*time.Millisecond)

	if _, err := p.Apply(Insert{Position: 0, Text: "a"}, Local); err != nil {
		t.Fatalf("Apply 'a': %v", err)
	}
	if _, err := p.Apply(Insert{Position: 1, Text: "b"}, Local); err != nil {
		t.Fatalf("Apply 'b': %v", err)
	}
	if buf.Text() != "ab" {
		t.Fatalf("Text() = %q, want %q", buf.Text(), "ab")
	}

	// Two adjacent single-character Local inserts within the grouping
	// interval must coalesce into a single undo node (spec §4.3).
	if got := hist.UndoCount(); got != 1 {
		t.Fatalf("UndoCount() = %d, want 1 (adjacent keystrokes should merge)", got)
	}

	if err := hist.Undo(buf, p.cursors); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if buf.Text() != "" {
		t.Fatalf("after single Undo, Text() = %q, want empty (both keystrokes undone together)", buf.Text())
	}
}

func TestApplyDoesNotCoalesceNonAdjacentTyping(t *testing.T) {
	p, buf, hist := newGroupingTestPipeline("ab", 500*time.Millisecond)

	// Insert at position 0, then at position 2: not adjacent to the first
	// insert's end, so the two commits must stay distinct undo nodes.
	if _, err := p.Apply(Insert{Position: 0, Text: "x"}, Local); err != nil {
		t.Fatalf("Apply 'x': %v", err)
	}
	if _, err := p.Apply(Insert{Position: 2, Text: "y"}, Local); err != nil {
		t.Fatalf("Apply 'y': %v", err)
	}
	if buf.Text() != "xayb" {
		t.Fatalf("Text() = %q, want %q", buf.Text(), "xayb")
	}

	if got := hist.UndoCount(); got != 2 {
		t.Fatalf("UndoCount() = %d, want 2 (non-adjacent inserts must not merge)", got)
	}
}

func TestApplyDoesNotCoalesceAcrossOrigins(t *testing.T) {
	p, buf, hist := newGroupingTestPipeline("", 500*time.Millisecond)

	if _, err := p.Apply(Insert{Position: 0, Text: "a"}, Local); err != nil {
		t.Fatalf("Apply 'a': %v", err)
	}
	if _, err := p.Apply(Insert{Position: 1, Text: "b"}, Remote); err != nil {
		t.Fatalf("Apply 'b' (remote): %v", err)
	}
	if buf.Text() != "ab" {
		t.Fatalf("Text() = %q, want %q", buf.Text(), "ab")
	}

	// A remote commit must never merge with surrounding local typing, even
	// when adjacent and within the grouping interval.
	if got := hist.UndoCount(); got != 2 {
		t.Fatalf("UndoCount() = %d, want 2 (remote commit must not merge with local typing)", got)
	}
}

func TestApplyBatchAtomic(t *testing.T) {
	p, buf := newTestPipeline("abcdef")
	batch := Batch{Commands: []EditCommand{
		Insert{Position: 0, Text: "X"},
		Delete{Range: Range{Start: 100, End: 200}}, // out of bounds: whole batch must fail
	}}
	_, err := p.Apply(batch, Local)
	if err == nil {
		t.Fatal("expected batch to fail")
	}
	if buf.Text() != "abcdef" {
		t.Fatalf("partial batch application observed: %q", buf.Text())
	}
}

func TestApplyBatchSuccess(t *testing.T) {
	p, buf := newTestPipeline("abcdef")
	batch := Batch{Commands: []EditCommand{
		Insert{Position: 0, Text: "X"},
		Insert{Position: 7, Text: "Y"}, // evolving rope state: offset 7 is valid only after the first insert
	}}
	out, err := p.Apply(batch, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Committed {
		t.Fatal("expected Committed true")
	}
	if buf.Text() != "XabcdefY" {
		t.Fatalf("Text() = %q, want %q", buf.Text(), "XabcdefY")
	}
}

func TestApplyUndoOriginDoesNotRecordHistory(t *testing.T) {
	p, _ := newTestPipeline("abc")
	out, err := p.Apply(Insert{Position: 0, Text: "X"}, Undo)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.NodeID != 0 {
		t.Errorf("NodeID = %d, want 0 for Undo-origin edit", out.NodeID)
	}
}

func TestApplyTransformCaseUpper(t *testing.T) {
	p, buf := newTestPipeline("hello world")
	_, err := p.Apply(TransformCase{Range: Range{Start: 0, End: 5}, Case: CaseUpper}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Text() != "HELLO world" {
		t.Fatalf("Text() = %q", buf.Text())
	}
}

func TestApplyTransformCaseTitle(t *testing.T) {
	p, buf := newTestPipeline("hello world")
	_, err := p.Apply(TransformCase{Range: Range{Start: 0, End: 11}, Case: CaseTitle}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Text() != "Hello World" {
		t.Fatalf("Text() = %q", buf.Text())
	}
}

func TestApplyTransformCaseToggle(t *testing.T) {
	p, buf := newTestPipeline("Hello World")
	_, err := p.Apply(TransformCase{Range: Range{Start: 0, End: 11}, Case: CaseToggle}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Text() != "hELLO wORLD" {
		t.Fatalf("Text() = %q", buf.Text())
	}
}

func TestApplyIndentLinesSpaces(t *testing.T) {
	p, buf := newTestPipeline("a\nb\nc")
	_, err := p.Apply(IndentLines{Lines: []uint32{0, 2}, Direction: IndentIn, Width: 2, UseSpaces: true}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Text() != "  a\nb\n  c" {
		t.Fatalf("Text() = %q", buf.Text())
	}
}

func TestApplyIndentLinesOutTab(t *testing.T) {
	p, buf := newTestPipeline("\tfoo\nbar")
	_, err := p.Apply(IndentLines{Lines: []uint32{0}, Direction: IndentOut}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if buf.Text() != "foo\nbar" {
		t.Fatalf("Text() = %q", buf.Text())
	}
}

func TestApplyNoOpEmptyCommandNotCommitted(t *testing.T) {
	p, _ := newTestPipeline("abc")
	out, err := p.Apply(Batch{}, Local)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Committed {
		t.Fatal("expected Committed false for empty batch")
	}
}

func TestOriginRecordsHistory(t *testing.T) {
	cases := []struct {
		o    Origin
		want bool
	}{
		{Local, true},
		{Remote, true},
		{Undo, false},
		{Replay, false},
	}
	for _, c := range cases {
		if got := c.o.RecordsHistory(); got != c.want {
			t.Errorf("%v.RecordsHistory() = %v, want %v", c.o, got, c.want)
		}
	}
}

func TestOriginString(t *testing.T) {
	cases := map[Origin]string{Local: "local", Remote: "remote", Undo: "undo", Replay: "replay"}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", o, got, want)
		}
	}
}
