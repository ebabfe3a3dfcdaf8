package pipeline

import "github.com/smashed/core/internal/engine/buffer"

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// EditCommand is the sum type every mutation enters the pipeline as. Every
// concrete command below implements it; the switch in Pipeline.Apply is
// exhaustive over them.
type EditCommand interface {
	isEditCommand()
}

// Insert inserts Text at Position. Position must fall on a code-point
// boundary; an empty Text is a no-op that still produces a commit (callers
// that want to avoid no-op commits should filter before calling Apply).
type Insert struct {
	Position ByteOffset
	Text     string
}

// Delete removes the text in Range.
type Delete struct {
	Range Range
}

// Replace removes the text in Range and inserts Text in its place.
type Replace struct {
	Range Range
	Text  string
}

// IndentDirection selects whether IndentLines adds or removes a level of
// indentation.
type IndentDirection uint8

const (
	// IndentIn adds one indent level (Width columns, or one tab).
	IndentIn IndentDirection = iota
	// IndentOut removes up to one indent level from the start of a line.
	IndentOut
)

// IndentLines indents or dedents every named line by one level.
type IndentLines struct {
	Lines     []uint32
	Direction IndentDirection
	Width     int
	UseSpaces bool
}

// CaseKind selects a TransformCase transformation.
type CaseKind uint8

const (
	// CaseUpper uppercases every code point in range.
	CaseUpper CaseKind = iota
	// CaseLower lowercases every code point in range.
	CaseLower
	// CaseTitle title-cases each word in range.
	CaseTitle
	// CaseToggle flips the case of every letter in range.
	CaseToggle
)

// TransformCase rewrites the text in Range according to Case.
type TransformCase struct {
	Range Range
	Case  CaseKind
}

// Batch groups several commands into one atomic commit: either all of them
// apply and a single UndoNode is recorded, or none of them do.
type Batch struct {
	Commands []EditCommand
}

func (Insert) isEditCommand()        {}
func (Delete) isEditCommand()        {}
func (Replace) isEditCommand()       {}
func (IndentLines) isEditCommand()   {}
func (TransformCase) isEditCommand() {}
func (Batch) isEditCommand()         {}
