package engine

import (
	"errors"

	"github.com/smashed/core/internal/engine/history"
	"github.com/smashed/core/internal/engine/pipeline"
)

// Errors returned by engine operations. Most are re-exported from the
// pipeline/history packages under their original teacher-facing names so
// callers don't need to import those packages directly for simple error
// comparisons.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the valid buffer range.
	ErrOffsetOutOfRange = pipeline.ErrOutOfBounds

	// ErrRangeInvalid indicates an invalid range (e.g., end < start).
	ErrRangeInvalid = pipeline.ErrInvalidRange

	// ErrNothingToUndo indicates there is nothing to undo at the tree's
	// current position.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the current node has no child to redo into.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrNoPath indicates an operation that requires an associated file
	// path (OpenSwapLog, RecoverFromSwap) was attempted on a path-less
	// buffer.
	ErrNoPath = errors.New("engine has no associated file path")

	// ErrEncoding indicates OpenFile's or NewFromReader's decoder callback
	// failed to transcode the loaded bytes to UTF-8.
	ErrEncoding = pipeline.ErrEncoding
)
