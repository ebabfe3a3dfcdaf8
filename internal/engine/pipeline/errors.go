package pipeline

import "errors"

// Errors returned by Pipeline.Apply. A validation failure (OutOfBounds,
// InvalidRange) always leaves the buffer exactly as it was -- the pipeline
// is transactional, so partial Batch application is never observable.
var (
	// ErrOutOfBounds indicates a position or range falls outside the
	// buffer's current content.
	ErrOutOfBounds = errors.New("pipeline: position out of bounds")

	// ErrInvalidRange indicates a range with start > end, or an endpoint
	// that does not fall on a Unicode code-point boundary.
	ErrInvalidRange = errors.New("pipeline: invalid range")

	// ErrEncoding indicates a load/save transcoding failure. Never
	// returned by Apply itself; reserved for buffer construction paths
	// that route their own failures through this error set.
	ErrEncoding = errors.New("pipeline: encoding error")

	// ErrIO indicates the swap-log writer (or another I/O-backed
	// component) failed; the edit itself still applied to the in-memory
	// buffer; only durability is affected.
	ErrIO = errors.New("pipeline: io error")

	// ErrSwapFileCorrupted indicates a swap log's header was unreadable
	// or carried an unknown format version. Non-fatal: the buffer opens
	// without replay.
	ErrSwapFileCorrupted = errors.New("pipeline: swap file corrupted")

	// ErrUnknownCommand indicates an EditCommand variant the pipeline
	// does not recognize (defensive; all variants in this package are
	// exhaustively handled).
	ErrUnknownCommand = errors.New("pipeline: unknown edit command")

	// ErrReadOnly indicates an edit was attempted on a read-only buffer.
	ErrReadOnly = errors.New("pipeline: buffer is read-only")
)
