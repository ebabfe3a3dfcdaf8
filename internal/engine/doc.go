// Package engine provides the editing core for a terminal code editor: a
// thread-safe text buffer with multi-cursor editing, branching undo/redo,
// incremental search, and crash-recovery journaling, built around a single
// mutation entry point.
//
// # Architecture
//
// The engine composes several sub-packages:
//
//   - rope: B+ tree rope for efficient text storage (O(log n) operations)
//   - buffer: Buffer abstraction with position conversion and edit operations
//   - cursor: Multi-cursor and selection management
//   - history: Branching, checkpointable undo/redo tree
//   - search: Incrementally maintained search match index
//   - pipeline: The sole mutation entry point; validates, applies, records
//     history, journals to swap, and publishes change events
//   - swap: Crash-recovery journal (binary frame log with CRC32 checksums)
//   - engineconf: Functional-options configuration
//
// Every write method on Engine -- Insert, Delete, Replace, ApplyEdit,
// ApplyEdits, IndentLines, TransformCase, Undo, Redo, Jump -- funnels
// through an internal pipeline.Pipeline. Nothing mutates the buffer,
// cursor set, or undo tree outside of it.
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes. Multiple goroutines
// can safely call read operations like Text(), LineText(), or OffsetToPoint()
// simultaneously.
//
// # Basic Usage
//
// Create an engine and perform basic edits:
//
//	// Create a new engine
//	e := engine.New()
//
//	// Insert text
//	e.Insert(0, "Hello, World!")
//
//	// Read content
//	text := e.Text() // "Hello, World!"
//
//	// Replace text
//	e.Replace(7, 12, "Go") // "Hello, Go!"
//
//	// Undo the replacement
//	e.Undo() // "Hello, World!"
//
// # Loading Files
//
// Create an engine from existing content:
//
//	// From a string
//	e := engine.New(engine.WithContent("initial content"))
//
//	// From a reader (file, network, etc.)
//	f, _ := os.Open("file.txt")
//	defer f.Close()
//	e, _ := engine.NewFromReader(f, engine.WithPath("file.txt"))
//
// # Multi-Cursor Support
//
// The engine supports multiple cursors for simultaneous edits:
//
//	e := engine.New(engine.WithContent("foo bar foo"))
//
//	e.SetPrimaryCursor(0)
//	e.AddCursor(8)
//
// # Undo/Redo
//
// History is a tree, not a stack: undoing and then making a new edit
// branches rather than discarding the abandoned redo path, and Jump moves
// directly to any earlier node along that tree.
//
//	e := engine.New()
//	e.Insert(0, "Hello")
//	e.Insert(5, " World")
//
//	e.Undo() // Removes " World"
//	e.Undo() // Removes "Hello"
//	e.Redo() // Restores "Hello"
//
// Group multiple operations into a single undo unit:
//
//	e.BeginUndoGroup("format code")
//	e.Replace(0, 5, "fn")
//	e.Insert(2, " main()")
//	e.EndUndoGroup()
//
//	e.Undo() // Undoes both operations at once
//
// # Crash Recovery
//
// Opening a swap log journals every committed edit to disk so a crash
// between saves does not lose work:
//
//	e, _ := engine.NewFromReader(f, engine.WithPath("file.txt"))
//	e.OpenSwapLog()
//	// ... editing session ...
//	e.MarkSaved()
//	e.DiscardSwapLog() // content is durably saved; journal no longer needed
//
// On the next open, before trusting the buffer's own content, replay any
// leftover journal from a prior crash:
//
//	e, _ := engine.NewFromReader(f, engine.WithPath("file.txt"))
//	n, err := e.RecoverFromSwap()
//
// # Change Notifications
//
// Subscribe to a stream of EditEvents, published after every committed
// edit, undo, redo, or jump -- useful for driving a UI's view of the
// buffer without re-diffing its content on every keystroke:
//
//	rx := e.Subscribe()
//	defer rx.Close()
//	for ev := range rx.Events() {
//	    if rx.Lagged() {
//	        // an event was dropped; resync from e.Snapshot() instead
//	    }
//	    // apply ev.Changes incrementally
//	}
//
// # Configuration
//
// Configure the engine at creation time:
//
//	e := engine.New(
//	    engine.WithContent("initial"),
//	    engine.WithTabWidth(4),
//	    engine.WithLineEnding(engine.LineEndingLF),
//	    engine.WithConfig(
//	        engineconf.WithMaxUndoNodes(1000),
//	        engineconf.WithSearchRescanWindow(4096),
//	    ),
//	)
//
// Or modify configuration at runtime:
//
//	e.SetTabWidth(2)
//	e.SetLineEnding(engine.LineEndingCRLF)
//
// # Read-Only Mode
//
// Create a read-only engine that rejects write operations:
//
//	e := engine.New(
//	    engine.WithContent("read-only content"),
//	    engine.WithReadOnly(),
//	)
//
//	_, err := e.Insert(0, "text")
//	// err == engine.ErrReadOnly
//
// # Position Conversion
//
// Convert between different position representations:
//
//	e := engine.New(engine.WithContent("line 1\nline 2"))
//
//	// Byte offset to line/column
//	point := e.OffsetToPoint(7) // Point{Line: 1, Column: 0}
//
//	// Line/column to byte offset
//	offset := e.PointToOffset(engine.Point{Line: 1, Column: 0}) // 7
//
//	// UTF-16 positions (for LSP compatibility)
//	utf16Point := e.OffsetToPointUTF16(offset)
//	offset = e.PointUTF16ToOffset(utf16Point)
//
// # Search
//
// Incremental search keeps its match list current as edits land, instead
// of rescanning the whole buffer on every keystroke:
//
//	q, _ := search.NewQuery("TODO", false, true, false)
//	e.SetSearchQuery(q)
//	m, ok := e.SearchNext()
//
// # Snapshots
//
// Snapshots provide an efficient, read-only view of buffer state that does
// not change even as the engine continues to be edited:
//
//	e := engine.New(engine.WithContent("original"))
//	snap := e.Snapshot()
//	text := snap.Text()
//
// # Error Handling
//
// The package defines several error types:
//
//   - ErrOffsetOutOfRange: Invalid byte offset
//   - ErrRangeInvalid: Invalid range (e.g., end < start, or not on a
//     code-point boundary)
//   - ErrNothingToUndo: Undo tree is already at the root
//   - ErrNothingToRedo: Current node has no child to redo into
//   - ErrReadOnly: Write operation on a read-only engine
//   - ErrNoPath: Swap-log operation attempted on a path-less buffer
package engine
