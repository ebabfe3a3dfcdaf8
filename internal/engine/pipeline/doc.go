// Package pipeline implements the editing core's single mutation entry
// point: validate, apply, remap cursors, record undo history, append to the
// swap log, update the dirty flag and revision, and emit a change event.
// Every caller -- local input, a remote collaborative edit, undo/redo, or
// swap-log replay -- goes through Pipeline.Apply with an Origin tag; no
// other path is allowed to mutate a buffer's rope.
package pipeline
