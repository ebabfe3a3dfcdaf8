package pipeline

// Origin tags the provenance of an edit passing through the pipeline.
// Subscribers use it to filter events; undo/redo and replay use it to
// suppress new history recording while still publishing EditEvents.
type Origin uint8

const (
	// Local is a direct edit from the input/command layer.
	Local Origin = iota
	// Remote is an edit injected by a collaborative session (e.g. a CRDT
	// integration reconciling a peer's operation).
	Remote
	// Undo marks an edit applied by Pipeline's own undo/redo machinery.
	// It never creates a new undo-tree node.
	Undo
	// Replay marks an edit applied while recovering a swap log. It never
	// creates a new undo-tree node.
	Replay
)

// String implements fmt.Stringer.
func (o Origin) String() string {
	switch o {
	case Local:
		return "local"
	case Remote:
		return "remote"
	case Undo:
		return "undo"
	case Replay:
		return "replay"
	default:
		return "unknown"
	}
}

// RecordsHistory reports whether an edit with this origin should create a
// new undo-tree node. Undo and Replay edits replay history that already
// exists (or never should); Local and Remote edits are new commits.
func (o Origin) RecordsHistory() bool {
	return o == Local || o == Remote
}
