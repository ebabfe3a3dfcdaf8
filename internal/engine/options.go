package engine

import (
	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/encoding"
	"github.com/smashed/core/internal/engine/engineconf"
)

// settings accumulates Engine construction-time choices before New/
// NewFromReader build the concrete sub-components (buffer, history,
// search index, pipeline).
type settings struct {
	tabWidth      int
	lineEnding    buffer.LineEnding
	lineEndingSet bool
	initContent   string
	readOnly      bool
	path          string
	decoder       encoding.Decoder
	confOpts      []engineconf.Option
}

// Option configures an Engine during creation.
type Option func(*settings)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(s *settings) { s.initContent = content }
}

// WithPath associates the engine's buffer with a file path up front,
// equivalent to calling Engine.SetPath after construction.
func WithPath(path string) Option {
	return func(s *settings) { s.path = path }
}

// WithTabWidth sets the tab width for the engine.
func WithTabWidth(width int) Option {
	return func(s *settings) {
		if width > 0 {
			s.tabWidth = width
		}
	}
}

// WithLineEnding sets the line ending style for the engine, overriding
// whatever OpenFile would otherwise have auto-detected.
func WithLineEnding(ending buffer.LineEnding) Option {
	return func(s *settings) {
		s.lineEnding = ending
		s.lineEndingSet = true
	}
}

// WithDecoder installs a callback OpenFile and NewFromReader run over the
// raw bytes they load before anything enters the rope (spec §4.7: "other
// encodings... pluggable decode callback"). Without one, loaded bytes are
// assumed to already be UTF-8. See encoding.Latin1Decoder and
// encoding.ShiftJISDecoder for ready-made non-UTF-8 decoders.
func WithDecoder(d encoding.Decoder) Option {
	return func(s *settings) { s.decoder = d }
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(s *settings) { s.readOnly = true }
}

// WithConfig passes functional options straight through to engineconf.New:
// every tunable that isn't specific to initial buffer content (undo
// pruning limits, swap flush interval/buffer, search rescan window, event
// buffer size, logger).
func WithConfig(opts ...engineconf.Option) Option {
	return func(s *settings) { s.confOpts = append(s.confOpts, opts...) }
}

// WithMaxUndoEntries bounds the number of live undo-tree nodes. Convenience
// wrapper over WithConfig(engineconf.WithMaxUndoNodes(n)), kept under its
// original teacher-facing name.
func WithMaxUndoEntries(n int) Option {
	return WithConfig(engineconf.WithMaxUndoNodes(n))
}
