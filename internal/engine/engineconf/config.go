// Package engineconf centralizes the tunable limits and injected
// dependencies every other engine package reads from, rather than letting
// each one default and configure itself independently.
package engineconf

import (
	"log/slog"
	"time"
)

// Defaults mirror the teacher's DefaultMaxUndoEntries/DefaultMaxChanges/
// DefaultMaxRevisions constants, renamed and expanded with the new limits
// the branching undo tree, search index, and swap log each need.
const (
	DefaultTabWidth           = 4
	DefaultMaxUndoNodes       = 1000
	DefaultUndoMaxAge         = 24 * time.Hour
	DefaultUndoMaxMemoryBytes = 8 << 20 // 8 MiB of retained undo text
	DefaultSwapFlushInterval  = 2 * time.Second
	DefaultSwapChannelBuffer  = 256
	DefaultSearchRescanWindow = 4096 // bytes of context rescanned around an edit
	DefaultEventBufferSize    = 1024
	DefaultPageLines          = 20 // visual lines a PageUp/PageDown motion moves by

	// DefaultGroupingInterval is the maximum gap between consecutive
	// Local-origin character inserts at adjacent positions for them to
	// coalesce into the same undo node (spec §4.3).
	DefaultGroupingInterval = 500 * time.Millisecond
)

// Config bundles every tunable the engine facade and the packages it
// composes (pipeline, history, search, swap) read at construction time.
type Config struct {
	TabWidth int

	MaxUndoNodes       int
	UndoMaxAge         time.Duration
	UndoMaxMemoryBytes int64

	SwapFlushInterval time.Duration
	SwapChannelBuffer int
	SwapDir           string

	SearchRescanWindow int

	EventBufferSize int

	// PageLines is how many visual lines a PageUp/PageDown motion moves by.
	PageLines int

	// GroupingInterval is the maximum gap between consecutive Local-origin
	// character inserts at adjacent positions for the history tree to merge
	// them into one undo node instead of recording each keystroke (spec
	// §4.3). Zero disables automatic grouping.
	GroupingInterval time.Duration

	// TrimTrailingWhitespaceOnSave, when true, makes Engine.Save compute a
	// trim-diff over every line's trailing whitespace and submit it as one
	// undoable Batch command before writing (spec §4.7).
	TrimTrailingWhitespaceOnSave bool

	Logger *slog.Logger
}

// Option configures a Config.
type Option func(*Config)

// New builds a Config from the given options, starting from the package
// defaults.
func New(opts ...Option) Config {
	c := Config{
		TabWidth:           DefaultTabWidth,
		MaxUndoNodes:       DefaultMaxUndoNodes,
		UndoMaxAge:         DefaultUndoMaxAge,
		UndoMaxMemoryBytes: DefaultUndoMaxMemoryBytes,
		SwapFlushInterval:  DefaultSwapFlushInterval,
		SwapChannelBuffer:  DefaultSwapChannelBuffer,
		SearchRescanWindow: DefaultSearchRescanWindow,
		EventBufferSize:    DefaultEventBufferSize,
		PageLines:          DefaultPageLines,
		GroupingInterval:   DefaultGroupingInterval,
		Logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithTabWidth sets the display tab width.
func WithTabWidth(width int) Option {
	return func(c *Config) {
		if width > 0 {
			c.TabWidth = width
		}
	}
}

// WithMaxUndoNodes bounds the number of live undo-tree nodes.
func WithMaxUndoNodes(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxUndoNodes = n
		}
	}
}

// WithUndoMaxAge bounds how long an off-chain undo node may live before
// pruning becomes eligible to reclaim it.
func WithUndoMaxAge(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.UndoMaxAge = d
		}
	}
}

// WithUndoMaxMemoryBytes bounds the approximate retained undo-text size.
func WithUndoMaxMemoryBytes(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.UndoMaxMemoryBytes = n
		}
	}
}

// WithSwapFlushInterval sets the debounce interval between swap-log fsyncs.
func WithSwapFlushInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SwapFlushInterval = d
		}
	}
}

// WithSwapChannelBuffer sets the swap writer's backpressure buffer size.
func WithSwapChannelBuffer(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SwapChannelBuffer = n
		}
	}
}

// WithSwapDir sets the directory swap files are written under. An empty
// string (the default) means no swap log is created.
func WithSwapDir(dir string) Option {
	return func(c *Config) {
		c.SwapDir = dir
	}
}

// WithSearchRescanWindow sets how many bytes of context around an edit the
// search index rescans during incremental maintenance.
func WithSearchRescanWindow(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SearchRescanWindow = n
		}
	}
}

// WithEventBufferSize sets the per-subscriber EditEvent channel capacity.
func WithEventBufferSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.EventBufferSize = n
		}
	}
}

// WithPageLines sets how many visual lines a PageUp/PageDown motion moves by.
func WithPageLines(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PageLines = n
		}
	}
}

// WithGroupingInterval sets the maximum gap between consecutive typed
// character inserts that still coalesce into one undo node. Zero disables
// automatic grouping, so every commit becomes its own undo node.
func WithGroupingInterval(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.GroupingInterval = d
		}
	}
}

// WithTrimTrailingWhitespaceOnSave turns on (or off) trailing-whitespace
// trimming as part of Engine.Save.
func WithTrimTrailingWhitespaceOnSave(enabled bool) Option {
	return func(c *Config) {
		c.TrimTrailingWhitespaceOnSave = enabled
	}
}

// WithLogger sets the logger used for background-worker diagnostics (the
// swap writer's debounced fsync loop, event-broadcaster lag warnings).
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
