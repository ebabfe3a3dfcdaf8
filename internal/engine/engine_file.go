package engine

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/encoding"
	"github.com/smashed/core/internal/engine/pipeline"
)

// OpenFile reads the file at path, strips a leading byte-order mark if
// present, runs the configured decoder (WithDecoder) over the remaining
// bytes -- or treats them as UTF-8 if none was given -- detects the
// resulting text's majority line-ending convention (spec §4.7), and
// constructs an Engine over it. An explicit WithLineEnding option overrides
// the detected style; everything else in opts behaves as it does for New.
func OpenFile(path string, opts ...Option) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := buildSettings(opts)

	stripped, _ := encoding.DetectBOM(raw)
	text, err := decodeBytes(stripped, s.decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrEncoding, path, err)
	}

	if !s.lineEndingSet {
		s.lineEnding = buffer.LineEnding(encoding.Detect(text))
	}
	s.path = path

	bufOpts := []buffer.Option{
		buffer.WithTabWidth(s.tabWidth),
		buffer.WithLineEnding(s.lineEnding),
	}
	buf := buffer.NewBufferFromString(text, bufOpts...)
	buf.SetPath(path)
	buf.MarkSaved()

	e := newFromBuffer(buf, s)
	return e, nil
}

// Save writes the buffer's current content to its associated path
// (Path/WithPath/OpenFile must have set one). When the engine was
// configured with engineconf.WithTrimTrailingWhitespaceOnSave, trailing
// spaces and tabs are stripped from every line first, as a single
// undoable Batch committed with OriginLocal before the write (spec §4.7).
// Marks the buffer saved on success.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.buf.Path()
	if path == "" {
		return ErrNoPath
	}
	if e.readOnly {
		return ErrReadOnly
	}

	if e.cfg.TrimTrailingWhitespaceOnSave {
		if err := e.trimTrailingWhitespaceLocked(); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, e.buf.SavedBytes(), 0o644); err != nil {
		return err
	}
	e.buf.MarkSaved()
	return nil
}

// SaveAs associates the buffer with a new path and saves it there.
func (e *Engine) SaveAs(path string) error {
	e.mu.Lock()
	e.buf.SetPath(path)
	e.mu.Unlock()
	return e.Save()
}

// trimTrailingWhitespaceLocked strips trailing spaces and tabs from every
// line and applies the result as one Batch command, so the trim is a
// single undo step distinct from whatever edit preceded the save. Must be
// called with e.mu held.
func (e *Engine) trimTrailingWhitespaceLocked() error {
	var ranges []Range
	lineCount := e.buf.LineCount()
	for line := uint32(0); line < lineCount; line++ {
		start := e.buf.LineStartOffset(line)
		end := e.buf.LineEndOffset(line)
		content := e.buf.TextRange(start, end)

		trimmed := strings.TrimRight(content, " \t")
		trimLen := len(content) - len(trimmed)
		if trimLen == 0 {
			continue
		}
		spanStart := start + ByteOffset(len(trimmed))
		ranges = append(ranges, Range{Start: spanStart, End: spanStart + ByteOffset(trimLen)})
	}
	if len(ranges) == 0 {
		return nil
	}

	// Every range above was computed against the buffer's current,
	// unmutated offsets. Applying them highest-offset-first means no
	// earlier (lower-offset) deletion can ever invalidate a later one's
	// stale range, matching the convention ApplyEdits documents.
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start > ranges[j].Start })

	cmds := make([]pipeline.EditCommand, len(ranges))
	for i, r := range ranges {
		cmds[i] = pipeline.Delete{Range: r}
	}
	_, err := e.pipe.Apply(pipeline.Batch{Commands: cmds}, pipeline.Local)
	return err
}

// decodeBytes runs decoder over data if one was supplied (WithDecoder),
// otherwise assumes data is already UTF-8.
func decodeBytes(data []byte, decoder encoding.Decoder) (string, error) {
	if decoder == nil {
		return string(data), nil
	}
	return decoder(data)
}
