package swap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"time"

	"github.com/smashed/core/internal/engine/pipeline"
)

// request is a single encoded frame waiting to be written by the
// background goroutine.
type request struct {
	payload []byte
	done    chan error // non-nil only for Close/Delete, which must block
}

// Writer appends committed EditCommands to a swap file in the background,
// off the edit thread, per spec §5's "no blocking I/O in the hot path".
// Append enqueues onto a bounded channel and returns immediately unless
// that channel is full, in which case it blocks -- deliberate backpressure
// rather than dropping frames or growing memory unboundedly.
type Writer struct {
	path    string
	file    *os.File
	bw      *bufio.Writer
	reqs    chan request
	done    chan struct{}
	flushEv time.Duration
	logger  *slog.Logger
}

// NewWriter creates (or truncates) the swap file for filePath and starts
// its background flush goroutine. hash is the content hash of filePath at
// the moment the swap log is opened, recorded in the header so a later
// OpenForRecovery call can tell whether the underlying file changed before
// the journal was consulted.
func NewWriter(filePath string, hash [32]byte, flushInterval time.Duration, chanBuffer int, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := PathFor(filePath)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("swap: creating %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	hdr := Header{Version: FormatVersion, Hash: hash, Path: filePath, CreatedAt: time.Now().Unix()}
	if err := writeHeader(bw, hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("swap: writing header to %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("swap: flushing header to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("swap: syncing header to %s: %w", path, err)
	}

	w := &Writer{
		path:    path,
		file:    f,
		bw:      bw,
		reqs:    make(chan request, chanBuffer),
		done:    make(chan struct{}),
		flushEv: flushInterval,
		logger:  logger,
	}
	go w.run()
	return w, nil
}

// Append encodes cmd as a frame and enqueues it for the background writer.
// It implements pipeline.SwapWriter. Blocks only when the channel buffer is
// full.
func (w *Writer) Append(cmd pipeline.EditCommand) error {
	payload, err := encodeCommand(cmd)
	if err != nil {
		return err
	}
	select {
	case w.reqs <- request{payload: payload}:
		return nil
	case <-w.done:
		return fmt.Errorf("swap: writer for %s is closed", w.path)
	}
}

// run is the background goroutine: it writes every queued frame and
// fsyncs at most once every flushEv, or immediately once the channel runs
// dry (spec §4.6: "fsync no more than once per debounce interval, but
// always before the writer would otherwise sit idle with unflushed data").
func (w *Writer) run() {
	ticker := time.NewTicker(w.flushEv)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case req, ok := <-w.reqs:
			if !ok {
				return
			}
			if req.done != nil {
				// Close/Delete request: drain remaining queued frames first,
				// then perform the final action.
				w.flush(dirty)
				req.done <- nil
				return
			}
			if err := w.writeFrame(req.payload); err != nil {
				w.logger.Error("swap: writing frame failed", "path", w.path, "error", err)
				continue
			}
			dirty = true
			if len(w.reqs) == 0 {
				w.flush(dirty)
				dirty = false
			}
		case <-ticker.C:
			if dirty {
				w.flush(dirty)
				dirty = false
			}
		}
	}
}

// flush writes buffered bytes and fsyncs, with a bounded wait so a slow or
// wedged filesystem can't stall the writer loop forever. A timeout is
// logged, not retried inline: the next periodic tick or frame write will
// try again.
func (w *Writer) flush(dirty bool) {
	if !dirty {
		return
	}
	if err := w.bw.Flush(); err != nil {
		w.logger.Error("swap: flush failed", "path", w.path, "error", err)
		return
	}

	result := make(chan error, 1)
	go func() { result <- w.file.Sync() }()
	select {
	case err := <-result:
		if err != nil {
			w.logger.Error("swap: fsync failed", "path", w.path, "error", err)
		}
	case <-time.After(5 * time.Second):
		w.logger.Warn("swap: fsync exceeded timeout, continuing without blocking", "path", w.path)
	}
}

// writeFrame writes one length-prefixed, CRC32-checked frame: spec §6's
// FrameLen(u32) | Payload | CRC32(u32).
func (w *Writer) writeFrame(payload []byte) error {
	if err := binary.Write(w.bw, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	if _, err := w.bw.Write(payload); err != nil {
		return err
	}
	sum := crc32.ChecksumIEEE(payload)
	return binary.Write(w.bw, binary.LittleEndian, sum)
}

// Close flushes any pending frames, fsyncs, stops the background goroutine,
// and closes the underlying file. The swap file itself is left on disk --
// callers recovering from a crash need it; Delete removes it once a save
// has succeeded.
func (w *Writer) Close() error {
	done := make(chan error, 1)
	select {
	case w.reqs <- request{done: done}:
		<-done
	case <-w.done:
	}
	close(w.done)
	return w.file.Close()
}

// Delete closes the writer (if not already closed) and removes the swap
// file, called once the edited content has been durably saved to its real
// path and the journal is no longer needed (spec §4.6).
func (w *Writer) Delete() error {
	if err := w.Close(); err != nil {
		return err
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
