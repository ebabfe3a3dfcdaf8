package swap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/smashed/core/internal/engine/pipeline"
)

// ErrNoSwapFile indicates there is nothing to recover: the expected swap
// path does not exist. Not an error condition for the caller -- it just
// means the file was closed cleanly last time, or never opened with a
// swap log at all.
var ErrNoSwapFile = errors.New("swap: no swap file present")

// OpenForRecovery opens the swap file for filePath (if any) and returns
// its header without reading any command frames yet. Callers use the
// header's Hash to decide whether filePath has been modified by another
// process since the swap log was created; Replay is what actually
// reapplies the recorded edits.
func OpenForRecovery(filePath string) (Header, error) {
	path := PathFor(filePath)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Header{}, ErrNoSwapFile
		}
		return Header{}, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	return readHeader(br)
}

// ApplyFunc is called once per recovered command, in the order the swap
// log recorded them. Replay stops at the first error ApplyFunc returns.
type ApplyFunc func(cmd pipeline.EditCommand) error

// Replay reads every valid frame following the header of filePath's swap
// file and calls apply with each decoded command, in order, using
// pipeline.Replay as its provenance (spec §4.6: replayed edits must not
// themselves be recorded as new undo-tree nodes or re-journaled).
//
// It stops -- without error -- at the first frame that fails its CRC32
// check or is otherwise malformed, since a torn write at the tail of the
// file (the crash itself, mid-append) is the expected case, not corruption
// of the whole log. It returns the number of frames successfully applied.
func Replay(filePath string, apply ApplyFunc) (int, error) {
	path := PathFor(filePath)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoSwapFile
		}
		return 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if _, err := readHeader(br); err != nil {
		return 0, err
	}

	count := 0
	for {
		payload, err := readFrame(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Truncated or corrupt trailing frame: stop here, keep what was
			// already recovered.
			break
		}
		cmd, err := decodeCommand(payload)
		if err != nil {
			break
		}
		if err := apply(cmd); err != nil {
			return count, fmt.Errorf("swap: replaying frame %d: %w", count, err)
		}
		count++
	}
	return count, nil
}

// readFrame reads one FrameLen(u32) | Payload | CRC32(u32) frame from br
// and validates its checksum.
func readFrame(br *bufio.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, err
	}
	var wantSum uint32
	if err := binary.Read(br, binary.LittleEndian, &wantSum); err != nil {
		return nil, err
	}
	if gotSum := crc32.ChecksumIEEE(payload); gotSum != wantSum {
		return nil, fmt.Errorf("swap: frame checksum mismatch (want %x, got %x)", wantSum, gotSum)
	}
	return payload, nil
}
