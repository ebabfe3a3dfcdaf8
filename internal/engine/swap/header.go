package swap

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Magic is the fixed 8-byte prefix identifying a smash swap file (spec
// §6: "SMSHSWP1").
const Magic = "SMSHSWP1"

// FormatVersion is bumped whenever the frame or header layout changes
// incompatibly. A Header whose version we don't recognize is reported as
// ErrCorrupted and replay is skipped, never attempted blindly.
const FormatVersion = 1

// ErrCorrupted indicates a swap file's header is unreadable or names an
// unknown format version. Non-fatal: the caller should open the buffer
// without replay (spec §7).
var ErrCorrupted = errors.New("swap: file corrupted or unknown format")

// Header is the fixed preamble of a swap file: the hash of the file's
// content at the time the swap log was created, the path it was opened
// from, and a creation timestamp, used to decide whether the on-disk file
// has since diverged from what the journal assumes it started from.
type Header struct {
	Version   uint16
	Hash      [32]byte
	Path      string
	CreatedAt int64 // Unix seconds
}

// PathFor returns the swap-file path for an open file, e.g.
// "/dir/name.ext" -> "/dir/.name.ext.smash-swap".
func PathFor(filePath string) string {
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	return filepath.Join(dir, "."+base+".smash-swap")
}

// HashFile returns the SHA-256 digest of the file at path's contents. Used
// to compare against a swap header's recorded hash; see hash.go in the
// buffer package for why SHA-256 stands in for the spec's BLAKE3 example.
func HashFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// writeHeader serializes hdr to w in the spec §6 wire format.
func writeHeader(w io.Writer, hdr Header) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(hdr.Hash))); err != nil {
		return err
	}
	if _, err := w.Write(hdr.Hash[:]); err != nil {
		return err
	}
	pathBytes := []byte(hdr.Path)
	if len(pathBytes) > 0xFFFF {
		return fmt.Errorf("swap: path too long (%d bytes)", len(pathBytes))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(pathBytes))); err != nil {
		return err
	}
	if _, err := w.Write(pathBytes); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, hdr.CreatedAt)
}

// readHeader parses the spec §6 header from br. The caller is responsible
// for treating a non-nil error as ErrCorrupted, not as a fatal I/O failure
// (spec §7: a corrupted swap file is reported but the buffer still opens).
// br is the same reader the caller continues reading command frames from
// afterward, so header parsing must not buffer past it independently.
func readHeader(br *bufio.Reader) (Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return Header{}, fmt.Errorf("%w: reading magic: %v", ErrCorrupted, err)
	}
	if string(magic) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupted, magic)
	}

	var hashLen uint16
	if err := binary.Read(br, binary.LittleEndian, &hashLen); err != nil {
		return Header{}, fmt.Errorf("%w: reading hash length: %v", ErrCorrupted, err)
	}
	if int(hashLen) != sha256.Size {
		return Header{}, fmt.Errorf("%w: unexpected hash length %d", ErrCorrupted, hashLen)
	}
	var hash [32]byte
	if _, err := io.ReadFull(br, hash[:]); err != nil {
		return Header{}, fmt.Errorf("%w: reading hash: %v", ErrCorrupted, err)
	}

	var pathLen uint16
	if err := binary.Read(br, binary.LittleEndian, &pathLen); err != nil {
		return Header{}, fmt.Errorf("%w: reading path length: %v", ErrCorrupted, err)
	}
	pathBytes := make([]byte, pathLen)
	if _, err := io.ReadFull(br, pathBytes); err != nil {
		return Header{}, fmt.Errorf("%w: reading path: %v", ErrCorrupted, err)
	}

	var createdAt int64
	if err := binary.Read(br, binary.LittleEndian, &createdAt); err != nil {
		return Header{}, fmt.Errorf("%w: reading created-at: %v", ErrCorrupted, err)
	}

	return Header{Version: FormatVersion, Hash: hash, Path: string(pathBytes), CreatedAt: createdAt}, nil
}
