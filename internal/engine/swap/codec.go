package swap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/smashed/core/internal/engine/pipeline"
)

// Command tags identifying which pipeline.EditCommand variant a frame
// payload decodes to. Stable once shipped: changing a tag's meaning
// without bumping FormatVersion would silently corrupt old swap files.
const (
	tagInsert byte = iota
	tagDelete
	tagReplace
	tagIndentLines
	tagTransformCase
	tagBatch
)

// encodeCommand serializes cmd into the payload bytes a frame wraps. The
// outer frame (length prefix + CRC32) is added by Writer.Append; this is
// just the command encoding spec §6 calls "serialized EditCommand".
func encodeCommand(cmd pipeline.EditCommand) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCommand(&buf, cmd); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCommand(w *bytes.Buffer, cmd pipeline.EditCommand) error {
	switch c := cmd.(type) {
	case pipeline.Insert:
		w.WriteByte(tagInsert)
		writeUvarint(w, uint64(c.Position))
		writeString(w, c.Text)
	case pipeline.Delete:
		w.WriteByte(tagDelete)
		writeUvarint(w, uint64(c.Range.Start))
		writeUvarint(w, uint64(c.Range.End))
	case pipeline.Replace:
		w.WriteByte(tagReplace)
		writeUvarint(w, uint64(c.Range.Start))
		writeUvarint(w, uint64(c.Range.End))
		writeString(w, c.Text)
	case pipeline.IndentLines:
		w.WriteByte(tagIndentLines)
		writeUvarint(w, uint64(len(c.Lines)))
		for _, l := range c.Lines {
			writeUvarint(w, uint64(l))
		}
		w.WriteByte(byte(c.Direction))
		writeUvarint(w, uint64(c.Width))
		if c.UseSpaces {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case pipeline.TransformCase:
		w.WriteByte(tagTransformCase)
		writeUvarint(w, uint64(c.Range.Start))
		writeUvarint(w, uint64(c.Range.End))
		w.WriteByte(byte(c.Case))
	case pipeline.Batch:
		w.WriteByte(tagBatch)
		writeUvarint(w, uint64(len(c.Commands)))
		for _, sub := range c.Commands {
			if err := writeCommand(w, sub); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("swap: cannot encode command of type %T", cmd)
	}
	return nil
}

// decodeCommand parses a payload previously produced by encodeCommand.
func decodeCommand(payload []byte) (pipeline.EditCommand, error) {
	r := bytes.NewReader(payload)
	cmd, err := readCommand(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("swap: %d trailing bytes after decoding command", r.Len())
	}
	return cmd, nil
}

func readCommand(r *bytes.Reader) (pipeline.EditCommand, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagInsert:
		pos, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		text, err := readString(r)
		if err != nil {
			return nil, err
		}
		return pipeline.Insert{Position: pipeline.ByteOffset(pos), Text: text}, nil
	case tagDelete:
		start, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		end, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		return pipeline.Delete{Range: pipeline.Range{Start: pipeline.ByteOffset(start), End: pipeline.ByteOffset(end)}}, nil
	case tagReplace:
		start, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		end, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		text, err := readString(r)
		if err != nil {
			return nil, err
		}
		return pipeline.Replace{Range: pipeline.Range{Start: pipeline.ByteOffset(start), End: pipeline.ByteOffset(end)}, Text: text}, nil
	case tagIndentLines:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		lines := make([]uint32, n)
		for i := range lines {
			v, err := readUvarint(r)
			if err != nil {
				return nil, err
			}
			lines[i] = uint32(v)
		}
		dir, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		width, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		useSpaces, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return pipeline.IndentLines{
			Lines:     lines,
			Direction: pipeline.IndentDirection(dir),
			Width:     int(width),
			UseSpaces: useSpaces != 0,
		}, nil
	case tagTransformCase:
		start, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		end, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return pipeline.TransformCase{Range: pipeline.Range{Start: pipeline.ByteOffset(start), End: pipeline.ByteOffset(end)}, Case: pipeline.CaseKind(kind)}, nil
	case tagBatch:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		cmds := make([]pipeline.EditCommand, n)
		for i := range cmds {
			sub, err := readCommand(r)
			if err != nil {
				return nil, err
			}
			cmds[i] = sub
		}
		return pipeline.Batch{Commands: cmds}, nil
	default:
		return nil, fmt.Errorf("swap: unknown command tag %d", tag)
	}
}

func writeUvarint(w *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.Write(tmp[:n])
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func writeString(w *bytes.Buffer, s string) {
	writeUvarint(w, uint64(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
