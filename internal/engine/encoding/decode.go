package encoding

import (
	"bytes"

	xtext "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectBOM reports whether data begins with a UTF-8 byte-order mark and,
// if so, returns the data with the BOM stripped.
func DetectBOM(data []byte) (stripped []byte, hadBOM bool) {
	if bytes.HasPrefix(data, utf8BOM) {
		return data[len(utf8BOM):], true
	}
	return data, false
}

// Decoder converts raw bytes in some non-UTF-8 charset to a UTF-8 string,
// per spec §4.7's "pluggable decode callback invoked before content enters
// the rope". Load is the only seam where a Decoder runs; once text is in
// the rope it is always UTF-8.
type Decoder func(data []byte) (string, error)

// decodeWith adapts a golang.org/x/text/encoding.Encoding into a Decoder.
func decodeWith(enc xtext.Encoding) Decoder {
	return func(data []byte) (string, error) {
		out, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// Latin1Decoder decodes ISO-8859-1 (Latin-1) bytes to UTF-8.
var Latin1Decoder = decodeWith(charmap.ISO8859_1)

// ShiftJISDecoder decodes Shift-JIS bytes to UTF-8.
var ShiftJISDecoder = decodeWith(japanese.ShiftJIS)

// EncodeWith adapts a golang.org/x/text/encoding.Encoding into the inverse
// transcoder used on save, to re-encode UTF-8 content back to the charset
// it was loaded from.
func EncodeWith(enc xtext.Encoding) func(s string) ([]byte, error) {
	return func(s string) ([]byte, error) {
		out, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
		return out, err
	}
}
