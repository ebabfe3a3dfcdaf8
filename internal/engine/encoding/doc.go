// Package encoding detects and handles the byte-level concerns a buffer
// must resolve before content ever reaches the rope: byte-order-mark and
// non-UTF-8 charset detection, a pluggable decode seam for those charsets,
// and line-ending detection (LF/CRLF/CR, majority vote with an LF
// tie-break). The rope itself only ever stores LF-normalized UTF-8; this
// package is where the rest of the world gets translated into that shape,
// and back again on save.
package encoding
