// Package swap implements the crash-recovery journal described in spec
// §4.6: for an open file at /dir/name.ext, a swap log is kept at
// /dir/.name.ext.smash-swap recording every committed EditCommand so a
// crash before save can be replayed back to the point just before it.
//
// Writer owns a background goroutine and a bounded channel; Append from
// the edit thread blocks only when that channel is full (backpressure,
// correctness over latency -- spec §5). OpenForRecovery and Replay are
// synchronous, used once at buffer-open time, before any Writer exists for
// the file.
package swap
