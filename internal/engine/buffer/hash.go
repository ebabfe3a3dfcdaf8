package buffer

import "crypto/sha256"

// hashString returns the SHA-256 digest of s.
//
// The swap log format (spec §6) names BLAKE3-256 as its example content
// hash; no BLAKE3 implementation appears anywhere in this module's source
// corpus, so SHA-256 is used instead as the nearest stdlib content hash
// with the same role (detect whether the on-disk file changed underneath
// an open swap log).
func hashString(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}
