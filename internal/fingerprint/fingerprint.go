// Package fingerprint computes content fingerprints for dedup of uploaded
// creatives.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex-encoded SHA-256 digest of the given bytes. It is
// deterministic and has no failure mode; empty input hashes to the fixed
// SHA-256 empty digest.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
