package simplemedia

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the sha256 digest of data as a 64-char lowercase hex
// string. Dedup and deletion fan-out both key on this digest, so it must be
// deterministic and collision-resistant. Empty input yields the digest of
// the empty string, not an error.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
