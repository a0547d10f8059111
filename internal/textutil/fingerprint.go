package textutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLength is the number of hex characters kept from the digest.
const fingerprintLength = 16

// Fingerprint returns a short, stable hash of rendered content. Equal content
// always yields an equal fingerprint; any byte change yields a different one
// with overwhelming probability.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
