package moderation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the deterministic dedup key for raw content:
// the lower-case hex sha256 digest, 64 characters.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FingerprintString is a convenience wrapper for text payloads.
func FingerprintString(content string) string {
	return Fingerprint([]byte(content))
}
