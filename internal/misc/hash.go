package misc

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 of value. Cache records store it so
// a truncated or corrupted file is detected on load instead of being
// shown as an authoritative baseline.
func Checksum(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}
