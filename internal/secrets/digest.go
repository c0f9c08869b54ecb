package secrets

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashHex returns the lowercase hex SHA-256 digest of input (64 characters).
func HashHex[T ~string | ~[]byte](input T) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the raw SHA-256 digest of input.
func HashBytes[T ~string | ~[]byte](input T) [32]byte {
	return sha256.Sum256([]byte(input))
}
