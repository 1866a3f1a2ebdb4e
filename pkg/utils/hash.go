package utils

import (
	"crypto/sha1"
	"encoding/hex"
)

// ShortHash returns the first 16 hex digits of the SHA-1 of s. Used wherever
// a compact stable key is needed (lookup keys, cache file names).
func ShortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
