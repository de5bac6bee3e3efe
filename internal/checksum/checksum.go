// Package checksum computes the content digests used as document ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for string content.
func String(s string) string {
	return Sum([]byte(s))
}

// Match reports whether want is empty or equals the digest of data. An empty
// want means the caller did not ask for a precondition.
func Match(want string, data []byte) bool {
	return want == "" || want == Sum(data)
}
