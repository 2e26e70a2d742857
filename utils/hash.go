package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashSHA256 normalizes a user identifier (trim, lower-case) and returns its
// hex-encoded SHA-256 digest.
func HashSHA256(value string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(value))))
	return hex.EncodeToString(sum[:])
}
