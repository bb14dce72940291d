// Package ids generates short task identifiers and resolves unique prefixes.
package ids

import (
	"crypto/sha256"
	"encoding/base32"
	"time"

	internalstrings "github.com/NHHoangTuan/todo-api/internal/strings"
)

// DefaultLength is the length of generated task IDs.
const DefaultLength = 8

// Generate returns a lowercase base32 ID derived from the SHA-256 of input.
func Generate(input string, length int) string {
	if length <= 0 {
		return ""
	}
	hash := sha256.Sum256([]byte(input))
	encoded := base32.StdEncoding.EncodeToString(hash[:])
	if length > len(encoded) {
		length = len(encoded)
	}
	return internalstrings.NormalizeLower(encoded[:length])
}

// GenerateWithTimestamp hashes input followed by the RFC 3339 timestamp.
func GenerateWithTimestamp(input string, timestamp time.Time, length int) string {
	return Generate(input+timestamp.Format(time.RFC3339Nano), length)
}
