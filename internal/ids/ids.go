// Package ids generates the random identifiers used for users, guests and rounds.
package ids

import (
	"crypto/rand"
	"encoding/base64"
)

// New creates a 22-char URL-safe, crypto-random identifier (no padding).
func New() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
