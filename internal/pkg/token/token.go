package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// NewActionToken generates a cryptographically random 64-character hex token
// (256 bits) bound to a visitor request at creation.
func NewActionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate action token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Equal compares a stored token with a caller-supplied one in constant time.
func Equal(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
