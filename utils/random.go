package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomToken returns a cryptographically random hex string of 2*n
// characters, used for call-link tokens and provisioned passwords.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
