package authenticator

import (
	"crypto/rand"
	"encoding/base64"
)

// stateLength is the number of random bytes behind a state token (256 bits)
const stateLength = 32

// GenerateState generates a random state value for CSRF protection.
// The result is URL-safe base64 without padding.
func GenerateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
