// Package checkout issues and verifies the opaque tokens that authorize an
// unauthenticated subscribe or unsubscribe confirmation.
package checkout

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"

	"github.com/google/uuid"
)

// Size is the length of a hex encoded token.
const Size = sha1.Size * 2

// Generate returns a new unpredictable token: an HMAC-SHA1 keyed by a random
// UUIDv4, hex encoded.
func Generate() (string, error) {
	salt, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha1.New, []byte(hex.EncodeToString(salt[:])))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Compare reports whether stored and supplied are equal without leaking
// timing information. The caller handles a missing stored token.
func Compare(stored, supplied string) bool {
	return hmac.Equal([]byte(stored), []byte(supplied))
}

// Valid reports whether token has the shape of a generated token.
func Valid(token string) bool {
	if len(token) != Size {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
