package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns a 32-byte random token as hex, used for verification,
// password reset, and unsubscribe capabilities.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform's entropy source is
		// broken; there is no useful recovery at this layer.
		panic(err)
	}
	return hex.EncodeToString(b)
}
