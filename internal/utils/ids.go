package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRandomID returns a random hex token, used for job tokens and the like.
func NewRandomID() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
