package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// OpaqueTokenSize is the raw size of registration control codes and reset keys.
const OpaqueTokenSize = 16

// RandomHex reads n bytes from r and returns them as lowercase hex.
// A nil reader falls back to crypto/rand.
func RandomHex(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random size must be positive")
	}
	if r == nil {
		r = rand.Reader
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewOpaqueToken returns a 32-character hex token drawn from r.
func NewOpaqueToken(r io.Reader) (string, error) {
	return RandomHex(r, OpaqueTokenSize)
}
