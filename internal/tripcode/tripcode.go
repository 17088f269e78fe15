// Package tripcode generates short shareable trip join codes.
package tripcode

import (
	"crypto/rand"
	"fmt"
)

// alphabet excludes 0/O, 1/I and L, which are easy to misread when a code
// is shared verbally or scribbled on paper.
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// Length of a generated code.
const Length = 6

// New returns a random trip code. Uniqueness is enforced by the trips table;
// callers retry on collision.
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
