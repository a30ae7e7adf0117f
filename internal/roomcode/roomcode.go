// Package roomcode generates the short shareable codes used to address a
// session. Codes are fixed-length, case-insensitive, and drawn from an
// alphabet with the ambiguous characters (0/O, 1/I) removed.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// Length of every generated code.
	Length = 6

	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Generate returns a fresh random room code. Uniqueness among live sessions
// is the caller's responsibility (the store retries on collision).
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	code := make([]byte, Length)
	for i, b := range buf {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code), nil
}

// Normalize canonicalizes a code for case-insensitive lookups.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether a normalized code has the expected shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
