package registry

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyLength is the length of a raw ingestion key.
	KeyLength = 20
	// KeyPrefixLength is how much of the key is stored in clear for lookup.
	KeyPrefixLength = 8

	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// maxUnbiased is the largest multiple of len(keyAlphabet) that fits in a byte.
// Bytes at or above it are rejected so every symbol is equally likely.
const maxUnbiased = 256 - 256%len(keyAlphabet)

// generateKey returns a random alphanumeric key of KeyLength characters.
func generateKey() (string, error) {
	out := make([]byte, 0, KeyLength)
	buf := make([]byte, KeyLength*2)
	for len(out) < KeyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, keyAlphabet[int(b)%len(keyAlphabet)])
			if len(out) == KeyLength {
				break
			}
		}
	}
	return string(out), nil
}

// hashKey returns the bcrypt hash stored in place of the raw key.
func hashKey(raw string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(h), nil
}
