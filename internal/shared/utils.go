// Package shared provides small utilities for working with random byte
// material and secure memory wiping.
package shared

import (
	"crypto/rand"
	"fmt"
)

// RandBytes returns size bytes read from the system CSPRNG. Salts and
// nonces must always come from here, never from math/rand.
func RandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("rand read: %w", err)
	}
	return b, nil
}

// WipeBytes overwrites the contents of the provided byte slice with zeros.
// This is useful for removing sensitive data such as passwords or derived
// keys from memory after use.
//
// If the slice is nil, the function does nothing.
func WipeBytes(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
