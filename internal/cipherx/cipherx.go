// Package cipherx provides authenticated encryption of backup payloads.
//
// Two AEAD algorithms are supported, selected by an Algorithm tag that is
// persisted alongside the ciphertext so old backups stay decryptable after
// a default change. Both use 32-byte keys and 12-byte nonces and append a
// 16-byte authentication tag to the ciphertext.
package cipherx

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/notevault/notevault/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies the AEAD used for a backup.
type Algorithm byte

const (
	AlgorithmAESGCM           Algorithm = 1
	AlgorithmChaCha20Poly1305 Algorithm = 2
)

const (
	// NonceSize is the nonce length in bytes for both algorithms.
	NonceSize = 12
	// Overhead is the authentication tag length appended to the ciphertext.
	Overhead = 16
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmAESGCM:
		return "aes-256-gcm"
	case AlgorithmChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("algorithm(%d)", byte(a))
	}
}

func newAEAD(alg Algorithm, key []byte) (cipher.AEAD, error) {
	switch alg {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aes cipher: %w", err)
		}
		return cipher.NewGCM(block)
	case AlgorithmChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %d", common.ErrUnknownAlgorithm, byte(alg))
	}
}

// Seal encrypts plaintext with the given 32-byte key and 12-byte nonce and
// returns ciphertext with the authentication tag appended.
//
// The caller must supply a freshly random nonce per invocation; reusing a
// (key, nonce) pair destroys the confidentiality and authenticity
// guarantees.
func Seal(alg Algorithm, plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext produced by Seal and verifies its tag. A failed
// verification is reported as common.ErrAuthenticationFailed regardless of
// whether the key was wrong or the data was tampered with; the two cases
// are indistinguishable by design.
func Open(alg Algorithm, ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}
