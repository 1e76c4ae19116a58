// Package keyderiv turns a user password and a random salt into a fixed
// length symmetric key using Argon2id.
//
// Derivation is deliberately expensive: the cost parameters make guessing
// many passwords prohibitively slow. Any password produces some key; a
// wrong password is only detected later, when the cipher's authentication
// tag fails to verify.
package keyderiv

import (
	"fmt"

	"github.com/notevault/notevault/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the required salt length in bytes.
	SaltSize = 16
	// KeySize is the derived key length in bytes (AES-256 / ChaCha20 key).
	KeySize = 32
)

// Params are the Argon2id cost parameters.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams returns the cost parameters used for new backups:
// one pass over 64 MiB with 4 lanes.
func DefaultParams() Params {
	return Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// Validate reports whether the parameters are usable.
func (p Params) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("%w: time cost must be > 0", common.ErrKeyDerivation)
	}
	// Argon2 requires at least 8 KiB per lane.
	if p.Threads == 0 {
		return fmt.Errorf("%w: thread count must be > 0", common.ErrKeyDerivation)
	}
	if p.MemoryKiB < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: memory %d KiB too low for %d threads", common.ErrKeyDerivation, p.MemoryKiB, p.Threads)
	}
	return nil
}

// Derive computes a 32-byte key from password and salt. Deterministic for
// a given (password, salt, params) triple. Fails only on parameter
// misconfiguration or a salt of the wrong length, never on the password
// itself.
func Derive(password []byte, salt []byte, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", common.ErrKeyDerivation, SaltSize, len(salt))
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize), nil
}
