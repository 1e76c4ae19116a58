// Package backupfile implements the on-disk container for encrypted
// backups.
//
// Layout (all fields in order, no padding):
//
//	magic          4 bytes  "NVBK"
//	format version 1 byte   currently 1
//	algorithm      1 byte   cipherx.Algorithm tag
//	salt           16 bytes
//	nonce          12 bytes
//	ciphertext     rest of file (includes the AEAD tag)
//
// The three crypto fields round-trip exactly; anything shorter than the
// fixed header, or carrying the wrong magic or version, is rejected as
// common.ErrInvalidFormat.
package backupfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/notevault/notevault/internal/cipherx"
	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/keyderiv"
)

// FormatVersion is the container version written for new backups.
const FormatVersion = 1

var magic = []byte("NVBK")

const headerSize = 4 + 1 + 1 + keyderiv.SaltSize + cipherx.NonceSize

// Container is the decoded form of a backup file.
type Container struct {
	Version    byte
	Algorithm  cipherx.Algorithm
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// Encode serializes c into the on-disk byte layout.
func Encode(c *Container) ([]byte, error) {
	if len(c.Salt) != keyderiv.SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", keyderiv.SaltSize, len(c.Salt))
	}
	if len(c.Nonce) != cipherx.NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", cipherx.NonceSize, len(c.Nonce))
	}

	buf := make([]byte, 0, headerSize+len(c.Ciphertext))
	buf = append(buf, magic...)
	buf = append(buf, c.Version, byte(c.Algorithm))
	buf = append(buf, c.Salt...)
	buf = append(buf, c.Nonce...)
	buf = append(buf, c.Ciphertext...)
	return buf, nil
}

// Decode parses the on-disk byte layout back into a Container.
func Decode(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", common.ErrInvalidFormat, len(data))
	}
	if !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("%w: bad magic", common.ErrInvalidFormat)
	}
	version := data[4]
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", common.ErrInvalidFormat, version)
	}

	c := &Container{
		Version:   version,
		Algorithm: cipherx.Algorithm(data[5]),
	}
	off := 6
	c.Salt = bytes.Clone(data[off : off+keyderiv.SaltSize])
	off += keyderiv.SaltSize
	c.Nonce = bytes.Clone(data[off : off+cipherx.NonceSize])
	off += cipherx.NonceSize
	c.Ciphertext = bytes.Clone(data[off:])
	return c, nil
}

// ReadFile reads and decodes a backup file from disk.
func ReadFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup file: %w", err)
	}
	return Decode(data)
}
