// Package blobstore implements content-addressed storage for note
// attachments. Data is keyed by its hex SHA-256 hash and laid out in a
// two-level directory fan-out for filesystem performance:
//
//	<root>/ab/cd/abcd1234...
//
// Writes go through a temp file and rename, so a crash never leaves a
// partially written blob at its final path.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/filex"
)

// Store is a content-addressed blob store rooted at a single directory.
type Store struct {
	root string
}

// New returns a Store rooted at root. Call Init before first use.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Init creates the root directory if it does not exist.
func (s *Store) Init() error {
	return filex.EnsureDir(s.root)
}

// Write stores data and returns its hex SHA-256 hash. Writing the same
// content twice is a no-op returning the same hash.
func (s *Store) Write(data []byte) (string, error) {
	hash := HashBytes(data)

	path, err := s.path(hash)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}

	if err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write blob %s: %w", hash, err)
	}
	return hash, nil
}

// Read returns the contents of the blob with the given hash, or
// common.ErrorNotFound if it does not exist.
func (s *Store) Read(hash string) ([]byte, error) {
	path, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", hash, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", hash, err)
	}
	return data, nil
}

// Exists reports whether a blob with the given hash is stored.
func (s *Store) Exists(hash string) (bool, error) {
	path, err := s.path(hash)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(hash string) error {
	path, err := s.path(hash)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", hash, err)
	}
	return nil
}

// ListAll returns the hashes of every stored blob.
func (s *Store) ListAll() ([]string, error) {
	var hashes []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == s.root {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			hashes = append(hashes, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	return hashes, nil
}

func (s *Store) path(hash string) (string, error) {
	if len(hash) != sha256.Size*2 {
		return "", fmt.Errorf("invalid blob hash %q", hash)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return "", fmt.Errorf("invalid blob hash %q", hash)
	}
	return filepath.Join(s.root, hash[0:2], hash[2:4], hash), nil
}

// HashBytes returns the hex-encoded SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
