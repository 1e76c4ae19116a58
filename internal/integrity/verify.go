// Package integrity re-checks an extracted archive tree against its
// manifest before any live data is touched. It is the last line of defense
// against applying a corrupted or incomplete backup.
package integrity

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/notevault/notevault/internal/archive"
	"github.com/notevault/notevault/internal/common"
)

// ChecksumMismatchError reports the first manifest entry whose on-disk
// content hash does not match. It unwraps to common.ErrIntegrityFailed.
type ChecksumMismatchError struct {
	Path string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: %s", e.Path)
}

func (e *ChecksumMismatchError) Unwrap() error {
	return common.ErrIntegrityFailed
}

// Verify recomputes the content hash of every file at its expected
// relative path under root and compares it to the manifest entry. It also
// checks that no manifest entry is missing on disk and that the tree
// contains no files the manifest does not describe.
//
// The first mismatch found is returned as a *ChecksumMismatchError.
func Verify(root string, manifest *archive.Manifest) error {
	expected := make(map[string]struct{}, len(manifest.Files))

	for _, entry := range manifest.Files {
		expected[entry.Path] = struct{}{}

		p := filepath.Join(root, filepath.FromSlash(entry.Path))
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%w: missing or unreadable entry %s: %w", common.ErrIntegrityFailed, entry.Path, err)
		}
		if int64(len(data)) != entry.Size {
			return &ChecksumMismatchError{Path: entry.Path}
		}
		if archive.ChecksumBytes(data) != entry.Checksum {
			return &ChecksumMismatchError{Path: entry.Path}
		}
	}

	// Reject files the manifest does not know about.
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if _, ok := expected[filepath.ToSlash(rel)]; !ok {
			return fmt.Errorf("%w: unexpected file %s", common.ErrIntegrityFailed, rel)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}
