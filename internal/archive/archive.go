// Package archive packages the live database file and blob tree into a
// single self-describing byte stream, and unpacks such a stream into a
// staging directory.
//
// Stream layout: an 8-byte big-endian manifest length, the manifest JSON,
// then the raw bytes of every referenced file concatenated in manifest
// order. The database file is stored under its base name at the archive
// root; blob files are stored under "blobs/" preserving their layout
// relative to the blob root.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/notevault/notevault/internal/common"
)

// BlobPrefix is the archive-root directory blob files are stored under.
const BlobPrefix = "blobs"

// Build walks the database file and the blob root and produces the archive
// byte stream together with its manifest. Entries are ordered
// lexicographically by relative path. Any unreadable file aborts the build;
// no partial archive is ever returned.
//
// A missing blob root is treated as empty (a fresh installation has no
// attachments yet). A missing database file is an error.
func Build(databasePath, blobRoot string, createdAt time.Time) (*Manifest, []byte, error) {
	sources := map[string]string{} // archive path -> filesystem path

	dbName := filepath.Base(databasePath)
	sources[dbName] = databasePath

	if _, err := os.Stat(blobRoot); err == nil {
		err := filepath.WalkDir(blobRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(blobRoot, p)
			if err != nil {
				return err
			}
			sources[path.Join(BlobPrefix, filepath.ToSlash(rel))] = p
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: walk blob root: %w", common.ErrArchive, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: stat blob root: %w", common.ErrArchive, err)
	}

	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	manifest := &Manifest{
		FormatVersion: ManifestVersion,
		CreatedAt:     createdAt,
		Files:         make([]FileEntry, 0, len(paths)),
	}

	contents := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(sources[p])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read %s: %w", common.ErrArchive, sources[p], err)
		}
		manifest.Files = append(manifest.Files, FileEntry{
			Path:     p,
			Size:     int64(len(data)),
			Checksum: ChecksumBytes(data),
		})
		contents = append(contents, data)
	}

	manifestJSON, err := manifest.Marshal()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrArchive, err)
	}

	var total int
	for _, c := range contents {
		total += len(c)
	}

	out := make([]byte, 0, 8+len(manifestJSON)+total)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(manifestJSON)))
	out = append(out, lenBuf[:]...)
	out = append(out, manifestJSON...)
	for _, c := range contents {
		out = append(out, c...)
	}

	return manifest, out, nil
}

// Extract parses the archive stream and writes every file under destRoot,
// preserving relative paths. destRoot must be a staging directory; Extract
// is never pointed at live storage.
//
// The parsed manifest is returned so the caller can verify the extracted
// tree against it.
func Extract(data []byte, destRoot string) (*Manifest, error) {
	manifest, rest, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	for _, entry := range manifest.Files {
		if err := validateEntryPath(entry.Path); err != nil {
			return nil, err
		}
		if entry.Size < 0 || int64(len(rest)) < entry.Size {
			return nil, fmt.Errorf("%w: truncated archive at %s", common.ErrArchive, entry.Path)
		}

		fileData := rest[:entry.Size]
		rest = rest[entry.Size:]

		dest := filepath.Join(destRoot, filepath.FromSlash(entry.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
			return nil, fmt.Errorf("%w: mkdir for %s: %w", common.ErrArchive, entry.Path, err)
		}
		if err := os.WriteFile(dest, fileData, 0o600); err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", common.ErrArchive, entry.Path, err)
		}
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after last entry", common.ErrArchive, len(rest))
	}

	return manifest, nil
}

// ParseManifest reads only the manifest section of an archive stream.
func ParseManifest(data []byte) (*Manifest, error) {
	manifest, _, err := parseHeader(data)
	return manifest, err
}

func parseHeader(data []byte) (*Manifest, []byte, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("%w: stream too short", common.ErrArchive)
	}
	manifestLen := binary.BigEndian.Uint64(data[:8])
	if manifestLen > uint64(len(data)-8) {
		return nil, nil, fmt.Errorf("%w: manifest length %d exceeds stream", common.ErrArchive, manifestLen)
	}

	var manifest Manifest
	if err := json.Unmarshal(data[8:8+manifestLen], &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: unmarshal manifest: %w", common.ErrArchive, err)
	}
	if manifest.FormatVersion != ManifestVersion {
		return nil, nil, fmt.Errorf("%w: unsupported manifest version %d", common.ErrArchive, manifest.FormatVersion)
	}

	return &manifest, data[8+manifestLen:], nil
}

// validateEntryPath rejects entry paths that would escape the destination
// root (absolute paths or ".." components).
func validateEntryPath(p string) error {
	if p == "" || path.IsAbs(p) || strings.Contains(p, "\\") {
		return fmt.Errorf("%w: invalid entry path %q", common.ErrArchive, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: invalid entry path %q", common.ErrArchive, p)
	}
	return nil
}
