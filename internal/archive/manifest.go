package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ManifestVersion is written into every new manifest.
const ManifestVersion = 1

// FileEntry describes one file inside an archive.
type FileEntry struct {
	// Path is relative to the archive root, slash-separated.
	Path string `json:"path"`
	Size int64  `json:"size"`
	// Checksum is the hex-encoded SHA-256 of the file contents.
	Checksum string `json:"checksum"`
}

// Manifest is the authoritative list of files an archive contains.
// Entries are ordered lexicographically by Path so that two archives of
// identical content are byte-identical.
type Manifest struct {
	FormatVersion int         `json:"format_version"`
	CreatedAt     time.Time   `json:"created_at"`
	Files         []FileEntry `json:"files"`
}

// Marshal serializes the manifest to JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// Hash returns the hex-encoded SHA-256 of the serialized manifest. It is
// stored in the BackupRecord so a backup file can later be matched against
// the manifest it was created with.
func (m *Manifest) Hash() (string, error) {
	data, err := m.Marshal()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChecksumBytes returns the hex-encoded SHA-256 of data.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
