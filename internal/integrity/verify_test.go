package integrity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notevault/notevault/internal/archive"
	"github.com/notevault/notevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAndExtract produces an extracted archive tree plus its manifest.
func buildAndExtract(t *testing.T) (string, *archive.Manifest) {
	t.Helper()

	src := t.TempDir()
	dbPath := filepath.Join(src, "notes.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("database"), 0o600))

	blobRoot := filepath.Join(src, "blobs")
	require.NoError(t, os.MkdirAll(filepath.Join(blobRoot, "ab"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(blobRoot, "ab", "abef01"), []byte("attachment"), 0o600))

	_, stream, err := archive.Build(dbPath, blobRoot, time.Now().UTC())
	require.NoError(t, err)

	dest := t.TempDir()
	manifest, err := archive.Extract(stream, dest)
	require.NoError(t, err)

	return dest, manifest
}

func TestVerify_CleanTreeSucceeds(t *testing.T) {
	dest, manifest := buildAndExtract(t)
	require.NoError(t, Verify(dest, manifest))
}

func TestVerify_MutatedFileNamedInError(t *testing.T) {
	dest, manifest := buildAndExtract(t)

	// Flip one byte in an extracted blob.
	p := filepath.Join(dest, "blobs", "ab", "abef01")
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(p, data, 0o600))

	err = Verify(dest, manifest)
	require.ErrorIs(t, err, common.ErrIntegrityFailed)

	var mismatch *ChecksumMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "blobs/ab/abef01", mismatch.Path)
}

func TestVerify_SizeMismatch(t *testing.T) {
	dest, manifest := buildAndExtract(t)

	p := filepath.Join(dest, "notes.db")
	require.NoError(t, os.WriteFile(p, []byte("database-grown"), 0o600))

	var mismatch *ChecksumMismatchError
	err := Verify(dest, manifest)
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "notes.db", mismatch.Path)
}

func TestVerify_MissingEntry(t *testing.T) {
	dest, manifest := buildAndExtract(t)

	require.NoError(t, os.Remove(filepath.Join(dest, "notes.db")))

	err := Verify(dest, manifest)
	require.ErrorIs(t, err, common.ErrIntegrityFailed)
}

func TestVerify_UnexpectedExtraFile(t *testing.T) {
	dest, manifest := buildAndExtract(t)

	require.NoError(t, os.WriteFile(filepath.Join(dest, "stray.txt"), []byte("who put this here"), 0o600))

	err := Verify(dest, manifest)
	require.ErrorIs(t, err, common.ErrIntegrityFailed)
}
