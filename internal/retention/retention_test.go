package retention

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setup(t *testing.T) (*Manager, records.Repository, string) {
	t.Helper()
	db, err := records.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := records.NewSQLiteRepository(db)
	return New(repo, testLogger()), repo, t.TempDir()
}

// seedBackups creates count fake backup files plus records, oldest first,
// and returns the records in creation order.
func seedBackups(t *testing.T, repo records.Repository, dir string, count int) []records.BackupRecord {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var recs []records.BackupRecord
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, uuid.NewString()+".nvb")
		require.NoError(t, os.WriteFile(path, []byte("encrypted"), 0o600))

		rec := records.BackupRecord{
			ID:           uuid.NewString(),
			Path:         path,
			SizeBytes:    9,
			ManifestHash: "hash",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, &rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestEnforce_KeepsNewest(t *testing.T) {
	m, repo, dir := setup(t)
	ctx := context.Background()

	recs := seedBackups(t, repo, dir, 5)

	deleted, err := m.Enforce(ctx, 2)
	require.NoError(t, err)
	require.Len(t, deleted, 3)

	remaining, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	// the two most recent survive
	assert.Equal(t, recs[4].ID, remaining[0].ID)
	assert.Equal(t, recs[3].ID, remaining[1].ID)

	// pruned files are gone from disk, kept files remain
	for _, rec := range recs[:3] {
		_, err := os.Stat(rec.Path)
		assert.True(t, os.IsNotExist(err), "file %s should be deleted", rec.Path)
	}
	for _, rec := range recs[3:] {
		_, err := os.Stat(rec.Path)
		assert.NoError(t, err)
	}
}

func TestEnforce_Idempotent(t *testing.T) {
	m, repo, dir := setup(t)
	ctx := context.Background()

	seedBackups(t, repo, dir, 4)

	deleted, err := m.Enforce(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	deleted, err = m.Enforce(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, deleted, "second enforcement must delete nothing further")
}

func TestEnforce_UnderLimit(t *testing.T) {
	m, repo, dir := setup(t)

	seedBackups(t, repo, dir, 2)

	deleted, err := m.Enforce(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestEnforce_MissingFileStillDeletesRecord(t *testing.T) {
	m, repo, dir := setup(t)
	ctx := context.Background()

	recs := seedBackups(t, repo, dir, 3)
	require.NoError(t, os.Remove(recs[0].Path))

	deleted, err := m.Enforce(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	remaining, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestEnforce_NegativeMaxCount(t *testing.T) {
	m, _, _ := setup(t)
	_, err := m.Enforce(context.Background(), -1)
	require.Error(t, err)
}

func TestEnforce_ZeroDeletesAll(t *testing.T) {
	m, repo, dir := setup(t)
	ctx := context.Background()

	seedBackups(t, repo, dir, 3)

	deleted, err := m.Enforce(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, deleted, 3)

	remaining, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
