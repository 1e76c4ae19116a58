package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRecord(createdAt time.Time) *BackupRecord {
	return &BackupRecord{
		ID:           uuid.NewString(),
		Path:         "/backups/backup_20260801_120000.nvb",
		SizeBytes:    4096,
		ManifestHash: "deadbeef",
		CreatedAt:    createdAt,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := newRecord(time.Date(2026, 8, 1, 12, 0, 0, 123456789, time.UTC))
	require.NoError(t, r.Create(ctx, rec))

	got, err := r.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.SizeBytes, got.SizeBytes)
	assert.Equal(t, rec.ManifestHash, got.ManifestHash)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt), "timestamps must round-trip exactly")
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "no-such-id")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		rec := newRecord(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, r.Create(ctx, rec))
		ids = append(ids, rec.ID)
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)
}

func TestList_Empty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	list, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := newRecord(time.Now().UTC())
	require.NoError(t, r.Create(ctx, rec))

	require.NoError(t, r.Delete(ctx, rec.ID))

	_, err := r.GetByID(ctx, rec.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	// deleting twice reports not found
	require.ErrorIs(t, r.Delete(ctx, rec.ID), common.ErrorNotFound)
}
