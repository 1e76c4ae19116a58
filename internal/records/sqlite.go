package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/dbx"
)

// timeLayout is a fixed-width RFC3339 variant so that lexicographic
// ordering of the stored text equals chronological ordering. All values
// are stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *BackupRecord) error {
	query := `INSERT INTO backups (id, path, size_bytes, manifest_hash, created_at)
			VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Path, rec.SizeBytes, rec.ManifestHash, rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert backup record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]BackupRecord, error) {
	query := `SELECT id, path, size_bytes, manifest_hash, created_at
			FROM backups ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select backup records: %w", err)
	}
	defer rows.Close()

	var result []BackupRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*BackupRecord, error) {
	query := `SELECT id, path, size_bytes, manifest_hash, created_at
			FROM backups WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (*BackupRecord, error) {
	rec := &BackupRecord{}
	var createdAt string
	if err := scan(&rec.ID, &rec.Path, &rec.SizeBytes, &rec.ManifestHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan backup record: %w", err)
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}
