// Package retention enforces a "keep N most recent backups" policy on top
// of the records store.
//
// Unlike backup creation and restore, retention is best-effort: failing to
// delete one file is logged and does not prevent attempting the rest, and
// never blocks a subsequent backup or restore.
package retention

import (
	"context"
	"fmt"
	"os"

	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/records"
)

// Manager prunes old backups.
type Manager struct {
	repo records.Repository
	log  logging.Logger
}

func New(repo records.Repository, log logging.Logger) *Manager {
	return &Manager{repo: repo, log: log}
}

// Enforce deletes the backup file and record for every backup beyond the
// maxCount most recent ones and returns the records it removed.
// Idempotent: a second call with nothing new created deletes nothing.
func (m *Manager) Enforce(ctx context.Context, maxCount int) ([]records.BackupRecord, error) {
	if maxCount < 0 {
		return nil, fmt.Errorf("retention: max count must be >= 0, got %d", maxCount)
	}

	list, err := m.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("retention: list backups: %w", err)
	}
	if len(list) <= maxCount {
		return nil, nil
	}

	var deleted []records.BackupRecord
	for _, rec := range list[maxCount:] {
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			m.log.Warn(ctx, "failed to delete backup file", "path", rec.Path, "error", err)
			continue
		}
		if err := m.repo.Delete(ctx, rec.ID); err != nil {
			m.log.Warn(ctx, "failed to delete backup record", "id", rec.ID, "error", err)
			continue
		}
		m.log.Info(ctx, "pruned old backup", "path", rec.Path, "created_at", rec.CreatedAt)
		deleted = append(deleted, rec)
	}

	return deleted, nil
}
