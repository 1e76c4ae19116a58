// Package records persists backup metadata in a local SQLite database.
// One BackupRecord exists per successfully created backup file; records
// are never mutated, only created and deleted.
package records

import "time"

// BackupRecord is the persisted metadata for one encrypted backup file.
type BackupRecord struct {
	ID           string
	Path         string
	SizeBytes    int64
	ManifestHash string
	CreatedAt    time.Time
}
