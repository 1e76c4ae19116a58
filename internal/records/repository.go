package records

import "context"

// Repository stores BackupRecords.
type Repository interface {
	// Create persists a new record.
	Create(ctx context.Context, r *BackupRecord) error

	// List returns all records ordered by CreatedAt descending.
	List(ctx context.Context) ([]BackupRecord, error)

	// GetByID returns one record or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*BackupRecord, error)

	// Delete removes a record by id. Deleting a missing record returns
	// common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
