// Package engine orchestrates encrypted backup creation and atomic
// restore for the live notes database and blob tree.
//
// Create path:  build archive → derive key → encrypt → atomic write → record.
// Restore path: read → decrypt → extract to staging → verify → atomic swap.
//
// At most one operation (create or restore) runs at a time, enforced by an
// operation-level lock. Every step is all-or-nothing: a failure at any
// stage aborts the whole operation and leaves prior state untouched.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notevault/notevault/internal/archive"
	"github.com/notevault/notevault/internal/backupfile"
	"github.com/notevault/notevault/internal/cipherx"
	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/filex"
	"github.com/notevault/notevault/internal/keyderiv"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/records"
	"github.com/notevault/notevault/internal/shared"
)

// BackupExt is the file extension for encrypted backup files.
const BackupExt = ".nvb"

// Options configure an Engine. Zero values for Algorithm and KDFParams
// select the documented defaults (AES-256-GCM, Argon2id 1/64MiB/4).
type Options struct {
	// BackupsDir is where encrypted backup files are written. Restores
	// only accept files inside this directory.
	BackupsDir string
	// DatabasePath is the live SQLite database file of the notes app.
	DatabasePath string
	// BlobRoot is the live content-addressed blob directory.
	BlobRoot string

	Algorithm cipherx.Algorithm
	KDFParams keyderiv.Params
}

// Engine owns the lifecycle of encrypted backup files and their records.
// Construct it once and share the handle; it must not be copied.
type Engine struct {
	opts Options
	repo records.Repository
	log  logging.Logger

	// opMu serializes create and restore. TryLock, never Lock: a second
	// concurrent operation is rejected, not queued.
	opMu sync.Mutex

	// now is a test seam.
	now func() time.Time
}

// New validates opts and returns an Engine.
func New(opts Options, repo records.Repository, log logging.Logger) (*Engine, error) {
	if opts.BackupsDir == "" || opts.DatabasePath == "" || opts.BlobRoot == "" {
		return nil, fmt.Errorf("engine: backups dir, database path and blob root are required")
	}
	if opts.Algorithm == 0 {
		opts.Algorithm = cipherx.AlgorithmAESGCM
	}
	if opts.KDFParams == (keyderiv.Params{}) {
		opts.KDFParams = keyderiv.DefaultParams()
	}
	return &Engine{opts: opts, repo: repo, log: log, now: time.Now}, nil
}

// Create produces a new encrypted backup of the live database and blob
// tree and returns its record.
//
// The operation is cancellable until the backup file is renamed into
// place; a cancelled or failed create leaves no partial file on disk.
func (e *Engine) Create(ctx context.Context, password []byte) (*records.BackupRecord, error) {
	if !e.opMu.TryLock() {
		return nil, common.ErrOperationInProgress
	}
	defer e.opMu.Unlock()

	createdAt := e.now().UTC()
	e.log.Info(ctx, "creating backup", "database", e.opts.DatabasePath, "blob_root", e.opts.BlobRoot)

	manifest, payload, err := archive.Build(e.opts.DatabasePath, e.opts.BlobRoot, createdAt)
	if err != nil {
		return nil, err
	}

	salt, err := shared.RandBytes(keyderiv.SaltSize)
	if err != nil {
		return nil, err
	}
	nonce, err := shared.RandBytes(cipherx.NonceSize)
	if err != nil {
		return nil, err
	}

	key, err := keyderiv.Derive(password, salt, e.opts.KDFParams)
	if err != nil {
		return nil, err
	}
	defer shared.WipeBytes(key)

	ciphertext, err := cipherx.Seal(e.opts.Algorithm, payload, key, nonce)
	if err != nil {
		return nil, err
	}

	data, err := backupfile.Encode(&backupfile.Container{
		Version:    backupfile.FormatVersion,
		Algorithm:  e.opts.Algorithm,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, err
	}

	if err := filex.EnsureDir(e.opts.BackupsDir); err != nil {
		return nil, err
	}

	// Last safe point to abort: the rename inside WriteFileAtomic is the
	// point of no return.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := "backup_" + createdAt.Format("20060102_150405") + BackupExt
	path := filepath.Join(e.opts.BackupsDir, name)
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return nil, err
	}

	manifestHash, err := manifest.Hash()
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	rec := &records.BackupRecord{
		ID:           uuid.NewString(),
		Path:         path,
		SizeBytes:    int64(len(data)),
		ManifestHash: manifestHash,
		CreatedAt:    createdAt,
	}
	if err := e.repo.Create(ctx, rec); err != nil {
		// Keep all-or-nothing: a backup without a record does not exist.
		_ = os.Remove(path)
		return nil, fmt.Errorf("persist backup record: %w", err)
	}

	e.log.Info(ctx, "backup created", "path", path, "size", rec.SizeBytes, "files", len(manifest.Files))
	return rec, nil
}

// List returns all backup records, newest first.
func (e *Engine) List(ctx context.Context) ([]records.BackupRecord, error) {
	return e.repo.List(ctx)
}

// Delete removes one backup file and its record.
func (e *Engine) Delete(ctx context.Context, id string) error {
	rec, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete backup file: %w", err)
	}
	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}
	e.log.Info(ctx, "backup deleted", "id", id, "path", rec.Path)
	return nil
}
