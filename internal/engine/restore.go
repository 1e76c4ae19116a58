package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/notevault/notevault/internal/archive"
	"github.com/notevault/notevault/internal/backupfile"
	"github.com/notevault/notevault/internal/cipherx"
	"github.com/notevault/notevault/internal/common"
	"github.com/notevault/notevault/internal/filex"
	"github.com/notevault/notevault/internal/integrity"
	"github.com/notevault/notevault/internal/keyderiv"
	"github.com/notevault/notevault/internal/shared"
)

// osRename is a seam for injecting rename failures in tests.
var osRename = os.Rename

// Restore replaces the live database and blob tree with the contents of
// the given encrypted backup file.
//
// The whole decrypt/extract/verify pipeline runs against a staging
// directory; live storage is only touched during the final swap, which
// either completes fully or rolls back fully. A wrong password and a
// tampered file are reported identically as common.ErrAuthenticationFailed.
func (e *Engine) Restore(ctx context.Context, backupPath string, password []byte) error {
	if !e.opMu.TryLock() {
		return common.ErrOperationInProgress
	}
	defer e.opMu.Unlock()

	if err := e.checkContained(backupPath); err != nil {
		return err
	}

	e.log.Info(ctx, "restoring backup", "path", backupPath)

	container, err := backupfile.ReadFile(backupPath)
	if err != nil {
		return err
	}

	key, err := keyderiv.Derive(password, container.Salt, e.opts.KDFParams)
	if err != nil {
		return err
	}
	defer shared.WipeBytes(key)

	payload, err := cipherx.Open(container.Algorithm, container.Ciphertext, key, container.Nonce)
	if err != nil {
		return err
	}

	// Stage next to the live data so the final renames stay on one
	// filesystem.
	liveParent := filepath.Dir(e.opts.DatabasePath)
	if err := filex.EnsureDir(liveParent); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(liveParent, ".restore-staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	manifest, err := archive.Extract(payload, staging)
	if err != nil {
		return err
	}

	if err := integrity.Verify(staging, manifest); err != nil {
		return err
	}

	dbName, err := databaseEntryName(manifest)
	if err != nil {
		return err
	}

	// Last cancellation point: once the swap starts, the operation runs
	// to full completion or full rollback.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.swap(ctx, staging, dbName); err != nil {
		return err
	}

	e.log.Info(ctx, "backup restored", "path", backupPath, "files", len(manifest.Files))
	return nil
}

// checkContained rejects backup paths outside the configured backups
// directory (path traversal defense: the path typically originates from a
// UI file picker).
func (e *Engine) checkContained(backupPath string) error {
	absDir, err := filepath.Abs(e.opts.BackupsDir)
	if err != nil {
		return fmt.Errorf("resolve backups dir: %w", err)
	}
	absPath, err := filepath.Abs(backupPath)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return fmt.Errorf("%w: backup path %s is outside the backups directory", common.ErrInvalidFormat, backupPath)
	}
	return nil
}

// databaseEntryName returns the single archive-root entry, which is the
// database file. Blob entries all live under the blobs/ prefix.
func databaseEntryName(m *archive.Manifest) (string, error) {
	var name string
	for _, f := range m.Files {
		if strings.Contains(f.Path, "/") {
			continue
		}
		if name != "" {
			return "", fmt.Errorf("%w: multiple root entries in manifest", common.ErrArchive)
		}
		name = f.Path
	}
	if name == "" {
		return "", fmt.Errorf("%w: no database entry in manifest", common.ErrArchive)
	}
	return name, nil
}

// swap atomically replaces live storage with staged contents.
//
// The current database and blob root are first moved into a rollback
// holding area, then the staged versions are moved into place. If any move
// fails, everything already moved is put back; only when even the
// put-back fails is common.ErrInconsistentState raised. The exclusive
// window covers filesystem renames only, never the decrypt/verify work.
func (e *Engine) swap(ctx context.Context, staging, dbName string) error {
	fl := flock.New(e.opts.DatabasePath + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("%w: lock live storage: %w", common.ErrSwapFailed, err)
	}
	defer func() { _ = fl.Unlock() }()

	liveParent := filepath.Dir(e.opts.DatabasePath)
	rollback, err := os.MkdirTemp(liveParent, ".restore-rollback-")
	if err != nil {
		return fmt.Errorf("%w: create rollback dir: %w", common.ErrSwapFailed, err)
	}

	// The backup may legitimately contain no blobs.
	stagedBlobs := filepath.Join(staging, archive.BlobPrefix)
	if err := filex.EnsureDir(stagedBlobs); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSwapFailed, err)
	}

	type move struct{ from, to string }
	var undo []move

	moveAside := func(live, name string) error {
		if _, err := os.Stat(live); os.IsNotExist(err) {
			return nil
		}
		aside := filepath.Join(rollback, name)
		if err := osRename(live, aside); err != nil {
			return err
		}
		undo = append(undo, move{from: aside, to: live})
		return nil
	}

	rollbackAll := func() error {
		for i := len(undo) - 1; i >= 0; i-- {
			// Remove anything a later step managed to put at the live
			// path before restoring the original.
			_ = os.RemoveAll(undo[i].to)
			if err := osRename(undo[i].from, undo[i].to); err != nil {
				return err
			}
		}
		return nil
	}

	fail := func(cause error) error {
		if rbErr := rollbackAll(); rbErr != nil {
			e.log.Error(ctx, "CRITICAL: rollback failed after swap failure; live storage is inconsistent",
				"swap_error", cause, "rollback_error", rbErr, "rollback_dir", rollback)
			return fmt.Errorf("%w: swap failed (%v) and rollback failed (%v)", common.ErrInconsistentState, cause, rbErr)
		}
		_ = os.RemoveAll(rollback)
		return fmt.Errorf("%w: %v", common.ErrSwapFailed, cause)
	}

	if err := moveAside(e.opts.DatabasePath, "database"); err != nil {
		return fail(err)
	}
	if err := moveAside(e.opts.BlobRoot, "blobs"); err != nil {
		return fail(err)
	}

	if err := osRename(filepath.Join(staging, dbName), e.opts.DatabasePath); err != nil {
		return fail(err)
	}
	if err := osRename(stagedBlobs, e.opts.BlobRoot); err != nil {
		_ = os.RemoveAll(e.opts.DatabasePath)
		return fail(err)
	}

	_ = os.RemoveAll(rollback)
	return nil
}
