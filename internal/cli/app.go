// Package cli implements the notevault command-line front-end.
//
// Subcommands:
//
//	create            create an encrypted backup of the live data
//	restore <file>    restore from an encrypted backup (replaces live data)
//	list              list known backups, newest first
//	delete <id>       delete one backup file and its record
//	prune             enforce the retention policy now
//	run               run the auto-backup scheduler until interrupted
package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/notevault/notevault/internal/blobstore"
	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/engine"
	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/records"
	"github.com/notevault/notevault/internal/retention"
	"github.com/notevault/notevault/internal/scheduler"
	"github.com/notevault/notevault/internal/shared"

	_ "modernc.org/sqlite"
)

// App wires the engine, retention manager and records store together
// behind the subcommand dispatcher.
type App struct {
	cfg       *config.Config
	engine    *engine.Engine
	retention *retention.Manager
	log       logging.Logger

	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the records database and constructs the application.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := records.Open(ctx, cfg.RecordsDSN)
	if err != nil {
		return nil, err
	}

	repo := records.NewSQLiteRepository(db)

	// The blob root is owned by the notes app, but a fresh install may not
	// have created it yet.
	if err := blobstore.New(cfg.BlobRoot).Init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Options{
		BackupsDir:   cfg.BackupsDir,
		DatabasePath: cfg.DatabasePath,
		BlobRoot:     cfg.BlobRoot,
	}, repo, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		engine:    eng,
		retention: retention.New(repo, log),
		log:       log,
		db:        db,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

// Close releases the records database handle.
func (a *App) Close() error {
	return a.db.Close()
}

// Run dispatches a subcommand. args is os.Args[1:] minus any flags the
// config layer consumed.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return nil
	}

	switch args[0] {
	case "create":
		return a.runCreate(ctx)
	case "restore":
		if len(args) < 2 {
			return fmt.Errorf("usage: restore <backup-file>")
		}
		return a.runRestore(ctx, args[1])
	case "list":
		return a.runList(ctx)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: delete <backup-id>")
		}
		return a.engine.Delete(ctx, args[1])
	case "prune":
		return a.runPrune(ctx)
	case "run":
		return a.runScheduler(ctx)
	default:
		a.printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) runCreate(ctx context.Context) error {
	password, err := GetPassword(a.out, "Enter backup password: ")
	if err != nil {
		return err
	}
	defer shared.WipeBytes(password)

	confirm, err := GetPassword(a.out, "Repeat backup password: ")
	if err != nil {
		return err
	}
	defer shared.WipeBytes(confirm)

	if !bytes.Equal(password, confirm) {
		return fmt.Errorf("passwords do not match")
	}

	rec, err := a.engine.Create(ctx, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Backup created: %s (%d bytes)\n", rec.Path, rec.SizeBytes)
	return nil
}

func (a *App) runRestore(ctx context.Context, path string) error {
	ok, err := GetConfirmation(a.reader,
		"Restoring will REPLACE the current database and attachments.", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Aborted.")
		return nil
	}

	password, err := GetPassword(a.out, "Enter backup password: ")
	if err != nil {
		return err
	}
	defer shared.WipeBytes(password)

	if err := a.engine.Restore(ctx, path, password); err != nil {
		// Do not reveal whether the password was wrong or the file was
		// tampered with.
		return fmt.Errorf("could not restore, check the password or try another backup file: %w", err)
	}

	fmt.Fprintln(a.out, "Restore complete.")
	return nil
}

func (a *App) runList(ctx context.Context) error {
	list, err := a.engine.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No backups found.")
		return nil
	}

	for _, rec := range list {
		fmt.Fprintf(a.out, "%s  %s  %10d bytes  %s\n",
			rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.SizeBytes, rec.Path)
	}
	return nil
}

func (a *App) runPrune(ctx context.Context) error {
	deleted, err := a.retention.Enforce(ctx, a.cfg.RetentionCount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pruned %d backup(s), keeping the %d most recent.\n", len(deleted), a.cfg.RetentionCount)
	return nil
}

func (a *App) runScheduler(ctx context.Context) error {
	password, err := GetPassword(a.out, "Enter backup password for scheduled runs: ")
	if err != nil {
		return err
	}
	defer shared.WipeBytes(password)

	// Copy so the scheduler owns its secret independently of the wipe above.
	stored := bytes.Clone(password)
	defer shared.WipeBytes(stored)

	s := scheduler.New(a.engine, a.retention,
		func() ([]byte, error) { return bytes.Clone(stored), nil },
		a.cfg.AutoBackupInterval, a.cfg.RetentionCount, a.log)

	s.Run(ctx)
	return nil
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, `notevault: encrypted backup and restore for the notes database

Usage:
  notevault [flags] <command>

Commands:
  create            create an encrypted backup
  restore <file>    restore from a backup (replaces live data)
  list              list known backups
  delete <id>       delete a backup
  prune             prune old backups beyond the retention count
  run               run the auto-backup scheduler

Flags:
  -c, -config path to a JSON config file
  -db, -blobs, -backups, -records, -n, -i (see -h of each)`)
}
