package config

import (
	"flag"
	"os"
	"time"

	"github.com/notevault/notevault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-db string       path to the live notes database file
//	-blobs string    path to the live blob directory
//	-backups string  directory encrypted backups are written to
//	-records string  SQLite DSN for the backup-records database
//	-n int           retention count (backups to keep)
//	-i int           auto-backup interval in minutes
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-db", "-blobs", "-backups", "-records", "-n", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path to the live notes database file")
	fs.StringVar(&cfg.BlobRoot, "blobs", cfg.BlobRoot, "path to the live blob directory")
	fs.StringVar(&cfg.BackupsDir, "backups", cfg.BackupsDir, "directory encrypted backups are written to")
	fs.StringVar(&cfg.RecordsDSN, "records", cfg.RecordsDSN, "SQLite DSN for the backup-records database")
	fs.IntVar(&cfg.RetentionCount, "n", cfg.RetentionCount, "number of recent backups to keep")
	interval := fs.Int("i", int(cfg.AutoBackupInterval.Minutes()), "auto-backup interval (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutoBackupInterval = time.Duration(*interval) * time.Minute
}
