package config

import "time"

// Config holds runtime settings for the notevault backup tool.
//
// Fields:
//   - DatabasePath: the live SQLite database file of the notes app.
//   - BlobRoot: the live content-addressed blob directory.
//   - BackupsDir: where encrypted backup files are written.
//   - RecordsDSN: SQLite DSN for the backup-records database.
//   - RetentionCount: how many recent backups to keep when pruning.
//   - AutoBackupInterval: how often the scheduler creates a backup.
type Config struct {
	DatabasePath       string
	BlobRoot           string
	BackupsDir         string
	RecordsDSN         string
	RetentionCount     int
	AutoBackupInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "data/notes.db"
	c.BlobRoot = "data/blobs"
	c.BackupsDir = "data/backups"
	c.RecordsDSN = "data/backups.db"
	c.RetentionCount = 10
	c.AutoBackupInterval = 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
