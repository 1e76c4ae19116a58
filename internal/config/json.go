package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/notevault/notevault/internal/flagx"
	"github.com/notevault/notevault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "12h" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	DatabasePath       string         `json:"database_path"`
	BlobRoot           string         `json:"blob_root"`
	BackupsDir         string         `json:"backups_dir"`
	RecordsDSN         string         `json:"records_dsn"`
	RetentionCount     *int           `json:"retention_count"`
	AutoBackupInterval timex.Duration `json:"auto_backup_interval"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flags; when neither is present no JSON
// is loaded. Absent JSON fields leave the current Config values untouched.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.BlobRoot != "" {
		cfg.BlobRoot = jc.BlobRoot
	}
	if jc.BackupsDir != "" {
		cfg.BackupsDir = jc.BackupsDir
	}
	if jc.RecordsDSN != "" {
		cfg.RecordsDSN = jc.RecordsDSN
	}
	if jc.RetentionCount != nil {
		cfg.RetentionCount = *jc.RetentionCount
	}
	if jc.AutoBackupInterval.Duration != 0 {
		cfg.AutoBackupInterval = time.Duration(jc.AutoBackupInterval.Duration)
	}
}
