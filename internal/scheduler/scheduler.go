// Package scheduler triggers automatic backups on a fixed interval.
//
// It is a thin policy layer: it only decides when to call the engine.
// Unlike the engine itself, the scheduler degrades gracefully — a failed
// run is logged and the next tick proceeds as usual.
package scheduler

import (
	"context"
	"time"

	"github.com/notevault/notevault/internal/logging"
	"github.com/notevault/notevault/internal/records"
	"github.com/notevault/notevault/internal/shared"
)

// BackupCreator is the slice of the engine the scheduler needs.
type BackupCreator interface {
	Create(ctx context.Context, password []byte) (*records.BackupRecord, error)
}

// RetentionEnforcer prunes old backups after each successful run.
type RetentionEnforcer interface {
	Enforce(ctx context.Context, maxCount int) ([]records.BackupRecord, error)
}

// PasswordFunc supplies the backup password for an automatic run. It is a
// callback so the password can live in an OS keychain rather than in this
// process's configuration.
type PasswordFunc func() ([]byte, error)

// Scheduler runs Create on every tick of the interval.
type Scheduler struct {
	creator   BackupCreator
	retention RetentionEnforcer
	password  PasswordFunc
	log       logging.Logger

	interval time.Duration
	maxCount int
}

func New(creator BackupCreator, retention RetentionEnforcer, password PasswordFunc,
	interval time.Duration, maxCount int, log logging.Logger) *Scheduler {
	return &Scheduler{
		creator:   creator,
		retention: retention,
		password:  password,
		log:       log,
		interval:  interval,
		maxCount:  maxCount,
	}
}

// Run blocks, creating a backup every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, "auto-backup scheduler started", "interval", s.interval, "retention", s.maxCount)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.log.Info(ctx, "auto-backup scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	password, err := s.password()
	if err != nil {
		s.log.Warn(ctx, "auto-backup skipped: no password available", "error", err)
		return
	}
	defer shared.WipeBytes(password)

	rec, err := s.creator.Create(ctx, password)
	if err != nil {
		s.log.Warn(ctx, "auto-backup failed", "error", err)
		return
	}
	s.log.Info(ctx, "auto-backup created", "path", rec.Path)

	if _, err := s.retention.Enforce(ctx, s.maxCount); err != nil {
		s.log.Warn(ctx, "retention enforcement failed", "error", err)
	}
}
