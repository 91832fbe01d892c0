// Package sweeper periodically evicts finished tasks, idle sessions and old
// archive rows so in-memory state stays bounded.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// TaskEvicter drops finished tasks that completed before cutoff.
type TaskEvicter interface {
	EvictCompleted(cutoff time.Time) int
}

// SessionEvicter drops sessions idle since before cutoff.
type SessionEvicter interface {
	EvictIdle(cutoff time.Time) int
}

// ArchiveCleaner drops archived rows older than retention.
type ArchiveCleaner interface {
	CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// Config sets the sweep cadence and the age limits. A zero TTL disables the
// corresponding sweep.
type Config struct {
	Interval         time.Duration
	TaskTTL          time.Duration
	SessionTTL       time.Duration
	ArchiveRetention time.Duration
}

// Result counts what a single sweep removed.
type Result struct {
	Tasks    int
	Sessions int
	Archived int64
}

// Sweeper evicts expired state. Archive may be nil.
type Sweeper struct {
	cfg      Config
	tasks    TaskEvicter
	sessions SessionEvicter
	archive  ArchiveCleaner
	logger   *slog.Logger
}

// New creates a Sweeper.
func New(cfg Config, tasks TaskEvicter, sessions SessionEvicter, archive ArchiveCleaner, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:      cfg,
		tasks:    tasks,
		sessions: sessions,
		archive:  archive,
		logger:   logger,
	}
}

// StartTTLWorker runs a background goroutine that sweeps every interval
// until ctx is cancelled.
func (s *Sweeper) StartTTLWorker(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.logger.Info("TTL worker disabled", "interval", s.cfg.Interval)
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		s.logger.Info("TTL worker started",
			"interval", s.cfg.Interval,
			"task_ttl", s.cfg.TaskTTL,
			"session_ttl", s.cfg.SessionTTL,
			"archive_retention", s.cfg.ArchiveRetention)

		for {
			select {
			case now := <-ticker.C:
				s.SweepOnce(ctx, now)
			case <-ctx.Done():
				s.logger.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// SweepOnce performs one eviction pass relative to now.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) Result {
	var res Result

	if s.cfg.TaskTTL > 0 && s.tasks != nil {
		res.Tasks = s.tasks.EvictCompleted(now.Add(-s.cfg.TaskTTL))
	}
	if s.cfg.SessionTTL > 0 && s.sessions != nil {
		res.Sessions = s.sessions.EvictIdle(now.Add(-s.cfg.SessionTTL))
	}
	if s.cfg.ArchiveRetention > 0 && s.archive != nil {
		deleted, err := s.archive.CleanupOlderThan(ctx, s.cfg.ArchiveRetention)
		if err != nil {
			s.logger.Error("TTL worker failed to cleanup archived tasks", "error", err)
		}
		res.Archived = deleted
	}

	if res.Tasks > 0 || res.Sessions > 0 || res.Archived > 0 {
		s.logger.Info("TTL worker cleanup completed",
			"tasks", res.Tasks,
			"sessions", res.Sessions,
			"archived", res.Archived)
	}
	return res
}
