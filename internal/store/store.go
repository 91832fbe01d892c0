// Package store provides the transcript archive: an append-only record of
// every task that reached a terminal state.
package store

import (
	"context"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
)

// Archive defines the interface for persisting finished tasks.
type Archive interface {
	// RecordTask stores a completed or failed task. Recording the same task
	// twice overwrites the earlier row.
	RecordTask(ctx context.Context, t domain.Task) error

	// GetTask returns an archived task, or domain.ErrNotFound.
	GetTask(ctx context.Context, taskID string) (domain.Task, error)

	// SessionTranscript returns the archived tasks of a session, oldest first.
	SessionTranscript(ctx context.Context, sessionID string, limit int) ([]domain.Task, error)

	// CountTasks returns the number of archived tasks.
	CountTasks(ctx context.Context) (int64, error)

	// CleanupOlderThan removes tasks that completed more than retention ago.
	CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
