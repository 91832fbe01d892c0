package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
	_ "modernc.org/sqlite"
)

const (
	maxRetries = 3
	baseDelay  = 100 * time.Millisecond
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

var _ Archive = (*SQLiteArchive)(nil)

// NewSQLite opens (or creates) the archive database at dbPath.
func NewSQLite(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		response TEXT,
		model_used TEXT,
		is_fallback INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		submitted_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		processing_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_session ON tasks(session_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// RecordTask stores a terminal task.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (a *SQLiteArchive) RecordTask(ctx context.Context, t domain.Task) error {
	if !t.Status.Terminal() {
		return fmt.Errorf("record task %s: status %q is not terminal", t.ID, t.Status)
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		err = a.recordTaskOnce(ctx, t)
		if err == nil {
			return nil
		}
		if !isConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms
		slog.Debug("RecordTask failed with SQLITE_BUSY, retrying",
			"task_id", t.ID,
			"attempt", i+1,
			"delay", delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("record task %s: %w", t.ID, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed to record task %s: %w", t.ID, err)
}

func (a *SQLiteArchive) recordTaskOnce(ctx context.Context, t domain.Task) error {
	query := `
	INSERT INTO tasks (
		task_id, session_id, message, status, response, model_used,
		is_fallback, error, submitted_at, completed_at, processing_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(task_id) DO UPDATE SET
		status = excluded.status,
		response = excluded.response,
		model_used = excluded.model_used,
		is_fallback = excluded.is_fallback,
		error = excluded.error,
		completed_at = excluded.completed_at,
		processing_ms = excluded.processing_ms`

	var response, model, errMsg interface{}
	var fallback bool
	if t.Result != nil {
		response = t.Result.Message
		model = t.Result.ModelUsed
		fallback = t.Result.IsFallback
	}
	if t.Error != "" {
		errMsg = t.Error
	}

	_, err := a.db.ExecContext(ctx, query,
		t.ID, t.SessionID, t.Message, string(t.Status),
		response, model, fallback, errMsg,
		t.SubmittedAt.UnixMilli(), t.CompletedAt.UnixMilli(),
		t.ProcessingTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

const selectTask = `
	SELECT task_id, session_id, message, status, response, model_used,
	       is_fallback, error, submitted_at, completed_at, processing_ms
	FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var status string
	var response, model, errMsg sql.NullString
	var fallback bool
	var submitted, completed, processingMs int64

	if err := row.Scan(
		&t.ID, &t.SessionID, &t.Message, &status,
		&response, &model, &fallback, &errMsg,
		&submitted, &completed, &processingMs,
	); err != nil {
		return domain.Task{}, err
	}

	t.Status = domain.TaskStatus(status)
	t.SubmittedAt = time.UnixMilli(submitted)
	t.CompletedAt = time.UnixMilli(completed)
	t.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	t.Error = errMsg.String
	if t.Status == domain.TaskCompleted {
		t.Result = &domain.TaskResult{
			Message:    response.String,
			ModelUsed:  model.String,
			IsFallback: fallback,
			Timestamp:  t.CompletedAt,
		}
	}
	return t, nil
}

// GetTask retrieves an archived task by id.
func (a *SQLiteArchive) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	row := a.db.QueryRowContext(ctx, selectTask+` WHERE task_id = ?`, taskID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("archived task %q: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("scan task row: %w", err)
	}
	return t, nil
}

// SessionTranscript returns up to limit archived tasks for a session in
// submission order. A limit <= 0 returns every row.
func (a *SQLiteArchive) SessionTranscript(ctx context.Context, sessionID string, limit int) ([]domain.Task, error) {
	query := selectTask + ` WHERE session_id = ? ORDER BY submitted_at, task_id`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session transcript: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transcript rows", "error", closeErr)
		}
	}()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return tasks, nil
}

// CountTasks returns the number of archived tasks.
func (a *SQLiteArchive) CountTasks(ctx context.Context) (int64, error) {
	var n int64
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// CleanupOlderThan removes tasks that completed more than retention ago.
func (a *SQLiteArchive) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := time.Now().Add(-retention).UnixMilli()
	result, err := a.db.ExecContext(ctx, `DELETE FROM tasks WHERE completed_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup archived tasks: %w", err)
	}
	return result.RowsAffected()
}

// isConflictError reports SQLite concurrency errors that warrant a retry:
// SQLITE_BUSY and "database is locked".
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
