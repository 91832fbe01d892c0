package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func completedTask(id, session string, completedAt time.Time) domain.Task {
	return domain.Task{
		ID:          id,
		SessionID:   session,
		Message:     "What is PAAIS?",
		Status:      domain.TaskCompleted,
		SubmittedAt: completedAt.Add(-2 * time.Second),
		StartedAt:   completedAt.Add(-1500 * time.Millisecond),
		CompletedAt: completedAt,
		Result: &domain.TaskResult{
			Message:    "🌍 The summit...",
			ModelUsed:  "gemini-2.5-flash",
			IsFallback: true,
			Timestamp:  completedAt,
		},
		ProcessingTime: 1500 * time.Millisecond,
	}
}

func TestRecordAndGetTask(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	require.NoError(t, a.RecordTask(ctx, completedTask("t1", "s1", now)))

	got, err := a.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, domain.TaskCompleted, got.Status)
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, "🌍 The summit...", got.Result.Message)
	require.Equal(t, "gemini-2.5-flash", got.Result.ModelUsed)
	require.True(t, got.Result.IsFallback)
	require.Equal(t, 1500*time.Millisecond, got.ProcessingTime)
	require.True(t, got.CompletedAt.Equal(now))
}

func TestRecordFailedTask(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	failed := domain.Task{
		ID:          "t2",
		SessionID:   "s1",
		Message:     "hi",
		Status:      domain.TaskFailed,
		SubmittedAt: time.Now(),
		CompletedAt: time.Now(),
		Error:       "failed to generate response: quota exceeded",
	}
	require.NoError(t, a.RecordTask(ctx, failed))

	got, err := a.GetTask(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, domain.TaskFailed, got.Status)
	require.Nil(t, got.Result)
	require.Equal(t, failed.Error, got.Error)
}

func TestRecordRejectsNonTerminalTask(t *testing.T) {
	a := newTestArchive(t)
	err := a.RecordTask(context.Background(), domain.Task{ID: "p", Status: domain.TaskPending})
	require.Error(t, err)
}

func TestGetTaskNotFound(t *testing.T) {
	a := newTestArchive(t)
	_, err := a.GetTask(context.Background(), "missing")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSessionTranscriptOrderAndLimit(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	require.NoError(t, a.RecordTask(ctx, completedTask("b", "s1", base.Add(2*time.Second))))
	require.NoError(t, a.RecordTask(ctx, completedTask("a", "s1", base.Add(time.Second))))
	require.NoError(t, a.RecordTask(ctx, completedTask("other", "s2", base)))

	all, err := a.SessionTranscript(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "a", all[0].ID)
	require.Equal(t, "b", all[1].ID)

	limited, err := a.SessionTranscript(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestCountAndCleanup(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.RecordTask(ctx, completedTask("old", "s1", time.Now().Add(-48*time.Hour))))
	require.NoError(t, a.RecordTask(ctx, completedTask("new", "s1", time.Now())))
	// Recording again overwrites rather than duplicating.
	require.NoError(t, a.RecordTask(ctx, completedTask("new", "s1", time.Now())))

	n, err := a.CountTasks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	removed, err := a.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	n, err = a.CountTasks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPing(t *testing.T) {
	a := newTestArchive(t)
	require.NoError(t, a.Ping(context.Background()))
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	for i := 0; i < 3; i++ {
		conn, err := a.db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })

		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
		require.Equal(t, "wal", mode)

		var timeout int
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		require.Equal(t, 5000, timeout)
	}
}

func TestIsConflictError(t *testing.T) {
	require.False(t, isConflictError(nil))
	require.True(t, isConflictError(errors.New("SQLITE_BUSY: try again")))
	require.True(t, isConflictError(errors.New("database is locked (5)")))
	require.False(t, isConflictError(errors.New("no such table")))
}
