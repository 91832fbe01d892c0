package domain

import (
	"time"
	"unicode/utf8"
)

// TaskStatus is the lifecycle state of a task.
//
// Lifecycle: pending -> processing -> completed | failed
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// previewLength is the number of characters kept in a pending-task preview.
const previewLength = 50

// TaskResult is the generated reply attached to a completed task.
type TaskResult struct {
	Message    string    `json:"message"`
	ModelUsed  string    `json:"modelUsed"`
	IsFallback bool      `json:"isFallback,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Task is one submitted message awaiting a generated reply.
type Task struct {
	ID        string
	SessionID string
	Message   string
	Status    TaskStatus

	SubmittedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// HistorySnapshot is the session history at submission time. It is never
	// mutated after the task is created.
	HistorySnapshot []Turn

	Result         *TaskResult // set when completed
	Error          string      // set when failed
	ProcessingTime time.Duration
}

// Summary returns the listing view of the task.
func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:             t.ID,
		SessionID:      t.SessionID,
		Status:         t.Status,
		SubmittedAt:    t.SubmittedAt,
		MessagePreview: Preview(t.Message),
	}
}

// TaskSummary is the listing view of a pending task.
type TaskSummary struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"sessionId"`
	Status         TaskStatus `json:"status"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	MessagePreview string     `json:"messagePreview"`
}

// Preview returns the first 50 characters of msg, with an ellipsis when cut.
func Preview(msg string) string {
	if utf8.RuneCountInString(msg) <= previewLength {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:previewLength]) + "..."
}
