// Package task implements the asynchronous submit-then-poll pipeline: an
// in-memory task store plus a bounded work queue drained by a worker pool.
package task

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
)

// Store holds tasks in two maps, pending and completed, protected by a
// mutex. A task lives in exactly one of them and moves from pending to
// completed exactly once.
type Store struct {
	mu        sync.Mutex
	pending   map[string]*domain.Task
	completed map[string]*domain.Task
	now       func() time.Time
}

// Stats is the aggregate view used by the info endpoint.
type Stats struct {
	Pending   int `json:"pendingTasks"`
	Completed int `json:"completedTasks"`
}

// NewStore creates an empty task store.
func NewStore() *Store {
	return &Store{
		pending:   make(map[string]*domain.Task),
		completed: make(map[string]*domain.Task),
		now:       time.Now,
	}
}

// Add inserts a new pending task.
func (s *Store) Add(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Status = domain.TaskPending
	s.pending[t.ID] = t
}

// Withdraw removes a task that has not started processing. Used when the
// task could not be queued.
func (s *Store) Withdraw(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	if !ok || t.Status != domain.TaskPending {
		return false
	}
	delete(s.pending, id)
	return true
}

// MarkProcessing moves a task from pending to processing and returns a copy
// including its history snapshot. Returns false if the task doesn't exist or
// has already been picked up.
func (s *Store) MarkProcessing(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	if !ok || t.Status != domain.TaskPending {
		return domain.Task{}, false
	}
	t.Status = domain.TaskProcessing
	t.StartedAt = s.now()
	return *t, true
}

// Complete moves a processing task to the completed map with its result.
func (s *Store) Complete(id string, result domain.TaskResult) (domain.Task, bool) {
	return s.finish(id, func(t *domain.Task) {
		t.Status = domain.TaskCompleted
		t.Result = &result
	})
}

// Fail moves a processing task to the completed map as failed.
func (s *Store) Fail(id, errMsg string) (domain.Task, bool) {
	return s.finish(id, func(t *domain.Task) {
		t.Status = domain.TaskFailed
		t.Error = errMsg
	})
}

// finish applies a terminal transition. Only processing tasks can finish, so
// a task reaches a terminal state at most once.
func (s *Store) finish(id string, apply func(*domain.Task)) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	if !ok || t.Status != domain.TaskProcessing {
		return domain.Task{}, false
	}
	apply(t)
	t.CompletedAt = s.now()
	t.ProcessingTime = t.CompletedAt.Sub(t.StartedAt)
	// The snapshot only served generation.
	t.HistorySnapshot = nil

	delete(s.pending, id)
	s.completed[id] = t
	return copyTask(t), true
}

// Get returns a copy of a task from either map.
func (s *Store) Get(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.completed[id]; ok {
		return copyTask(t), nil
	}
	if t, ok := s.pending[id]; ok {
		return copyTask(t), nil
	}
	return domain.Task{}, fmt.Errorf("task %q: %w", id, domain.ErrNotFound)
}

// ListPending returns summaries of pending and processing tasks, oldest first.
func (s *Store) ListPending() []domain.TaskSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TaskSummary, 0, len(s.pending))
	for _, t := range s.pending {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Stats returns the number of pending and completed tasks.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Pending: len(s.pending), Completed: len(s.completed)}
}

// EvictCompleted drops finished tasks that completed before cutoff. Pending
// and processing tasks are never evicted.
func (s *Store) EvictCompleted(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, t := range s.completed {
		if t.CompletedAt.Before(cutoff) {
			delete(s.completed, id)
			evicted++
		}
	}
	return evicted
}

func copyTask(t *domain.Task) domain.Task {
	out := *t
	if t.Result != nil {
		r := *t.Result
		out.Result = &r
	}
	return out
}
