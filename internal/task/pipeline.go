package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/conversation"
	"github.com/Evans-Junior/chat-bot/internal/domain"
	"github.com/Evans-Junior/chat-bot/internal/generator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull is returned by Submit when the work queue has no free slot.
var ErrQueueFull = errors.New("task queue is full")

// ErrShuttingDown is the failure recorded for tasks still queued when the
// workers stop.
var ErrShuttingDown = errors.New("server shutting down before the task started")

const recordTimeout = 5 * time.Second

// Recorder receives every task once it reaches a terminal state.
type Recorder interface {
	RecordTask(ctx context.Context, t domain.Task) error
}

type noopRecorder struct{}

func (noopRecorder) RecordTask(context.Context, domain.Task) error { return nil }

// Config controls the worker pool.
type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds each generation call. Zero disables the deadline.
	Timeout time.Duration
}

// DefaultConfig returns the pool defaults.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 1000,
		Timeout:   30 * time.Second,
	}
}

// Pipeline accepts chat messages, queues them as tasks and runs generation
// on a pool of workers. Submission never waits on the generator.
type Pipeline struct {
	tasks    *Store
	sessions *conversation.Store
	gen      generator.Generator
	rec      Recorder
	cfg      Config
	queue    chan string
	logger   *slog.Logger
}

// NewPipeline wires the stores and the generator. rec may be nil.
func NewPipeline(tasks *Store, sessions *conversation.Store, gen generator.Generator, cfg Config, rec Recorder, logger *slog.Logger) *Pipeline {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		tasks:    tasks,
		sessions: sessions,
		gen:      gen,
		rec:      rec,
		cfg:      cfg,
		queue:    make(chan string, cfg.QueueSize),
		logger:   logger,
	}
}

// Submit records a pending task for message in sessionID, snapshots the
// session history and queues the task. It returns the new task id.
func (p *Pipeline) Submit(sessionID, message string) (string, error) {
	sess := p.sessions.Touch(sessionID)

	t := &domain.Task{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Message:         message,
		SubmittedAt:     time.Now(),
		HistorySnapshot: sess.History,
	}
	p.tasks.Add(t)

	select {
	case p.queue <- t.ID:
	default:
		p.tasks.Withdraw(t.ID)
		p.logger.Warn("Task queue full, rejecting submission", "session_id", sessionID, "queue_size", p.cfg.QueueSize)
		return "", ErrQueueFull
	}

	p.logger.Info("Task submitted",
		"task_id", t.ID,
		"session_id", sessionID,
		"history_turns", len(sess.History),
	)
	return t.ID, nil
}

// Run starts the workers and blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			p.work(ctx, worker)
			return nil
		})
	}
	p.logger.Info("Task workers started", "workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize)
	err := g.Wait()

	if n := p.abandonQueued(ctx); n > 0 {
		p.logger.Warn("Task workers stopped with queued tasks", "abandoned", n)
	}
	return err
}

// abandonQueued fails every task still waiting in the queue so none is left
// pending once the workers are gone.
func (p *Pipeline) abandonQueued(ctx context.Context) int {
	n := 0
	for {
		select {
		case id := <-p.queue:
			if _, ok := p.tasks.MarkProcessing(id); !ok {
				continue
			}
			done, ok := p.tasks.Fail(id, ErrShuttingDown.Error())
			if !ok {
				continue
			}
			p.record(ctx, done)
			n++
		default:
			return n
		}
	}
}

func (p *Pipeline) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Task worker shutting down", "worker", worker, "reason", ctx.Err())
			return
		case id := <-p.queue:
			p.process(ctx, id)
		}
	}
}

// process runs a single task to a terminal state. It is invoked once per
// queued id; a task that disappeared in the meantime is skipped.
func (p *Pipeline) process(ctx context.Context, id string) {
	t, ok := p.tasks.MarkProcessing(id)
	if !ok {
		p.logger.Warn("Task not found for processing", "task_id", id)
		return
	}
	p.logger.Info("Processing task", "task_id", id, "session_id", t.SessionID)

	res, err := p.generate(ctx, t.Message, t.HistorySnapshot)
	if err != nil {
		done, ok := p.tasks.Fail(id, err.Error())
		if !ok {
			return
		}
		p.logger.Error("Task failed",
			"task_id", id,
			"session_id", t.SessionID,
			"error", err,
			"processing_ms", done.ProcessingTime.Milliseconds(),
		)
		p.record(ctx, done)
		return
	}

	// The live session, not the snapshot, receives the exchange.
	p.sessions.AppendExchange(t.SessionID, t.Message, res.Text)

	done, ok := p.tasks.Complete(id, domain.TaskResult{
		Message:    res.Text,
		ModelUsed:  res.Model,
		IsFallback: res.IsFallback,
		Timestamp:  res.Timestamp,
	})
	if !ok {
		return
	}
	p.logger.Info("Task completed",
		"task_id", id,
		"session_id", t.SessionID,
		"model", res.Model,
		"fallback", res.IsFallback,
		"processing_ms", done.ProcessingTime.Milliseconds(),
	)
	p.record(ctx, done)
}

// generate calls the generator under the configured deadline and turns a
// panic into an error so the task still reaches a terminal state.
func (p *Pipeline) generate(ctx context.Context, message string, history []domain.Turn) (res *generator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("unexpected error during generation: %v", r)
		}
	}()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	res, err = p.gen.Generate(ctx, message, history)
	if err == nil && res == nil {
		err = errors.New("generator returned no result")
	}
	return res, err
}

func (p *Pipeline) record(ctx context.Context, t domain.Task) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := p.rec.RecordTask(ctx, t); err != nil {
		p.logger.Warn("Failed to archive task", "task_id", t.ID, "error", err)
	}
}

// Chat is the blocking variant of Submit: it generates a reply in the
// caller's goroutine and appends the exchange to the session on success.
func (p *Pipeline) Chat(ctx context.Context, sessionID, message string) (*generator.Result, domain.Session, error) {
	sess := p.sessions.Touch(sessionID)

	res, err := p.generate(ctx, message, sess.History)
	if err != nil {
		return nil, sess, err
	}
	sess = p.sessions.AppendExchange(sessionID, message, res.Text)
	return res, sess, nil
}

// Status returns the current state of a task, or domain.ErrNotFound.
func (p *Pipeline) Status(id string) (domain.Task, error) {
	return p.tasks.Get(id)
}

// ListPending returns summaries of tasks that have not finished.
func (p *Pipeline) ListPending() []domain.TaskSummary {
	return p.tasks.ListPending()
}

// Stats returns task counts.
func (p *Pipeline) Stats() Stats {
	return p.tasks.Stats()
}
