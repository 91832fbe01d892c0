package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/conversation"
	"github.com/Evans-Junior/chat-bot/internal/domain"
	"github.com/Evans-Junior/chat-bot/internal/generator"
	"github.com/Evans-Junior/chat-bot/internal/identity"
	"github.com/Evans-Junior/chat-bot/internal/summit"
	"github.com/Evans-Junior/chat-bot/internal/task"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	botDescription = "Your intelligent guide to the PanAfrican AI Summit"
	botVersion     = "1.0.0"
	estimatedWait  = "10-30 seconds"
	archiveTimeout = 2 * time.Second
)

// TaskService is the task pipeline as seen by the HTTP layer.
type TaskService interface {
	Submit(sessionID, message string) (string, error)
	Chat(ctx context.Context, sessionID, message string) (*generator.Result, domain.Session, error)
	Status(taskID string) (domain.Task, error)
	ListPending() []domain.TaskSummary
	Stats() task.Stats
}

// SessionStore is the conversation store as seen by the HTTP layer.
type SessionStore interface {
	List() []domain.SessionSummary
	Len() int
	ActiveCount() int
	Clear(id string) (int, error)
}

// TaskArchive is the read side of the transcript archive.
type TaskArchive interface {
	GetTask(ctx context.Context, taskID string) (domain.Task, error)
	CountTasks(ctx context.Context) (int64, error)
}

// BotHandler serves the /api/bot routes.
type BotHandler struct {
	tasks    TaskService
	sessions SessionStore
	archive  TaskArchive
	summit   *summit.Data
	logger   *slog.Logger
	now      func() time.Time
}

// NewBotHandler creates a BotHandler. archive may be nil.
func NewBotHandler(tasks TaskService, sessions SessionStore, archive TaskArchive, data *summit.Data, logger *slog.Logger) *BotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotHandler{
		tasks:    tasks,
		sessions: sessions,
		archive:  archive,
		summit:   data,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterRoutes registers bot routes.
func (h *BotHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/bot", func(r chi.Router) {
		r.Post("/chat", h.SubmitMessage)
		r.Post("/chat/sync", h.ChatSync)
		r.Get("/response/{taskId}", h.GetResponse)
		r.Get("/info", h.GetInfo)
		r.Get("/sessions", h.GetSessions)
		r.Get("/tasks/pending", h.GetPendingTasks)
		r.Delete("/sessions/{sessionId}", h.ClearSession)
	})
}

// SubmitMessage queues a chat message and returns its task id immediately.
func (h *BotHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	message, sessionID, err := decodeChatRequest(w, r)
	if err != nil {
		writeValidationError(w, asValidationError(err))
		return
	}
	sessionID = identity.SessionIDOrDefault(sessionID, h.now())

	taskID, err := h.tasks.Submit(sessionID, message)
	if err != nil {
		status, msg := http.StatusInternalServerError, "Failed to submit your message"
		if errors.Is(err, task.ErrQueueFull) {
			status, msg = http.StatusServiceUnavailable, "Server is busy, please try again shortly"
		}
		h.logger.Error("Submit message failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"session_id", sessionID,
			"error", err)
		JSON(w, status, map[string]interface{}{
			"success":   false,
			"error":     "Internal server error",
			"message":   msg,
			"timestamp": h.now().UTC(),
		})
		return
	}

	h.logger.Info("Message submitted",
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"task_id", taskID,
		"session_id", sessionID)

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"taskId":        taskID,
		"sessionId":     sessionID,
		"status":        domain.TaskProcessing,
		"message":       "Your request is being processed",
		"timestamp":     h.now().UTC(),
		"checkStatusAt": "/api/bot/response/" + taskID,
	})
}

// taskResponse is the polling view of a task.
type taskResponse struct {
	Success        bool              `json:"success"`
	TaskID         string            `json:"taskId"`
	SessionID      string            `json:"sessionId"`
	Status         domain.TaskStatus `json:"status"`
	Response       *resultView       `json:"response,omitempty"`
	Error          string            `json:"error,omitempty"`
	Message        string            `json:"message,omitempty"`
	SubmittedAt    time.Time         `json:"submittedAt"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	ProcessingTime *int64            `json:"processingTime,omitempty"`
	EstimatedWait  string            `json:"estimatedWait,omitempty"`
}

type resultView struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	ModelUsed  string    `json:"modelUsed"`
	IsFallback bool      `json:"isFallback"`
	Timestamp  time.Time `json:"timestamp"`
}

func newTaskResponse(t domain.Task) taskResponse {
	resp := taskResponse{
		Success:     true,
		TaskID:      t.ID,
		SessionID:   t.SessionID,
		Status:      t.Status,
		SubmittedAt: t.SubmittedAt,
	}
	if !t.Status.Terminal() {
		resp.Message = "Your request is still being processed"
		resp.EstimatedWait = estimatedWait
		return resp
	}

	completedAt := t.CompletedAt
	ms := t.ProcessingTime.Milliseconds()
	resp.CompletedAt = &completedAt
	resp.ProcessingTime = &ms

	if t.Status == domain.TaskFailed {
		resp.Success = false
		resp.Error = t.Error
		return resp
	}
	if t.Result != nil {
		resp.Response = &resultView{
			Success:    true,
			Message:    t.Result.Message,
			ModelUsed:  t.Result.ModelUsed,
			IsFallback: t.Result.IsFallback,
			Timestamp:  t.Result.Timestamp,
		}
	}
	return resp
}

// GetResponse reports the state of a task. Reads never change it.
func (h *BotHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	t, err := h.tasks.Status(taskID)
	if errors.Is(err, domain.ErrNotFound) && h.archive != nil {
		// Evicted tasks are still answerable from the archive.
		ctx, cancel := context.WithTimeout(r.Context(), archiveTimeout)
		t, err = h.archive.GetTask(ctx, taskID)
		cancel()
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("Task lookup failed", "task_id", taskID, "error", err)
		}
		JSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "Task not found",
			"message": "The task ID does not exist or has expired",
			"taskId":  taskID,
		})
		return
	}

	JSON(w, http.StatusOK, newTaskResponse(t))
}

// GetInfo describes the bot, the summit and current load.
func (h *BotHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	if h.summit == nil {
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Failed to fetch bot information",
		})
		return
	}

	taskStats := h.tasks.Stats()
	stats := map[string]interface{}{
		"activeSessions": h.sessions.Len(),
		"pendingTasks":   taskStats.Pending,
		"completedTasks": taskStats.Completed,
	}
	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), archiveTimeout)
		n, err := h.archive.CountTasks(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("Failed to count archived tasks", "error", err)
		} else {
			stats["archivedTasks"] = n
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"botName":     generator.BotName,
		"description": botDescription,
		"version":     botVersion,
		"summit": map[string]interface{}{
			"name":       h.summit.Summit.Name,
			"tagline":    h.summit.Summit.Tagline,
			"nextSummit": h.summit.Summit.NextSummit,
		},
		"endpoints": map[string]string{
			"chat":        "POST /api/bot/chat",
			"chatSync":    "POST /api/bot/chat/sync",
			"getResponse": "GET /api/bot/response/:taskId",
			"info":        "GET /api/bot/info",
		},
		"stats": stats,
	})
}

// GetSessions lists every session with its activity flag.
func (h *BotHandler) GetSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := h.sessions.List()
	JSON(w, http.StatusOK, map[string]interface{}{
		"totalSessions":  len(sessions),
		"activeSessions": h.sessions.ActiveCount(),
		"sessions":       sessions,
	})
}

// GetPendingTasks lists tasks that have not finished.
func (h *BotHandler) GetPendingTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := h.tasks.ListPending()
	JSON(w, http.StatusOK, map[string]interface{}{
		"totalPending": len(tasks),
		"tasks":        tasks,
	})
}

// ClearSession removes one session, or every session for "all".
func (h *BotHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	n, err := h.sessions.Clear(sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		Error(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		Error(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}

	h.logger.Info("Sessions cleared", "session_id", sessionID, "count", n)
	if sessionID == conversation.ClearAll {
		JSON(w, http.StatusOK, map[string]interface{}{
			"message":         "Cleared all " + strconv.Itoa(n) + " sessions",
			"sessionsCleared": n,
		})
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"message":   "Session cleared successfully",
		"sessionId": sessionID,
	})
}

// ChatSync generates a reply in the request goroutine.
func (h *BotHandler) ChatSync(w http.ResponseWriter, r *http.Request) {
	message, sessionID, err := decodeChatRequest(w, r)
	if err != nil {
		writeValidationError(w, asValidationError(err))
		return
	}
	sessionID = identity.SessionIDOrDefault(sessionID, h.now())

	res, sess, err := h.tasks.Chat(r.Context(), sessionID, message)
	if err != nil {
		h.logger.Error("Synchronous chat failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"session_id", sessionID,
			"error", err)
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success":   false,
			"error":     "Internal server error",
			"message":   err.Error(),
			"timestamp": h.now().UTC(),
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"sessionId":       sessionID,
		"botName":         generator.BotName,
		"response":        res.Text,
		"timestamp":       h.now().UTC(),
		"sessionActivity": sess.LastActive,
		"messageCount":    sess.MessageCount(),
		"modelUsed":       res.Model,
		"isFallback":      res.IsFallback,
	})
}
