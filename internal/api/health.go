package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	serviceName        = "PAAIS Junior"
	healthCheckTimeout = 5 * time.Second
)

// Pinger is any dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	archive Pinger
}

// NewHealthHandler creates a new health handler. archive may be nil when the
// archive is disabled.
func NewHealthHandler(archive Pinger) *HealthHandler {
	return &HealthHandler{archive: archive}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "archive": "disabled"}
	status := "healthy"
	statusCode := http.StatusOK

	if h.archive != nil {
		if err := h.archive.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			status = "degraded"
			checks["archive"] = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			checks["archive"] = "ok"
		}
	}

	JSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   serviceName,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
