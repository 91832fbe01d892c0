// Package api provides HTTP handlers for the chatbot API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	// MaxMessageLength is the largest accepted message, in characters.
	MaxMessageLength = 1000

	maxBodyBytes = 1 << 20
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ValidationError reports a malformed chat request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// writeValidationError writes the 400 body shared by every validated route.
func writeValidationError(w http.ResponseWriter, err *ValidationError) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"error":   "Validation Error",
		"message": err.Message,
	})
}

func asValidationError(err error) *ValidationError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return &ValidationError{Message: err.Error()}
}

// chatRequest is the body of both chat routes. Message is kept raw so a
// non-string value can be told apart from a missing one.
type chatRequest struct {
	Message   json.RawMessage `json:"message"`
	SessionID json.RawMessage `json:"sessionId"`
}

// decodeChatRequest reads and validates a chat body, returning the message
// and the optional session id.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (message, sessionID string, err error) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return "", "", &ValidationError{Message: fmt.Sprintf("Request body must be at most %d bytes", tooLarge.Limit)}
		case errors.Is(err, io.EOF):
			// An empty body is a missing message.
		default:
			return "", "", &ValidationError{Message: "Request body must be valid JSON"}
		}
	}

	if err := json.Unmarshal(req.Message, &message); err != nil || message == "" {
		return "", "", &ValidationError{Message: "Message field is required and must be a string"}
	}
	if strings.TrimSpace(message) == "" {
		return "", "", &ValidationError{Message: "Message cannot be empty"}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", "", &ValidationError{Message: fmt.Sprintf("Message must be less than %d characters", MaxMessageLength)}
	}

	// Only string session ids are honoured; anything else gets a default.
	if len(req.SessionID) > 0 {
		_ = json.Unmarshal(req.SessionID, &sessionID)
	}
	return message, sessionID, nil
}

// NotFound answers any unmatched path or method.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusNotFound, map[string]string{
		"error":   "Endpoint not found",
		"message": "The requested endpoint does not exist.",
	})
}

// Welcome describes the API at the root path.
func Welcome(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to PanAI Sage API - Your intelligent guide to PanAfrican AI Summit",
		"endpoints": map[string]string{
			"bot":    "/api/bot/chat",
			"health": "/health",
			"info":   "/api/bot/info",
		},
		"documentation": "https://github.com/Evans-Junior/chat_bot",
	})
}
