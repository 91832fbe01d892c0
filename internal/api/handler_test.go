//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestDecodeChatRequest(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     string
		wantMessage string
		wantSession string
	}{
		{name: "valid", body: `{"message":"hi","sessionId":"s1"}`, wantMessage: "hi", wantSession: "s1"},
		{name: "no session", body: `{"message":"hi"}`, wantMessage: "hi"},
		{name: "non-string session ignored", body: `{"message":"hi","sessionId":42}`, wantMessage: "hi"},
		{name: "keeps surrounding whitespace", body: `{"message":"  hi  "}`, wantMessage: "  hi  "},
		{name: "missing message", body: `{}`, wantErr: "Message field is required and must be a string"},
		{name: "empty body", body: ``, wantErr: "Message field is required and must be a string"},
		{name: "null message", body: `{"message":null}`, wantErr: "Message field is required and must be a string"},
		{name: "number message", body: `{"message":12}`, wantErr: "Message field is required and must be a string"},
		{name: "empty string", body: `{"message":""}`, wantErr: "Message field is required and must be a string"},
		{name: "whitespace only", body: `{"message":"   \n\t"}`, wantErr: "Message cannot be empty"},
		{name: "too long", body: `{"message":"` + strings.Repeat("a", 1001) + `"}`, wantErr: "Message must be less than 1000 characters"},
		{name: "malformed", body: `{"message":`, wantErr: "Request body must be valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/bot/chat", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			msg, sid, err := decodeChatRequest(w, r)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg != tt.wantMessage || sid != tt.wantSession {
				t.Errorf("got (%q, %q), want (%q, %q)", msg, sid, tt.wantMessage, tt.wantSession)
			}
		})
	}
}

func TestDecodeChatRequestCountsCharactersNotBytes(t *testing.T) {
	// 1000 multi-byte characters are within the limit.
	msg := strings.Repeat("é", MaxMessageLength)
	body, _ := json.Marshal(map[string]string{"message": msg})

	r := httptest.NewRequest(http.MethodPost, "/api/bot/chat", strings.NewReader(string(body)))
	if _, _, err := decodeChatRequest(httptest.NewRecorder(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Endpoint not found" || body["message"] != "The requested endpoint does not exist." {
		t.Errorf("body = %v", body)
	}
}

func TestWelcome(t *testing.T) {
	w := httptest.NewRecorder()
	Welcome(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body struct {
		Message   string            `json:"message"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Message, "PanAI Sage") {
		t.Errorf("message = %q", body.Message)
	}
	if body.Endpoints["health"] != "/health" {
		t.Errorf("endpoints = %v", body.Endpoints)
	}
}
