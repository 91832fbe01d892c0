package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		archive     Pinger
		wantCode    int
		wantStatus  string
		wantArchive string
	}{
		{"archive disabled", nil, http.StatusOK, "healthy", "disabled"},
		{"archive reachable", fakePinger{}, http.StatusOK, "healthy", "ok"},
		{"archive down", fakePinger{err: errors.New("disk I/O error")}, http.StatusServiceUnavailable, "degraded", "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.archive).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			var body struct {
				Status  string            `json:"status"`
				Service string            `json:"service"`
				Checks  map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus || body.Service != "PAAIS Junior" {
				t.Errorf("body = %+v", body)
			}
			if body.Checks["archive"] != tt.wantArchive {
				t.Errorf("archive check = %q, want %q", body.Checks["archive"], tt.wantArchive)
			}
		})
	}
}
