package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/story-graph/internal/logger"
)

func TestLogger_RecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/stories", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("Expected echoed request ID abc, got %q", got)
	}
	for _, want := range []string{"status=418", "request_id=abc"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected log to contain %q, got %q", want, buf.String())
		}
	}
}

func TestLogger_GeneratesRequestID(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := Logger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated request ID")
	}
}

func TestLogger_StoresRequestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context(), nil).Warn("inside handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if want := `msg="inside handler" request_id=req-42`; !strings.Contains(buf.String(), want) {
		t.Errorf("Expected handler log to carry the request ID, got %q", buf.String())
	}
}
