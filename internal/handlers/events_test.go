package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/services/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		}
	}
}

func TestEventsHandler_StreamsSessionEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	server := httptest.NewServer(NewEventsHandler(client, testLogger()))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/sessions/"+id.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readEvent(t, reader))

	b := events.NewBroadcaster(client, testLogger())
	require.NoError(t, b.PublishSessionAdvanced(ctx, id, 1, 0, 1, "Left.", "r1"))
	assert.Equal(t, string(events.EventTypeSessionAdvanced), readEvent(t, reader))
}

func TestEventsHandler_BadRequests(t *testing.T) {
	handler := NewEventsHandler(nil, testLogger())

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"wrong method", http.MethodPost, "/v1/events/sessions/" + uuid.NewString(), http.StatusMethodNotAllowed},
		{"bad path", http.MethodGet, "/v1/events/games/" + uuid.NewString(), http.StatusBadRequest},
		{"bad id", http.MethodGet, "/v1/events/sessions/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
