package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/handlers"
	"github.com/jwebster45206/story-graph/internal/services"
)

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Body)
}

// CreateSession starts a session for storyFile via POST /v1/sessions.
func CreateSession(ctx context.Context, client *http.Client, baseURL, storyFile string) (*services.SessionView, error) {
	var view services.SessionView
	err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions",
		handlers.CreateSessionRequest{Story: storyFile}, http.StatusCreated, &view)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &view, nil
}

// GetSession reads a session via GET /v1/sessions/{id}.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*services.SessionView, error) {
	var view services.SessionView
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/v1/sessions/"+id.String(), nil, http.StatusOK, &view); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &view, nil
}

// Advance applies one action via POST /v1/sessions/{id}/advance.
func Advance(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, action string) (*services.AdvanceResult, error) {
	var result services.AdvanceResult
	err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions/"+id.String()+"/advance",
		handlers.AdvanceRequest{Action: action}, http.StatusOK, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSession removes a session via DELETE /v1/sessions/{id}.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	return doJSON(ctx, client, http.MethodDelete, baseURL+"/v1/sessions/"+id.String(), nil, http.StatusNoContent, nil)
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body interface{}, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
