package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/logger"
	"github.com/jwebster45206/story-graph/internal/services"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
)

// CreateSessionRequest defines the request body for creating a new session
type CreateSessionRequest struct {
	Story string `json:"story"` // story filename; .json is assumed when no extension is given
}

// Normalize trims the story name and adds a .json extension if it has none.
func (req *CreateSessionRequest) Normalize() {
	req.Story = strings.TrimSpace(req.Story)
	if req.Story != "" && !storage.IsStoryFile(req.Story) {
		req.Story += ".json"
	}
}

// AdvanceRequest defines the request body for advancing a session
type AdvanceRequest struct {
	Action string `json:"action"`
}

type SessionHandler struct {
	sessions *services.SessionService
	logger   *slog.Logger
}

func NewSessionHandler(sessions *services.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST   /v1/sessions              - Create a session
// GET    /v1/sessions/{id}         - Read a session and its current node
// DELETE /v1/sessions/{id}         - Delete a session
// POST   /v1/sessions/{id}/advance - Apply an action
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case len(parts) == 2 && parts[1] == "advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r, id)
	case len(parts) == 2 && parts[1] == "advance":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
	case len(parts) == 1:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.Normalize()
	if req.Story == "" {
		writeError(w, h.logger, http.StatusBadRequest, "story field is required")
		return
	}

	view, err := h.sessions.Create(r.Context(), req.Story)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create session")
		return
	}
	sessionsCreatedTotal.Inc()
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	view, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load session")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleAdvance(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	result, err := h.sessions.Advance(r.Context(), id, req.Action)
	if err != nil {
		if errors.Is(err, narrative.ErrUnknownAction) {
			advancesTotal.WithLabelValues("rejected").Inc()
		}
		h.writeServiceError(w, r, err, "Failed to advance session")
		return
	}
	advancesTotal.WithLabelValues(result.Transition).Inc()
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *SessionHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Story not found")
	case errors.Is(err, storage.ErrInvalidName):
		writeError(w, h.logger, http.StatusBadRequest, "Invalid story filename")
	case errors.Is(err, narrative.ErrUnknownAction):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSessionBusy):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		logger.FromContext(r.Context(), h.logger).Error(fallback, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, fallback)
	}
}
