package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/story-graph/internal/storage"
)

type StoryHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewStoryHandler(log *slog.Logger, storage storage.Storage) *StoryHandler {
	return &StoryHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP handles story requests
// Routes:
// GET /v1/stories         - map of story name to file name
// GET /v1/stories/{file}  - a single story definition
func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}

	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || !storage.IsStoryFile(filename) {
		writeError(w, h.log, http.StatusBadRequest, "Invalid story filename")
		return
	}

	story, err := h.storage.GetStory(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Story not found")
			return
		}
		h.log.Error("Failed to get story", "error", err, "filename", filename)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve story")
		return
	}

	writeJSON(w, h.log, http.StatusOK, story)
}

func (h *StoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.log.Error("Failed to list stories", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list stories")
		return
	}
	writeJSON(w, h.log, http.StatusOK, stories)
}
