package runner

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/story-graph/internal/handlers"
	"github.com/jwebster45206/story-graph/internal/services"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store := storage.NewMockStorage()
	store.AddStory("forest.json", &narrative.Story{
		Name:    "Forest",
		Actions: []string{"1", "2", "3", "4"},
		Nodes: []narrative.StoryNode{
			{Text: "A fork.", Choices: []int{1, 2}},
			{Text: "Left path."},
			{Text: "Right path.", AudioCue: "right.wav"},
		},
		ResponseCues: []string{"r0", "r1", "r2"},
	})
	svc := services.NewSessionService(store, nil, logger, narrative.WithRand(rand.New(rand.NewPCG(1, 2))))

	mux := http.NewServeMux()
	sessionHandler := handlers.NewSessionHandler(svc, logger)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunner_RunSuite(t *testing.T) {
	server := newTestServer(t)
	r := NewRunner(server.URL + "/")

	suite := TestSuite{
		Name:  "forest walk",
		Story: "forest.json",
		Steps: []TestStep{
			{Name: "go left", Action: "1", Expectations: Expectations{
				Outcome:      ptr("transitioned"),
				Cursor:       ptr(1),
				Turn:         ptr(1),
				Ended:        ptr(true),
				Choices:      ptr(0),
				TextContains: []string{"left"},
			}},
			{Name: "stuck at the end", Action: "2", Expectations: Expectations{
				Outcome: ptr("no_transition"),
				Turn:    ptr(1),
			}},
			{Name: "unknown key", Action: "9", Expectations: Expectations{Status: ptr(http.StatusBadRequest)}},
			{Name: "start over", Action: ResetSessionAction, Expectations: Expectations{
				Cursor:  ptr(0),
				Turn:    ptr(0),
				Choices: ptr(2),
			}},
			{Name: "go right", Action: "4", Expectations: Expectations{
				Cursor:          ptr(2),
				AudioCue:        ptr("right.wav"),
				TextNotContains: []string{"left"},
			}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, 5)
	for _, step := range result.Results {
		assert.True(t, step.Success, step.StepName)
	}
	assert.True(t, result.Results[3].IsReset)
	assert.Equal(t, "Right path.", result.Results[4].Text)
}

func TestRunner_ExitOnFirstFailure(t *testing.T) {
	server := newTestServer(t)
	r := NewRunner(server.URL)
	r.ErrorHandlingMode = ErrorHandlingExit

	suite := TestSuite{
		Name:  "wrong turn",
		Story: "forest.json",
		Steps: []TestStep{
			{Name: "expects right", Action: "1", Expectations: Expectations{Cursor: ptr(2)}},
			{Name: "never runs", Action: "1"},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected cursor 2, got 1")
	assert.Len(t, result.Results, 1)
}

func TestRunner_UnknownStory(t *testing.T) {
	server := newTestServer(t)
	r := NewRunner(server.URL)

	_, err := r.RunSuite(context.Background(), TestSuite{Name: "missing", Story: "cave.json"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("left.json", `{"name": "left", "story": "forest.json", "steps": [{"action": "1", "expect": {"cursor": 1}}]}`)
	write("right.yaml", "name: right\nstory: forest.json\nsteps:\n  - action: \"4\"\n    expect:\n      cursor: 2\n")
	write("all.yaml", "name: all\ncases: [left.json, right.yaml]\n")
	write("bad.yaml", "name: bad\nstepz: []\n")

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.yaml"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "left", jobs[0].Name)
	assert.Equal(t, "right", jobs[1].Name)
	require.NotNil(t, jobs[1].Suite.Steps[0].Expectations.Cursor)
	assert.Equal(t, 2, *jobs[1].Suite.Steps[0].Expectations.Cursor)

	_, err = LoadTestSuite(filepath.Join(dir, "bad.yaml"))
	assert.Error(t, err)
}
