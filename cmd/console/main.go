package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/story-graph/internal/config"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/pather"
	"github.com/jwebster45206/story-graph/pkg/presenter"
)

// The listener patrols these points along the track.
var defaultRoute = []pather.Vec3{{X: -6}, {X: 0}, {X: 6}, {X: 0}}

func main() {
	cfg := config.Load()

	logFile, err := tea.LogToFile(getEnv("CONSOLE_LOG", "console.log"), "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel}))

	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	} else {
		path, err = selectStory(filepath.Join(cfg.DataDir, "stories"), log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	story, err := loadStory(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load story: %v\n", err)
		os.Exit(1)
	}

	t, err := narrative.NewTraversal(story)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build story graph: %v\n", err)
		os.Exit(1)
	}
	if clash := reservedActions(t.Actions()); len(clash) > 0 {
		fmt.Fprintf(os.Stderr, "Story actions %q are reserved console keys (%s)\n", clash, strings.Join(reservedKeys, ", "))
		os.Exit(1)
	}

	w := newWorld(defaultRoute, story.BaseLight)
	controller := presenter.NewController(t, w.handles(), log)
	log.Info("Story loaded", "story", story.Name, "nodes", len(story.Nodes))

	p := tea.NewProgram(NewConsoleUI(story, controller, w), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func loadStory(path string) (*narrative.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return storage.DecodeStory(filepath.Base(path), data)
}

func selectStory(dir string, log *slog.Logger) (string, error) {
	stories, err := storage.ScanStories(dir, log)
	if err != nil {
		return "", err
	}
	if len(stories) == 0 {
		return "", fmt.Errorf("no stories found in %s", dir)
	}

	names := make([]string, 0, len(stories))
	for name := range stories {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Stories:")
	for i, name := range names {
		fmt.Printf("  %d - %s (%s)\n", i+1, name, stories[name])
	}
	fmt.Print("\nSelect a story by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(names) {
		return "", fmt.Errorf("invalid selection")
	}
	return filepath.Join(dir, stories[names[choice-1]]), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
