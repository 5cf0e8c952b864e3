package handlers

import (
	"log/slog"
	"os"

	"github.com/jwebster45206/story-graph/pkg/narrative"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func forestStory() *narrative.Story {
	return &narrative.Story{
		Name:    "Forest",
		Actions: []string{"1", "2", "3", "4"},
		Nodes: []narrative.StoryNode{
			{Text: "A fork.", Choices: []int{1, 2}},
			{Text: "Left."},
			{Text: "Right.", AudioCue: "right.wav"},
		},
		ResponseCues: []string{"r0", "r1", "r2"},
	}
}
