package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/jwebster45206/story-graph/pkg/narrative"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json|story.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := 0
	names := make(map[string]string)
	for _, filename := range os.Args[1:] {
		s, err := validateFile(filename)
		if err == nil {
			err = checkDuplicateName(names, s.Name, filename)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func validateFile(filename string) (*narrative.Story, error) {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !storage.IsStoryFile(baseName) {
		return nil, fmt.Errorf("story file must have a .json, .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidStoryFilename(nameWithoutExt) {
		return nil, fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., dark_forest.json, not dark-forest.json or DarkForest.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	s, err := storage.DecodeStory(baseName, data)
	if err != nil {
		var verr *narrative.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("validation errors in %s:\n  - %s", filename, strings.Join(verr.Problems, "\n  - "))
		}
		return nil, err
	}

	if problems := checkNodeIDs(s); len(problems) > 0 {
		return nil, fmt.Errorf("validation errors in %s:\n  - %s", filename, strings.Join(problems, "\n  - "))
	}
	return s, nil
}

// checkDuplicateName records the story name and fails if another file
// already uses it. The service keys stories by name, so only one would load.
func checkDuplicateName(seen map[string]string, name, filename string) error {
	if prev, ok := seen[name]; ok {
		return fmt.Errorf("story name %q in %s is already used by %s", name, filename, prev)
	}
	seen[name] = filename
	return nil
}

// checkNodeIDs requires optional node labels to be snake_case and unique.
func checkNodeIDs(s *narrative.Story) []string {
	var problems []string
	seen := make(map[string]int)
	for i, n := range s.Nodes {
		if n.ID == "" {
			continue
		}
		if !validIDRegex.MatchString(n.ID) {
			problems = append(problems, fmt.Sprintf("node %d id '%s' should be lowercase snake_case", i, n.ID))
		}
		if prev, ok := seen[n.ID]; ok {
			problems = append(problems, fmt.Sprintf("node %d id '%s' duplicates node %d", i, n.ID, prev))
			continue
		}
		seen[n.ID] = i
	}
	return problems
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidStoryFilename(name string) bool {
	// Allow 'x.' prefix for experimental stories
	name = strings.TrimPrefix(name, "x.")
	return validIDRegex.MatchString(name)
}
