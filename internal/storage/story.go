package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/story-graph/pkg/narrative"
	"gopkg.in/yaml.v3"
)

// Story operations (filesystem-backed)

// IsStoryFile reports whether name has a supported story extension.
func IsStoryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeStory strictly decodes a JSON or YAML story, chosen by the file
// name's extension, and validates it.
func DecodeStory(name string, data []byte) (*narrative.Story, error) {
	var s narrative.Story
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal story %s: %w", name, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal story %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported story format: %s", name)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("story %s: %w", name, err)
	}
	return &s, nil
}

func (r *RedisStorage) ListStories(ctx context.Context) (map[string]string, error) {
	return ScanStories(filepath.Join(r.dataDir, "stories"), r.logger)
}

// ScanStories maps story name to file name for every valid story file directly
// in dir. Subdirectories are not searched. Files that fail to decode or
// validate are logged and skipped; when two files share a name the first in
// file name order wins.
func ScanStories(dir string, logger *slog.Logger) (map[string]string, error) {
	stories := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Stories directory does not exist", "dir", dir)
			return stories, nil
		}
		logger.Error("Failed to read stories directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsStoryFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read story file", "path", path, "error", err)
			continue
		}

		s, err := DecodeStory(entry.Name(), data)
		if err != nil {
			logger.Warn("Skipping invalid story file", "path", path, "error", err)
			continue
		}

		if existing, dup := stories[s.Name]; dup {
			logger.Warn("Duplicate story name, keeping first file",
				"name", s.Name, "kept", existing, "skipped", entry.Name())
			continue
		}
		stories[s.Name] = entry.Name()
	}

	return stories, nil
}

// validStoryFilename reports whether filename names a file directly in the
// stories directory.
func validStoryFilename(filename string) bool {
	return filename != "" && !strings.Contains(filename, "..") && !strings.ContainsAny(filename, `/\`)
}

func (r *RedisStorage) GetStory(ctx context.Context, filename string) (*narrative.Story, error) {
	if !validStoryFilename(filename) {
		return nil, fmt.Errorf("story filename %q: %w", filename, ErrInvalidName)
	}
	path := filepath.Join(r.dataDir, "stories", filename)
	r.logger.Debug("Loading story", "filename", filename, "full_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("story %s: %w", filename, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}

	return DecodeStory(filename, data)
}
