package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/story-turns/pkg/storage"
	"github.com/jwebster45206/story-turns/pkg/story"
)

var storyExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Story operations (filesystem-backed)

func (r *RedisStorage) storiesDir() string {
	return filepath.Join(r.dataDir, "stories")
}

// ListStories maps story titles to filenames. Files that fail to parse are
// skipped with a warning.
func (r *RedisStorage) ListStories(ctx context.Context) (map[string]string, error) {
	stories := make(map[string]string)

	err := filepath.WalkDir(r.storiesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storyExtensions[filepath.Ext(path)] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read story file", "path", path, "error", err)
			return nil
		}

		doc, err := story.Parse(data)
		if err != nil {
			r.logger.Warn("Skipping invalid story file", "path", path, "error", err)
			return nil
		}

		filename := filepath.Base(path)
		title := doc.Title
		if title == "" {
			title = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
		stories[title] = filename
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk stories directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	return stories, nil
}

// GetStory returns the raw document. It is not parsed here; the engine
// factory owns parsing so that parse failures surface as initialization errors.
func (r *RedisStorage) GetStory(ctx context.Context, filename string) ([]byte, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return nil, fmt.Errorf("%w: invalid filename %q", storage.ErrStoryNotFound, filename)
	}

	path := filepath.Join(r.storiesDir(), filename)
	r.logger.Debug("Loading story", "filename", filename, "full_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrStoryNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	return data, nil
}
