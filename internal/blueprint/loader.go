// Package blueprint loads reusable course definitions from YAML files
// and materializes them into real courses.
package blueprint

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches course blueprints from the filesystem.
type Loader struct {
	rootDir    string
	blueprints map[string]Course
	contents   map[string]string
	mu         sync.RWMutex
}

// NewLoader creates a blueprint loader and loads all definitions under
// rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:    rootDir,
		blueprints: make(map[string]Course),
		contents:   make(map[string]string),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading blueprints: %w", err)
	}

	slog.Info("blueprints loaded", "count", len(l.blueprints))
	return l, nil
}

// Get returns a blueprint by ID with sidecar lesson content resolved.
func (l *Loader) Get(id string) (Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bp, ok := l.blueprints[id]
	if !ok {
		return Course{}, false
	}
	return l.resolve(bp), true
}

// All returns every loaded blueprint with sidecar content resolved.
func (l *Loader) All() []Course {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Course, 0, len(l.blueprints))
	for _, bp := range l.blueprints {
		out = append(out, l.resolve(bp))
	}
	return out
}

// resolve fills lesson content from sidecar files. Inline content wins.
func (l *Loader) resolve(bp Course) Course {
	for mi := range bp.Modules {
		for li := range bp.Modules[mi].Lessons {
			lesson := &bp.Modules[mi].Lessons[li]
			if lesson.Content == "" && lesson.Slug != "" {
				lesson.Content = l.contents[lesson.Slug]
			}
		}
	}
	return bp
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, ".lesson.md"):
			return l.loadLessonContent(path)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadBlueprint(path)
		}
		return nil
	})
}

func (l *Loader) loadBlueprint(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var bp Course
	if err := yaml.Unmarshal(data, &bp); err != nil {
		slog.Warn("skipping invalid blueprint YAML", "path", path, "error", err)
		return nil
	}

	if bp.ID == "" {
		return nil // Not a blueprint file
	}

	l.mu.Lock()
	l.blueprints[bp.ID] = bp
	l.mu.Unlock()

	return nil
}

func (l *Loader) loadLessonContent(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	slug := strings.TrimSuffix(filepath.Base(path), ".lesson.md")
	if slug == "" {
		return nil
	}

	l.mu.Lock()
	l.contents[slug] = string(data)
	l.mu.Unlock()

	return nil
}
