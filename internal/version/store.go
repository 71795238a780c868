// Package version manages the review workflow for proposed lesson
// content edits.
package version

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/edforge/edforge/internal/model"
)

// Store persists content versions. CreateVersion assigns the next
// version number for the lesson atomically, so concurrent creates cannot
// derive the same number.
type Store interface {
	CreateVersion(ctx context.Context, v model.ContentVersion) (model.ContentVersion, error)
	GetVersion(ctx context.Context, id string) (model.ContentVersion, error)
	UpdateVersion(ctx context.Context, v model.ContentVersion) error
	ListVersionsByLesson(ctx context.Context, lessonID string) ([]model.ContentVersion, error)
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string]model.ContentVersion
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]model.ContentVersion)}
}

func (s *MemoryStore) CreateVersion(_ context.Context, v model.ContentVersion) (model.ContentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, existing := range s.versions {
		if existing.LessonID == v.LessonID && existing.VersionNumber > max {
			max = existing.VersionNumber
		}
	}
	v.ID = uuid.NewString()
	v.VersionNumber = max + 1
	s.versions[v.ID] = v
	return v, nil
}

func (s *MemoryStore) GetVersion(_ context.Context, id string) (model.ContentVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return model.ContentVersion{}, fmt.Errorf("content version %s: %w", id, model.ErrNotFound)
	}
	return v, nil
}

func (s *MemoryStore) UpdateVersion(_ context.Context, v model.ContentVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[v.ID]; !ok {
		return fmt.Errorf("content version %s: %w", v.ID, model.ErrNotFound)
	}
	s.versions[v.ID] = v
	return nil
}

func (s *MemoryStore) ListVersionsByLesson(_ context.Context, lessonID string) ([]model.ContentVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ContentVersion
	for _, v := range s.versions {
		if v.LessonID == lessonID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}
