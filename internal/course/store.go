// Package course provides the course/module/lesson CRUD collaborator the
// core services build on, including the single-step ownership query used
// for instructor authorization.
package course

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/edforge/internal/model"
)

// Store persists courses, modules and lessons.
type Store interface {
	CreateCourse(ctx context.Context, c model.Course) (model.Course, error)
	GetCourse(ctx context.Context, id string) (model.Course, error)
	UpdateCourse(ctx context.Context, c model.Course) error

	CreateModule(ctx context.Context, m model.Module) (model.Module, error)
	GetModule(ctx context.Context, id string) (model.Module, error)
	ListModulesByCourse(ctx context.Context, courseID string) ([]model.Module, error)

	CreateLesson(ctx context.Context, l model.Lesson) (model.Lesson, error)
	GetLesson(ctx context.Context, id string) (model.Lesson, error)
	UpdateLesson(ctx context.Context, l model.Lesson) error
	ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error)

	// InstructorOfLesson resolves lesson -> module -> course ownership in
	// one query instead of three chained lookups.
	InstructorOfLesson(ctx context.Context, lessonID string) (string, error)
}

// MemoryStore is an in-memory Store implementation for tests and
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]model.Course
	modules map[string]model.Module
	lessons map[string]model.Lesson
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses: make(map[string]model.Course),
		modules: make(map[string]model.Module),
		lessons: make(map[string]model.Lesson),
	}
}

func (s *MemoryStore) CreateCourse(_ context.Context, c model.Course) (model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	if c.Status == "" {
		c.Status = model.CourseDraft
	}
	c.CreatedAt = time.Now()
	s.courses[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCourse(_ context.Context, id string) (model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return model.Course{}, fmt.Errorf("course %s: %w", id, model.ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) UpdateCourse(_ context.Context, c model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[c.ID]; !ok {
		return fmt.Errorf("course %s: %w", c.ID, model.ErrNotFound)
	}
	s.courses[c.ID] = c
	return nil
}

func (s *MemoryStore) CreateModule(_ context.Context, m model.Module) (model.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[m.CourseID]; !ok {
		return model.Module{}, fmt.Errorf("course %s: %w", m.CourseID, model.ErrNotFound)
	}
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	s.modules[m.ID] = m
	return m, nil
}

func (s *MemoryStore) GetModule(_ context.Context, id string) (model.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[id]
	if !ok {
		return model.Module{}, fmt.Errorf("module %s: %w", id, model.ErrNotFound)
	}
	return m, nil
}

func (s *MemoryStore) ListModulesByCourse(_ context.Context, courseID string) ([]model.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Module
	for _, m := range s.modules {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) CreateLesson(_ context.Context, l model.Lesson) (model.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modules[l.ModuleID]; !ok {
		return model.Lesson{}, fmt.Errorf("module %s: %w", l.ModuleID, model.ErrNotFound)
	}
	l.ID = uuid.NewString()
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	s.lessons[l.ID] = l
	return l, nil
}

func (s *MemoryStore) GetLesson(_ context.Context, id string) (model.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return model.Lesson{}, fmt.Errorf("lesson %s: %w", id, model.ErrNotFound)
	}
	return l, nil
}

func (s *MemoryStore) UpdateLesson(_ context.Context, l model.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[l.ID]; !ok {
		return fmt.Errorf("lesson %s: %w", l.ID, model.ErrNotFound)
	}
	l.UpdatedAt = time.Now()
	s.lessons[l.ID] = l
	return nil
}

func (s *MemoryStore) ListLessonsByModule(_ context.Context, moduleID string) ([]model.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Lesson
	for _, l := range s.lessons {
		if l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) InstructorOfLesson(_ context.Context, lessonID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[lessonID]
	if !ok {
		return "", fmt.Errorf("lesson %s: %w", lessonID, model.ErrNotFound)
	}
	m, ok := s.modules[l.ModuleID]
	if !ok {
		return "", fmt.Errorf("module %s: %w", l.ModuleID, model.ErrNotFound)
	}
	c, ok := s.courses[m.CourseID]
	if !ok {
		return "", fmt.Errorf("course %s: %w", m.CourseID, model.ErrNotFound)
	}
	return c.InstructorID, nil
}
