// Package progress tracks enrollments, per-lesson progress and course
// analytics rollups.
package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/edforge/edforge/internal/model"
)

// Store persists enrollments and lesson progress rows.
type Store interface {
	CreateEnrollment(ctx context.Context, e model.Enrollment) (model.Enrollment, error)
	GetEnrollment(ctx context.Context, id string) (model.Enrollment, error)
	FindEnrollment(ctx context.Context, userID, courseID string) (model.Enrollment, error)
	UpdateEnrollment(ctx context.Context, e model.Enrollment) error
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)

	GetLessonProgress(ctx context.Context, enrollmentID, lessonID string) (model.LessonProgress, error)
	UpsertLessonProgress(ctx context.Context, lp model.LessonProgress) (model.LessonProgress, error)
	ListLessonProgress(ctx context.Context, enrollmentID string) ([]model.LessonProgress, error)
	ListLessonProgressByLesson(ctx context.Context, lessonID string) ([]model.LessonProgress, error)
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	enrollments map[string]model.Enrollment
	progress    map[string]model.LessonProgress
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enrollments: make(map[string]model.Enrollment),
		progress:    make(map[string]model.LessonProgress),
	}
}

func (s *MemoryStore) CreateEnrollment(_ context.Context, e model.Enrollment) (model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return model.Enrollment{}, fmt.Errorf("user %s already enrolled in course %s: %w", e.UserID, e.CourseID, model.ErrConflict)
		}
	}
	e.ID = uuid.NewString()
	s.enrollments[e.ID] = e
	return e, nil
}

func (s *MemoryStore) GetEnrollment(_ context.Context, id string) (model.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[id]
	if !ok {
		return model.Enrollment{}, fmt.Errorf("enrollment %s: %w", id, model.ErrNotFound)
	}
	return e, nil
}

func (s *MemoryStore) FindEnrollment(_ context.Context, userID, courseID string) (model.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e, nil
		}
	}
	return model.Enrollment{}, fmt.Errorf("enrollment for user %s in course %s: %w", userID, courseID, model.ErrNotFound)
}

func (s *MemoryStore) UpdateEnrollment(_ context.Context, e model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[e.ID]; !ok {
		return fmt.Errorf("enrollment %s: %w", e.ID, model.ErrNotFound)
	}
	s.enrollments[e.ID] = e
	return nil
}

func (s *MemoryStore) ListEnrollmentsByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Enrollment
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetLessonProgress(_ context.Context, enrollmentID, lessonID string) (model.LessonProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lp := range s.progress {
		if lp.EnrollmentID == enrollmentID && lp.LessonID == lessonID {
			return lp, nil
		}
	}
	return model.LessonProgress{}, fmt.Errorf("lesson progress for enrollment %s lesson %s: %w", enrollmentID, lessonID, model.ErrNotFound)
}

func (s *MemoryStore) UpsertLessonProgress(_ context.Context, lp model.LessonProgress) (model.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lp.ID == "" {
		for _, existing := range s.progress {
			if existing.EnrollmentID == lp.EnrollmentID && existing.LessonID == lp.LessonID {
				lp.ID = existing.ID
				break
			}
		}
	}
	if lp.ID == "" {
		lp.ID = uuid.NewString()
	}
	s.progress[lp.ID] = lp
	return lp, nil
}

func (s *MemoryStore) ListLessonProgress(_ context.Context, enrollmentID string) ([]model.LessonProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.LessonProgress
	for _, lp := range s.progress {
		if lp.EnrollmentID == enrollmentID {
			out = append(out, lp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListLessonProgressByLesson(_ context.Context, lessonID string) ([]model.LessonProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.LessonProgress
	for _, lp := range s.progress {
		if lp.LessonID == lessonID {
			out = append(out, lp)
		}
	}
	return out, nil
}
