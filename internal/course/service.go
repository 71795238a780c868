package course

import (
	"context"
	"fmt"
	"time"

	"github.com/edforge/edforge/internal/model"
)

// Service wraps the store with instructor ownership checks.
type Service struct {
	store Store
}

// NewService creates a course service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store for collaborators that manage their
// own authorization, such as the orchestrator's apply operations.
func (s *Service) Store() Store {
	return s.store
}

// CreateCourse creates a draft course owned by the instructor.
func (s *Service) CreateCourse(ctx context.Context, instructorID, title, description string) (model.Course, error) {
	return s.store.CreateCourse(ctx, model.Course{
		InstructorID: instructorID,
		Title:        title,
		Description:  description,
		Status:       model.CourseDraft,
	})
}

// AddLesson creates a lesson under a module, allowed only for the owning
// instructor.
func (s *Service) AddLesson(ctx context.Context, moduleID, userID string, l model.Lesson) (model.Lesson, error) {
	m, err := s.store.GetModule(ctx, moduleID)
	if err != nil {
		return model.Lesson{}, err
	}
	c, err := s.store.GetCourse(ctx, m.CourseID)
	if err != nil {
		return model.Lesson{}, err
	}
	if c.InstructorID != userID {
		return model.Lesson{}, fmt.Errorf("add lesson to course %s: %w", c.ID, model.ErrForbidden)
	}
	l.ModuleID = moduleID
	return s.store.CreateLesson(ctx, l)
}

// UpdateLessonContent replaces a lesson's content, allowed only for the
// owning instructor.
func (s *Service) UpdateLessonContent(ctx context.Context, lessonID, userID, content string) (model.Lesson, error) {
	owner, err := s.store.InstructorOfLesson(ctx, lessonID)
	if err != nil {
		return model.Lesson{}, err
	}
	if owner != userID {
		return model.Lesson{}, fmt.Errorf("update lesson %s: %w", lessonID, model.ErrForbidden)
	}

	l, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return model.Lesson{}, err
	}
	l.Content = content
	if err := s.store.UpdateLesson(ctx, l); err != nil {
		return model.Lesson{}, err
	}
	return s.store.GetLesson(ctx, lessonID)
}

// Publish flips a course to published and stamps publishedAt.
func (s *Service) Publish(ctx context.Context, courseID, instructorID string) (model.Course, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return model.Course{}, err
	}
	if c.InstructorID != instructorID {
		return model.Course{}, fmt.Errorf("publish course %s: %w", courseID, model.ErrForbidden)
	}

	now := time.Now()
	c.Status = model.CoursePublished
	c.PublishedAt = &now
	if err := s.store.UpdateCourse(ctx, c); err != nil {
		return model.Course{}, err
	}
	return c, nil
}
