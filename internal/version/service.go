package version

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
)

// Service owns the propose, approve, reject workflow. Approval writes the
// version's content into the live lesson row, a two-row update with no
// transaction; a crash between the two writes leaves the version approved
// but the lesson unchanged.
type Service struct {
	store   Store
	courses course.Store
}

// NewService creates a versioning service.
func NewService(store Store, courses course.Store) *Service {
	return &Service{store: store, courses: courses}
}

// Create proposes a new content version for a lesson. The version number
// is one past the highest existing number for the lesson, starting at 1;
// the store derives it atomically.
func (s *Service) Create(ctx context.Context, lessonID, authorID, content, changeDescription string, aiMetadata map[string]any) (model.ContentVersion, error) {
	if _, err := s.courses.GetLesson(ctx, lessonID); err != nil {
		return model.ContentVersion{}, err
	}
	v, err := s.store.CreateVersion(ctx, model.ContentVersion{
		LessonID:          lessonID,
		AuthorID:          authorID,
		Content:           content,
		ChangeDescription: changeDescription,
		Status:            model.VersionPending,
		AIMetadata:        aiMetadata,
	})
	if err != nil {
		return model.ContentVersion{}, err
	}
	slog.Info("content version created",
		"version_id", v.ID,
		"lesson_id", lessonID,
		"version_number", v.VersionNumber,
	)
	return v, nil
}

// Get returns one version by id.
func (s *Service) Get(ctx context.Context, id string) (model.ContentVersion, error) {
	return s.store.GetVersion(ctx, id)
}

// ListByLesson returns a lesson's versions, newest first.
func (s *Service) ListByLesson(ctx context.Context, lessonID string) ([]model.ContentVersion, error) {
	return s.store.ListVersionsByLesson(ctx, lessonID)
}

// Approve marks a pending version approved and promotes its content into
// the lesson, setting the lesson's active version id. Approving a version
// that already reached a terminal state fails with model.ErrInvalidState.
func (s *Service) Approve(ctx context.Context, id, approverID string) (model.ContentVersion, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return model.ContentVersion{}, err
	}
	if v.Status != model.VersionPending {
		return model.ContentVersion{}, fmt.Errorf("version %s is %s: %w", id, v.Status, model.ErrInvalidState)
	}

	now := time.Now().UTC()
	v.Status = model.VersionApproved
	v.ApprovedAt = &now
	v.ApprovedBy = approverID
	if err := s.store.UpdateVersion(ctx, v); err != nil {
		return model.ContentVersion{}, err
	}

	lesson, err := s.courses.GetLesson(ctx, v.LessonID)
	if err != nil {
		return model.ContentVersion{}, err
	}
	lesson.Content = v.Content
	lesson.ActiveVersionID = v.ID
	if err := s.courses.UpdateLesson(ctx, lesson); err != nil {
		return model.ContentVersion{}, fmt.Errorf("promote version %s to lesson %s: %w", v.ID, v.LessonID, err)
	}

	slog.Info("content version approved",
		"version_id", v.ID,
		"lesson_id", v.LessonID,
		"approved_by", approverID,
	)
	return v, nil
}

// Reject marks a pending version rejected. No lesson write occurs.
// Rejecting a terminal version fails with model.ErrInvalidState.
func (s *Service) Reject(ctx context.Context, id string) (model.ContentVersion, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return model.ContentVersion{}, err
	}
	if v.Status != model.VersionPending {
		return model.ContentVersion{}, fmt.Errorf("version %s is %s: %w", id, v.Status, model.ErrInvalidState)
	}
	v.Status = model.VersionRejected
	if err := s.store.UpdateVersion(ctx, v); err != nil {
		return model.ContentVersion{}, err
	}
	slog.Info("content version rejected", "version_id", v.ID, "lesson_id", v.LessonID)
	return v, nil
}
