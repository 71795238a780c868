package blueprint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
)

// Materialize creates a draft course with all modules and lessons from
// the blueprint, owned by instructorID. Creation is not atomic; each
// step is deterministic by position, so a retry after a partial failure
// recreates the same structure.
func Materialize(ctx context.Context, store course.Store, instructorID string, bp Course) (model.Course, error) {
	created, err := store.CreateCourse(ctx, model.Course{
		InstructorID: instructorID,
		Title:        bp.Title,
		Description:  bp.Description,
		Status:       model.CourseDraft,
	})
	if err != nil {
		return model.Course{}, fmt.Errorf("create course from blueprint %s: %w", bp.ID, err)
	}

	for mi, mod := range bp.Modules {
		m, err := store.CreateModule(ctx, model.Module{
			CourseID:    created.ID,
			Title:       mod.Title,
			Description: mod.Description,
			OrderIndex:  mi + 1,
		})
		if err != nil {
			return model.Course{}, fmt.Errorf("create module %d from blueprint %s: %w", mi+1, bp.ID, err)
		}

		for li, lesson := range mod.Lessons {
			if _, err := store.CreateLesson(ctx, model.Lesson{
				ModuleID:                 m.ID,
				Title:                    lesson.Title,
				Content:                  lesson.Content,
				OrderIndex:               li + 1,
				EstimatedDurationMinutes: lesson.DurationMinutes,
			}); err != nil {
				return model.Course{}, fmt.Errorf("create lesson %d.%d from blueprint %s: %w", mi+1, li+1, bp.ID, err)
			}
		}
	}

	slog.Info("blueprint materialized",
		"blueprint_id", bp.ID,
		"course_id", created.ID,
		"modules", len(bp.Modules),
	)
	return created, nil
}
