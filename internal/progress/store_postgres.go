package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edforge/edforge/internal/model"
)

// PostgresStore is a PostgreSQL-backed Store implementation. The
// (user_id, course_id) and (enrollment_id, lesson_id) uniqueness rules
// are enforced by database constraints.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *PostgresStore) CreateEnrollment(ctx context.Context, e model.Enrollment) (model.Enrollment, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO enrollments (user_id, course_id, status, progress_percentage)
		 VALUES ($1, $2::uuid, $3, $4)
		 RETURNING id::text, enrolled_at`,
		e.UserID, e.CourseID, e.Status, e.ProgressPercentage,
	).Scan(&e.ID, &e.EnrolledAt)
	if isUniqueViolation(err) {
		return model.Enrollment{}, fmt.Errorf("user %s already enrolled in course %s: %w", e.UserID, e.CourseID, model.ErrConflict)
	}
	if err != nil {
		return model.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetEnrollment(ctx context.Context, id string) (model.Enrollment, error) {
	var e model.Enrollment
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, user_id, course_id::text, status, progress_percentage, enrolled_at, completed_at
		 FROM enrollments WHERE id = $1::uuid`,
		id,
	).Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.ProgressPercentage, &e.EnrolledAt, &e.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Enrollment{}, fmt.Errorf("enrollment %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) FindEnrollment(ctx context.Context, userID, courseID string) (model.Enrollment, error) {
	var e model.Enrollment
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, user_id, course_id::text, status, progress_percentage, enrolled_at, completed_at
		 FROM enrollments WHERE user_id = $1 AND course_id = $2::uuid`,
		userID, courseID,
	).Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.ProgressPercentage, &e.EnrolledAt, &e.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Enrollment{}, fmt.Errorf("enrollment for user %s in course %s: %w", userID, courseID, model.ErrNotFound)
	}
	if err != nil {
		return model.Enrollment{}, fmt.Errorf("find enrollment: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) UpdateEnrollment(ctx context.Context, e model.Enrollment) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE enrollments
		 SET status = $2, progress_percentage = $3, completed_at = $4
		 WHERE id = $1::uuid`,
		e.ID, e.Status, e.ProgressPercentage, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("enrollment %s: %w", e.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, user_id, course_id::text, status, progress_percentage, enrolled_at, completed_at
		 FROM enrollments WHERE course_id = $1::uuid
		 ORDER BY enrolled_at ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.ProgressPercentage, &e.EnrolledAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetLessonProgress(ctx context.Context, enrollmentID, lessonID string) (model.LessonProgress, error) {
	var lp model.LessonProgress
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, enrollment_id::text, lesson_id::text, status, time_spent_seconds, started_at, completed_at, last_accessed_at
		 FROM lesson_progress WHERE enrollment_id = $1::uuid AND lesson_id = $2::uuid`,
		enrollmentID, lessonID,
	).Scan(&lp.ID, &lp.EnrollmentID, &lp.LessonID, &lp.Status, &lp.TimeSpentSeconds, &lp.StartedAt, &lp.CompletedAt, &lp.LastAccessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LessonProgress{}, fmt.Errorf("lesson progress for enrollment %s lesson %s: %w", enrollmentID, lessonID, model.ErrNotFound)
	}
	if err != nil {
		return model.LessonProgress{}, fmt.Errorf("get lesson progress: %w", err)
	}
	return lp, nil
}

func (s *PostgresStore) UpsertLessonProgress(ctx context.Context, lp model.LessonProgress) (model.LessonProgress, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO lesson_progress (enrollment_id, lesson_id, status, time_spent_seconds, started_at, completed_at, last_accessed_at)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
		 ON CONFLICT (enrollment_id, lesson_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   time_spent_seconds = EXCLUDED.time_spent_seconds,
		   started_at = EXCLUDED.started_at,
		   completed_at = EXCLUDED.completed_at,
		   last_accessed_at = EXCLUDED.last_accessed_at
		 RETURNING id::text`,
		lp.EnrollmentID, lp.LessonID, lp.Status, lp.TimeSpentSeconds, lp.StartedAt, lp.CompletedAt, lp.LastAccessedAt,
	).Scan(&lp.ID)
	if err != nil {
		return model.LessonProgress{}, fmt.Errorf("upsert lesson progress: %w", err)
	}
	return lp, nil
}

func (s *PostgresStore) ListLessonProgress(ctx context.Context, enrollmentID string) ([]model.LessonProgress, error) {
	return s.listProgress(ctx,
		`SELECT id::text, enrollment_id::text, lesson_id::text, status, time_spent_seconds, started_at, completed_at, last_accessed_at
		 FROM lesson_progress WHERE enrollment_id = $1::uuid`,
		enrollmentID,
	)
}

func (s *PostgresStore) ListLessonProgressByLesson(ctx context.Context, lessonID string) ([]model.LessonProgress, error) {
	return s.listProgress(ctx,
		`SELECT id::text, enrollment_id::text, lesson_id::text, status, time_spent_seconds, started_at, completed_at, last_accessed_at
		 FROM lesson_progress WHERE lesson_id = $1::uuid`,
		lessonID,
	)
}

func (s *PostgresStore) listProgress(ctx context.Context, query string, args ...any) ([]model.LessonProgress, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	defer rows.Close()

	var out []model.LessonProgress
	for rows.Next() {
		var lp model.LessonProgress
		if err := rows.Scan(&lp.ID, &lp.EnrollmentID, &lp.LessonID, &lp.Status, &lp.TimeSpentSeconds, &lp.StartedAt, &lp.CompletedAt, &lp.LastAccessedAt); err != nil {
			return nil, fmt.Errorf("scan lesson progress: %w", err)
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}
