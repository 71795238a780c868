package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edforge/edforge/internal/model"
)

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed course store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	if c.Status == "" {
		c.Status = model.CourseDraft
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO courses (instructor_id, title, description, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text, created_at`,
		c.InstructorID, c.Title, c.Description, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return model.Course{}, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetCourse(ctx context.Context, id string) (model.Course, error) {
	var c model.Course
	var publishedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, instructor_id, title, description, status, created_at, published_at
		 FROM courses WHERE id = $1::uuid`,
		id,
	).Scan(&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Status, &c.CreatedAt, &publishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Course{}, fmt.Errorf("course %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Course{}, fmt.Errorf("get course: %w", err)
	}
	c.PublishedAt = publishedAt
	return c, nil
}

func (s *PostgresStore) UpdateCourse(ctx context.Context, c model.Course) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE courses
		 SET title = $2, description = $3, status = $4, published_at = $5
		 WHERE id = $1::uuid`,
		c.ID, c.Title, c.Description, c.Status, c.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("course %s: %w", c.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateModule(ctx context.Context, m model.Module) (model.Module, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO modules (course_id, title, description, order_index)
		 VALUES ($1::uuid, $2, $3, $4)
		 RETURNING id::text, created_at`,
		m.CourseID, m.Title, m.Description, m.OrderIndex,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return model.Module{}, fmt.Errorf("create module: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetModule(ctx context.Context, id string) (model.Module, error) {
	var m model.Module
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, course_id::text, title, description, order_index, created_at
		 FROM modules WHERE id = $1::uuid`,
		id,
	).Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.OrderIndex, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Module{}, fmt.Errorf("module %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Module{}, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListModulesByCourse(ctx context.Context, courseID string) ([]model.Module, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, course_id::text, title, description, order_index, created_at
		 FROM modules WHERE course_id = $1::uuid
		 ORDER BY order_index ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var out []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.OrderIndex, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateLesson(ctx context.Context, l model.Lesson) (model.Lesson, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO lessons (module_id, title, content, order_index, estimated_duration_minutes)
		 VALUES ($1::uuid, $2, $3, $4, $5)
		 RETURNING id::text, created_at, updated_at`,
		l.ModuleID, l.Title, l.Content, l.OrderIndex, l.EstimatedDurationMinutes,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) GetLesson(ctx context.Context, id string) (model.Lesson, error) {
	var l model.Lesson
	var activeVersionID *string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, module_id::text, title, content, order_index,
		        estimated_duration_minutes, active_version_id::text, created_at, updated_at
		 FROM lessons WHERE id = $1::uuid`,
		id,
	).Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.OrderIndex,
		&l.EstimatedDurationMinutes, &activeVersionID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Lesson{}, fmt.Errorf("lesson %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	if activeVersionID != nil {
		l.ActiveVersionID = *activeVersionID
	}
	return l, nil
}

func (s *PostgresStore) UpdateLesson(ctx context.Context, l model.Lesson) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE lessons
		 SET title = $2, content = $3, order_index = $4,
		     estimated_duration_minutes = $5, active_version_id = $6, updated_at = NOW()
		 WHERE id = $1::uuid`,
		l.ID, l.Title, l.Content, l.OrderIndex, l.EstimatedDurationMinutes,
		nullIfEmpty(l.ActiveVersionID),
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("lesson %s: %w", l.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListLessonsByModule(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, module_id::text, title, content, order_index,
		        estimated_duration_minutes, active_version_id::text, created_at, updated_at
		 FROM lessons WHERE module_id = $1::uuid
		 ORDER BY order_index ASC`,
		moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var out []model.Lesson
	for rows.Next() {
		var l model.Lesson
		var activeVersionID *string
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.OrderIndex,
			&l.EstimatedDurationMinutes, &activeVersionID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if activeVersionID != nil {
			l.ActiveVersionID = *activeVersionID
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InstructorOfLesson(ctx context.Context, lessonID string) (string, error) {
	var instructorID string
	err := s.pool.QueryRow(ctx,
		`SELECT c.instructor_id
		 FROM lessons l
		 JOIN modules m ON m.id = l.module_id
		 JOIN courses c ON c.id = m.course_id
		 WHERE l.id = $1::uuid`,
		lessonID,
	).Scan(&instructorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("lesson %s: %w", lessonID, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lesson owner: %w", err)
	}
	return instructorID, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
