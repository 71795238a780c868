package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edforge/edforge/internal/model"
)

// PostgresStore is a PostgreSQL-backed Store implementation. Questions,
// the derived answer map and submitted answers are stored as jsonb.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed quiz store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateQuiz(ctx context.Context, q model.Quiz) (model.Quiz, error) {
	questions, answers, err := marshalQuiz(q)
	if err != nil {
		return model.Quiz{}, err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (lesson_id, title, questions, correct_answers, passing_score)
		 VALUES ($1::uuid, $2, $3, $4, $5)
		 RETURNING id::text, created_at, updated_at`,
		q.LessonID, q.Title, questions, answers, q.PassingScore,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return model.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) GetQuiz(ctx context.Context, id string) (model.Quiz, error) {
	var q model.Quiz
	var questions, answers []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, lesson_id::text, title, questions, correct_answers, passing_score, created_at, updated_at
		 FROM quizzes WHERE id = $1::uuid`,
		id,
	).Scan(&q.ID, &q.LessonID, &q.Title, &questions, &answers, &q.PassingScore, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	if err := unmarshalQuiz(&q, questions, answers); err != nil {
		return model.Quiz{}, err
	}
	return q, nil
}

func (s *PostgresStore) UpdateQuiz(ctx context.Context, q model.Quiz) error {
	questions, answers, err := marshalQuiz(q)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $2, questions = $3, correct_answers = $4, passing_score = $5, updated_at = NOW()
		 WHERE id = $1::uuid`,
		q.ID, q.Title, questions, answers, q.PassingScore,
	)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("quiz %s: %w", q.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListQuizzesByLesson(ctx context.Context, lessonID string) ([]model.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, lesson_id::text, title, questions, correct_answers, passing_score, created_at, updated_at
		 FROM quizzes WHERE lesson_id = $1::uuid
		 ORDER BY created_at ASC`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []model.Quiz
	for rows.Next() {
		var q model.Quiz
		var questions, answers []byte
		if err := rows.Scan(&q.ID, &q.LessonID, &q.Title, &questions, &answers, &q.PassingScore, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := unmarshalQuiz(&q, questions, answers); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteQuiz(ctx context.Context, id string) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("quiz %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateAttempt(ctx context.Context, a model.QuizAttempt) (model.QuizAttempt, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return model.QuizAttempt{}, fmt.Errorf("marshal answers: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, user_id, answers, score, total_questions)
		 VALUES ($1::uuid, $2, $3, $4, $5)
		 RETURNING id::text, attempted_at`,
		a.QuizID, a.UserID, answers, a.Score, a.TotalQuestions,
	).Scan(&a.ID, &a.AttemptedAt)
	if err != nil {
		return model.QuizAttempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]model.QuizAttempt, error) {
	return s.listAttempts(ctx,
		`SELECT id::text, quiz_id::text, user_id, answers, score, total_questions, attempted_at
		 FROM quiz_attempts WHERE quiz_id = $1::uuid
		 ORDER BY attempted_at ASC`,
		quizID,
	)
}

func (s *PostgresStore) ListAttemptsByUser(ctx context.Context, quizID, userID string) ([]model.QuizAttempt, error) {
	return s.listAttempts(ctx,
		`SELECT id::text, quiz_id::text, user_id, answers, score, total_questions, attempted_at
		 FROM quiz_attempts WHERE quiz_id = $1::uuid AND user_id = $2
		 ORDER BY attempted_at ASC`,
		quizID, userID,
	)
}

func (s *PostgresStore) listAttempts(ctx context.Context, query string, args ...any) ([]model.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		var answers []byte
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &answers, &a.Score, &a.TotalQuestions, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func marshalQuiz(q model.Quiz) (questions, answers []byte, err error) {
	questions, err = json.Marshal(q.Questions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal questions: %w", err)
	}
	answers, err = json.Marshal(q.CorrectAnswers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal correct answers: %w", err)
	}
	return questions, answers, nil
}

func unmarshalQuiz(q *model.Quiz, questions, answers []byte) error {
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := json.Unmarshal(answers, &q.CorrectAnswers); err != nil {
		return fmt.Errorf("unmarshal correct answers: %w", err)
	}
	return nil
}
