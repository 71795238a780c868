package quiz

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/edforge/internal/model"
)

// Store persists quizzes and attempts.
type Store interface {
	CreateQuiz(ctx context.Context, q model.Quiz) (model.Quiz, error)
	GetQuiz(ctx context.Context, id string) (model.Quiz, error)
	UpdateQuiz(ctx context.Context, q model.Quiz) error
	ListQuizzesByLesson(ctx context.Context, lessonID string) ([]model.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error

	CreateAttempt(ctx context.Context, a model.QuizAttempt) (model.QuizAttempt, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]model.QuizAttempt, error)
	ListAttemptsByUser(ctx context.Context, quizID, userID string) ([]model.QuizAttempt, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]model.Quiz
	attempts map[string]model.QuizAttempt
}

// NewMemoryStore creates an empty in-memory quiz store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quizzes:  make(map[string]model.Quiz),
		attempts: make(map[string]model.QuizAttempt),
	}
}

func (s *MemoryStore) CreateQuiz(_ context.Context, q model.Quiz) (model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.ID = uuid.NewString()
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	s.quizzes[q.ID] = q
	return q, nil
}

func (s *MemoryStore) GetQuiz(_ context.Context, id string) (model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quizzes[id]
	if !ok {
		return model.Quiz{}, fmt.Errorf("quiz %s: %w", id, model.ErrNotFound)
	}
	return q, nil
}

func (s *MemoryStore) UpdateQuiz(_ context.Context, q model.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[q.ID]; !ok {
		return fmt.Errorf("quiz %s: %w", q.ID, model.ErrNotFound)
	}
	q.UpdatedAt = time.Now()
	s.quizzes[q.ID] = q
	return nil
}

func (s *MemoryStore) ListQuizzesByLesson(_ context.Context, lessonID string) ([]model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Quiz
	for _, q := range s.quizzes {
		if q.LessonID == lessonID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[id]; !ok {
		return fmt.Errorf("quiz %s: %w", id, model.ErrNotFound)
	}
	delete(s.quizzes, id)
	return nil
}

func (s *MemoryStore) CreateAttempt(_ context.Context, a model.QuizAttempt) (model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	a.AttemptedAt = time.Now()
	s.attempts[a.ID] = a
	return a, nil
}

func (s *MemoryStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]model.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

func (s *MemoryStore) ListAttemptsByUser(_ context.Context, quizID, userID string) ([]model.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}
