// Package quiz implements quiz authoring and the grading engine.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/edforge/edforge/internal/model"
)

// Quizzes materialized from AI output use this passing score.
const DefaultPassingScore = 80

// Engine authors quizzes and grades submitted attempts.
type Engine struct {
	store Store
}

// NewEngine creates a quiz engine on top of a store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// DeriveCorrectAnswers builds the questionID -> answer map grading
// consults. It is re-derived on every create and update; grading never
// reads answers out of the questions directly.
func DeriveCorrectAnswers(questions []model.QuizQuestion) map[string]model.Answer {
	answers := make(map[string]model.Answer, len(questions))
	for _, q := range questions {
		answers[q.ID] = q.CorrectAnswer
	}
	return answers
}

func validateQuestions(questions []model.QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("quiz must have at least one question")
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question id is required")
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if q.Type == model.MultipleChoice && len(q.Options) < 2 {
			return fmt.Errorf("question %q: multiple choice needs at least 2 options", q.ID)
		}
	}
	return nil
}

// CreateQuiz stores a new quiz with its derived answer map.
func (e *Engine) CreateQuiz(ctx context.Context, lessonID, title string, questions []model.QuizQuestion, passingScore int) (model.Quiz, error) {
	if err := validateQuestions(questions); err != nil {
		return model.Quiz{}, err
	}
	return e.store.CreateQuiz(ctx, model.Quiz{
		LessonID:       lessonID,
		Title:          title,
		Questions:      questions,
		CorrectAnswers: DeriveCorrectAnswers(questions),
		PassingScore:   passingScore,
	})
}

// UpdateQuiz replaces a quiz's questions and re-derives the answer map so
// grading never consults stale answers.
func (e *Engine) UpdateQuiz(ctx context.Context, quizID, title string, questions []model.QuizQuestion, passingScore int) (model.Quiz, error) {
	if err := validateQuestions(questions); err != nil {
		return model.Quiz{}, err
	}
	q, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return model.Quiz{}, err
	}
	q.Title = title
	q.Questions = questions
	q.CorrectAnswers = DeriveCorrectAnswers(questions)
	q.PassingScore = passingScore
	if err := e.store.UpdateQuiz(ctx, q); err != nil {
		return model.Quiz{}, err
	}
	return q, nil
}

// GradeResult is the outcome of grading one submission. CorrectAnswersMap
// is exposed so review UIs can show the expected answers.
type GradeResult struct {
	Score             int               `json:"score"`
	CorrectAnswers    int               `json:"correctAnswers"`
	TotalQuestions    int               `json:"totalQuestions"`
	Passed            bool              `json:"passed"`
	Answers           map[string]string `json:"answers"`
	CorrectAnswersMap map[string]model.Answer `json:"correctAnswersMap"`
}

// Grade scores submitted answers against the quiz's derived answer map.
// Set-valued answers match case-sensitively against the set's members;
// single-valued answers match case-insensitively with surrounding
// whitespace trimmed. A missing submission for a question is simply
// incorrect, never an error.
func Grade(quiz model.Quiz, submitted map[string]string) GradeResult {
	correct := 0
	for _, q := range quiz.Questions {
		answer, ok := quiz.CorrectAnswers[q.ID]
		if !ok {
			continue
		}
		given, ok := submitted[q.ID]
		if !ok {
			continue
		}
		if isCorrect(answer, given) {
			correct++
		}
	}

	total := len(quiz.Questions)
	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return GradeResult{
		Score:             score,
		CorrectAnswers:    correct,
		TotalQuestions:    total,
		Passed:            score >= quiz.PassingScore,
		Answers:           submitted,
		CorrectAnswersMap: quiz.CorrectAnswers,
	}
}

func isCorrect(answer model.Answer, given string) bool {
	if answer.IsSet() {
		for _, v := range answer.Values {
			if given == v {
				return true
			}
		}
		return false
	}
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(answer.Value))
}

// SubmitResult is a GradeResult tied to the persisted attempt row.
type SubmitResult struct {
	GradeResult
	AttemptID string `json:"attemptId"`
}

// SubmitAttempt grades the submission and records one immutable attempt
// row. There is no attempt limit or cooldown; retries create new rows.
func (e *Engine) SubmitAttempt(ctx context.Context, quizID, userID string, answers map[string]string) (SubmitResult, error) {
	q, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}

	result := Grade(q, answers)

	attempt, err := e.store.CreateAttempt(ctx, model.QuizAttempt{
		QuizID:         quizID,
		UserID:         userID,
		Answers:        answers,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("record attempt: %w", err)
	}

	slog.Info("quiz attempt graded",
		"quiz_id", quizID,
		"user_id", userID,
		"score", result.Score,
		"passed", result.Passed,
	)

	return SubmitResult{GradeResult: result, AttemptID: attempt.ID}, nil
}
