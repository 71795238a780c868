package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edforge/edforge/internal/agents"
	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
	"github.com/edforge/edforge/internal/progress"
	"github.com/edforge/edforge/internal/quiz"
	"github.com/edforge/edforge/internal/version"
)

// Static per-agent confidence attached to responses.
const (
	curriculumConfidence     = 0.85
	quizConfidence           = 0.9
	recommendationConfidence = 0.8
)

// Lessons generated without a duration get this default.
const defaultLessonDurationMinutes = 15

// Orchestrator records every agent invocation as an AIRequest, drives it
// through pending, processing and a terminal state, and applies accepted
// output to course records.
type Orchestrator struct {
	requests       RequestStore
	curriculum     *agents.CurriculumAgent
	quizAgent      *agents.QuizAgent
	recommendation *agents.RecommendationAgent
	courses        course.Store
	engine         *quiz.Engine
	progress       progress.Store
	versions       *version.Service
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithVersioning routes lesson content written by ApplyQuiz through the
// content versioning workflow instead of editing the lesson directly.
func WithVersioning(vs *version.Service) Option {
	return func(o *Orchestrator) { o.versions = vs }
}

// New creates an orchestrator over the given stores and agents.
func New(requests RequestStore, curriculum *agents.CurriculumAgent, quizAgent *agents.QuizAgent, recommendation *agents.RecommendationAgent, courses course.Store, engine *quiz.Engine, progressStore progress.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		requests:       requests,
		curriculum:     curriculum,
		quizAgent:      quizAgent,
		recommendation: recommendation,
		courses:        courses,
		engine:         engine,
		progress:       progressStore,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CurriculumResult is the caller-facing outcome of a curriculum run.
type CurriculumResult struct {
	Request    AIRequest               `json:"request"`
	Response   AIResponse              `json:"response"`
	Curriculum agents.CurriculumOutput `json:"curriculum"`
}

// GenerateCurriculum runs the curriculum agent under request tracking.
func (o *Orchestrator) GenerateCurriculum(ctx context.Context, userID string, input agents.CurriculumInput) (CurriculumResult, error) {
	var out agents.CurriculumOutput
	req, resp, err := o.run(ctx, userID,
		AgentInput{AgentType: AgentCurriculum, Curriculum: &input},
		curriculumConfidence,
		func(ctx context.Context) (AgentOutput, string, error) {
			var err error
			out, err = o.curriculum.Generate(ctx, input)
			if err != nil {
				return AgentOutput{}, "", err
			}
			return AgentOutput{AgentType: AgentCurriculum, Curriculum: &out}, out.Reasoning, nil
		})
	if err != nil {
		return CurriculumResult{}, err
	}
	return CurriculumResult{Request: req, Response: resp, Curriculum: out}, nil
}

// QuizResult is the caller-facing outcome of a quiz generation run.
type QuizResult struct {
	Request  AIRequest         `json:"request"`
	Response AIResponse        `json:"response"`
	Quiz     agents.QuizOutput `json:"quiz"`
}

// GenerateQuiz runs the quiz agent under request tracking. When the input
// names a lesson instead of carrying content, the lesson's stored content
// and title are resolved into the prompt first.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, userID string, input agents.QuizInput) (QuizResult, error) {
	var out agents.QuizOutput
	req, resp, err := o.run(ctx, userID,
		AgentInput{AgentType: AgentQuiz, Quiz: &input},
		quizConfidence,
		func(ctx context.Context) (AgentOutput, string, error) {
			resolved := input
			if resolved.LessonContent == "" && resolved.LessonID != "" {
				lesson, err := o.courses.GetLesson(ctx, resolved.LessonID)
				if err != nil {
					return AgentOutput{}, "", err
				}
				resolved.LessonContent = lesson.Content
				resolved.LessonTitle = lesson.Title
			}
			var err error
			out, err = o.quizAgent.Generate(ctx, resolved)
			if err != nil {
				return AgentOutput{}, "", err
			}
			return AgentOutput{AgentType: AgentQuiz, Quiz: &out}, out.Reasoning, nil
		})
	if err != nil {
		return QuizResult{}, err
	}
	return QuizResult{Request: req, Response: resp, Quiz: out}, nil
}

// RecommendationResult is the caller-facing outcome of a recommendation
// run.
type RecommendationResult struct {
	Request         AIRequest                   `json:"request"`
	Response        AIResponse                  `json:"response"`
	Recommendations agents.RecommendationOutput `json:"recommendations"`
}

// GenerateRecommendations summarizes the enrollment's progress history and
// runs the recommendation agent under request tracking.
func (o *Orchestrator) GenerateRecommendations(ctx context.Context, userID, enrollmentID string) (RecommendationResult, error) {
	var out agents.RecommendationOutput
	req, resp, err := o.run(ctx, userID,
		AgentInput{AgentType: AgentRecommendation, Recommendation: &RecommendationRequest{EnrollmentID: enrollmentID}},
		recommendationConfidence,
		func(ctx context.Context) (AgentOutput, string, error) {
			history, err := o.progressHistory(ctx, enrollmentID)
			if err != nil {
				return AgentOutput{}, "", err
			}
			out, err = o.recommendation.Generate(ctx, history)
			if err != nil {
				return AgentOutput{}, "", err
			}
			return AgentOutput{AgentType: AgentRecommendation, Recommendation: &out}, out.Reasoning, nil
		})
	if err != nil {
		return RecommendationResult{}, err
	}
	return RecommendationResult{Request: req, Response: resp, Recommendations: out}, nil
}

func (o *Orchestrator) progressHistory(ctx context.Context, enrollmentID string) ([]agents.ProgressItem, error) {
	rows, err := o.progress.ListLessonProgress(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	items := make([]agents.ProgressItem, 0, len(rows))
	for _, lp := range rows {
		title := "Unknown"
		if lesson, err := o.courses.GetLesson(ctx, lp.LessonID); err == nil {
			title = lesson.Title
		}
		items = append(items, agents.ProgressItem{
			LessonID:     lp.LessonID,
			LessonTitle:  title,
			Status:       string(lp.Status),
			TimeSpent:    lp.TimeSpentSeconds,
			LastAccessed: lp.LastAccessedAt,
		})
	}
	return items, nil
}

// run drives one agent invocation through the request lifecycle. On
// failure the terminal failed state and the error text are persisted, then
// the original error is returned unchanged.
func (o *Orchestrator) run(ctx context.Context, userID string, input AgentInput, confidence float64, generate func(context.Context) (AgentOutput, string, error)) (AIRequest, AIResponse, error) {
	req, err := o.requests.CreateRequest(ctx, AIRequest{
		UserID:    userID,
		AgentType: input.AgentType,
		Input:     input,
		Status:    RequestPending,
	})
	if err != nil {
		return AIRequest{}, AIResponse{}, fmt.Errorf("record request: %w", err)
	}

	req.Status = RequestProcessing
	if err := o.requests.UpdateRequest(ctx, req); err != nil {
		return AIRequest{}, AIResponse{}, fmt.Errorf("mark processing: %w", err)
	}

	output, reasoning, err := generate(ctx)
	if err != nil {
		req.Status = RequestFailed
		req.Reasoning = err.Error()
		if uerr := o.requests.UpdateRequest(ctx, req); uerr != nil {
			slog.Error("failed to persist failed request state", "request_id", req.ID, "error", uerr)
		}
		slog.Warn("agent run failed", "request_id", req.ID, "agent_type", req.AgentType, "error", err)
		return req, AIResponse{}, err
	}

	resp, err := o.requests.CreateResponse(ctx, AIResponse{
		RequestID:       req.ID,
		Output:          output,
		Explanation:     reasoning,
		ConfidenceScore: confidence,
		Metadata:        map[string]any{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return AIRequest{}, AIResponse{}, fmt.Errorf("record response: %w", err)
	}

	now := time.Now().UTC()
	req.Status = RequestCompleted
	req.Reasoning = reasoning
	req.CompletedAt = &now
	if err := o.requests.UpdateRequest(ctx, req); err != nil {
		return AIRequest{}, AIResponse{}, fmt.Errorf("mark completed: %w", err)
	}

	slog.Info("agent run completed", "request_id", req.ID, "agent_type", req.AgentType, "user_id", userID)
	return req, resp, nil
}

// GetRequestStatus returns the request and its responses, or
// model.ErrNotFound.
func (o *Orchestrator) GetRequestStatus(ctx context.Context, id string) (RequestWithResponses, error) {
	req, err := o.requests.GetRequest(ctx, id)
	if err != nil {
		return RequestWithResponses{}, err
	}
	responses, err := o.requests.ListResponsesByRequest(ctx, id)
	if err != nil {
		return RequestWithResponses{}, err
	}
	return RequestWithResponses{AIRequest: req, Responses: responses}, nil
}

// ApplyCurriculumResult reports what ApplyCurriculum created.
type ApplyCurriculumResult struct {
	Modules []model.Module `json:"modules"`
	Lessons []model.Lesson `json:"lessons"`
}

// ApplyCurriculum materializes a generated curriculum into the course as
// modules and lessons with 1-based sequential order indexes. The write
// sequence spans many rows without a transaction; a failure partway
// through leaves the rows already created in place.
func (o *Orchestrator) ApplyCurriculum(ctx context.Context, courseID string, curriculum agents.CurriculumOutput) (ApplyCurriculumResult, error) {
	if _, err := o.courses.GetCourse(ctx, courseID); err != nil {
		return ApplyCurriculumResult{}, err
	}

	var result ApplyCurriculumResult
	for i, mod := range curriculum.Modules {
		created, err := o.courses.CreateModule(ctx, model.Module{
			CourseID:    courseID,
			Title:       mod.Title,
			Description: mod.Description,
			OrderIndex:  i + 1,
		})
		if err != nil {
			return result, fmt.Errorf("apply module %d: %w", i+1, err)
		}
		result.Modules = append(result.Modules, created)

		for j, lesson := range mod.Lessons {
			duration := lesson.EstimatedDuration
			if duration <= 0 {
				duration = defaultLessonDurationMinutes
			}
			createdLesson, err := o.courses.CreateLesson(ctx, model.Lesson{
				ModuleID:                 created.ID,
				Title:                    lesson.Title,
				Content:                  lesson.Content,
				OrderIndex:               j + 1,
				EstimatedDurationMinutes: duration,
			})
			if err != nil {
				return result, fmt.Errorf("apply lesson %d of module %d: %w", j+1, i+1, err)
			}
			result.Lessons = append(result.Lessons, createdLesson)
		}
	}

	slog.Info("curriculum applied",
		"course_id", courseID,
		"modules", len(result.Modules),
		"lessons", len(result.Lessons),
	)
	return result, nil
}

// ApplyQuiz materializes a generated quiz onto a lesson with the default
// passing score. When the output carries rewritten lesson content it is
// written first: through the versioning workflow when configured, as a
// direct lesson edit otherwise.
func (o *Orchestrator) ApplyQuiz(ctx context.Context, userID, lessonID string, out agents.QuizOutput) (model.Quiz, error) {
	lesson, err := o.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return model.Quiz{}, err
	}

	if out.LessonContent != "" {
		if o.versions != nil {
			if _, err := o.versions.Create(ctx, lessonID, userID, out.LessonContent, "AI-generated lesson content", map[string]any{"source": "quiz_generator"}); err != nil {
				return model.Quiz{}, fmt.Errorf("version lesson content: %w", err)
			}
		} else {
			lesson.Content = out.LessonContent
			if err := o.courses.UpdateLesson(ctx, lesson); err != nil {
				return model.Quiz{}, fmt.Errorf("overwrite lesson content: %w", err)
			}
		}
	}

	created, err := o.engine.CreateQuiz(ctx, lessonID, lesson.Title+" Quiz", out.Questions, quiz.DefaultPassingScore)
	if err != nil {
		return model.Quiz{}, fmt.Errorf("apply quiz: %w", err)
	}
	slog.Info("quiz applied", "lesson_id", lessonID, "quiz_id", created.ID, "questions", len(created.Questions))
	return created, nil
}
