package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edforge/edforge/internal/agents"
	"github.com/edforge/edforge/internal/ai"
	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
	"github.com/edforge/edforge/internal/progress"
	"github.com/edforge/edforge/internal/quiz"
	"github.com/edforge/edforge/internal/version"
)

const curriculumResponse = `{
  "modules": [
    {
      "title": "Getting Started",
      "description": "Foundations",
      "lessons": [
        {"title": "Hello World", "learningObjectives": ["Install the toolchain"], "content": "# Hello\nBody.", "estimatedDuration": 20},
        {"title": "Variables", "learningObjectives": ["Declare variables"], "content": "# Vars\nBody."}
      ]
    },
    {
      "title": "Control Flow",
      "description": "Branches and loops",
      "lessons": [
        {"title": "If and For", "learningObjectives": ["Use conditionals"], "content": "# Flow\nBody.", "estimatedDuration": 30}
      ]
    }
  ],
  "reasoning": "Progressive structure."
}`

const quizAgentResponse = `{
  "questions": [
    {"id": "q1", "question": "What is the capital of France?", "type": "short_answer", "correctAnswer": "Paris", "explanation": "Geography."},
    {"id": "q2", "question": "Pick the primaries", "type": "multiple_choice", "options": ["red", "green", "blue", "orange"], "correctAnswer": ["red", "blue"], "explanation": "Color theory."}
  ],
  "reasoning": "Covers both recall and recognition."
}`

type harness struct {
	orc      *Orchestrator
	requests *MemoryRequestStore
	courses  *course.MemoryStore
	quizzes  *quiz.MemoryStore
	progress *progress.MemoryStore
	mock     *ai.MockProvider
}

func newHarness(response string, opts ...Option) *harness {
	mock := ai.NewMockProvider(response)
	requests := NewMemoryRequestStore()
	courses := course.NewMemoryStore()
	quizzes := quiz.NewMemoryStore()
	progressStore := progress.NewMemoryStore()

	orc := New(requests,
		agents.NewCurriculumAgent(mock),
		agents.NewQuizAgent(mock),
		agents.NewRecommendationAgent(mock),
		courses,
		quiz.NewEngine(quizzes),
		progressStore,
		opts...)

	return &harness{orc: orc, requests: requests, courses: courses, quizzes: quizzes, progress: progressStore, mock: mock}
}

func (h *harness) lesson(t *testing.T, content string) model.Lesson {
	t.Helper()
	ctx := context.Background()
	c, err := h.courses.CreateCourse(ctx, model.Course{InstructorID: "instructor-1", Title: "Go Basics", Status: model.CourseDraft})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	m, err := h.courses.CreateModule(ctx, model.Module{CourseID: c.ID, Title: "Module 1", OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	l, err := h.courses.CreateLesson(ctx, model.Lesson{ModuleID: m.ID, Title: "Intro", Content: content, OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return l
}

func validCurriculumInput() agents.CurriculumInput {
	return agents.CurriculumInput{
		Objectives:     []string{"Learn Go"},
		TargetAudience: "Developers",
		DurationHours:  8,
	}
}

func TestGenerateCurriculum_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(curriculumResponse)

	result, err := h.orc.GenerateCurriculum(ctx, "user-1", validCurriculumInput())
	if err != nil {
		t.Fatalf("GenerateCurriculum: %v", err)
	}

	if result.Request.Status != RequestCompleted {
		t.Errorf("status = %q, want completed", result.Request.Status)
	}
	if result.Request.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
	if result.Request.Reasoning != result.Curriculum.Reasoning {
		t.Error("request reasoning not copied from output")
	}
	if result.Response.ConfidenceScore != curriculumConfidence {
		t.Errorf("confidence = %v, want %v", result.Response.ConfidenceScore, curriculumConfidence)
	}
	if result.Response.Output.AgentType != AgentCurriculum || result.Response.Output.Curriculum == nil {
		t.Errorf("output union not tagged for curriculum: %+v", result.Response.Output)
	}

	status, err := h.orc.GetRequestStatus(ctx, result.Request.ID)
	if err != nil {
		t.Fatalf("GetRequestStatus: %v", err)
	}
	if len(status.Responses) != 1 {
		t.Errorf("got %d responses, want 1", len(status.Responses))
	}
}

func TestGenerateCurriculum_FailureRecordedAndRethrown(t *testing.T) {
	ctx := context.Background()
	h := newHarness("")
	h.mock.Err = &ai.ProviderError{Provider: "openai", StatusCode: 429, Body: "rate limited"}

	result, err := h.orc.GenerateCurriculum(ctx, "user-1", validCurriculumInput())
	var perr *ai.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want the original ProviderError", err)
	}
	_ = result

	// The request row must have been persisted with the failure.
	var reqID string
	for id := range h.requests.requests {
		reqID = id
	}
	req, err := h.requests.GetRequest(ctx, reqID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if req.Status != RequestFailed {
		t.Errorf("status = %q, want failed", req.Status)
	}
	if !strings.Contains(req.Reasoning, "429") {
		t.Errorf("reasoning = %q, want the error text", req.Reasoning)
	}
	if req.CompletedAt != nil {
		t.Error("CompletedAt stamped on failed request")
	}
}

func TestGenerateCurriculum_ValidationFailsWithoutProviderCall(t *testing.T) {
	h := newHarness(curriculumResponse)

	_, err := h.orc.GenerateCurriculum(context.Background(), "user-1", agents.CurriculumInput{})
	var verr *agents.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if h.mock.Calls != 0 {
		t.Errorf("provider called %d times, want 0", h.mock.Calls)
	}
}

func TestGenerateQuiz_ResolvesLessonContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(quizAgentResponse)
	lesson := h.lesson(t, strings.Repeat("Lesson body. ", 10))

	result, err := h.orc.GenerateQuiz(ctx, "user-1", agents.QuizInput{
		LessonID:           lesson.ID,
		LearningObjectives: []string{"Recall facts"},
		DifficultyLevel:    "beginner",
		NumberOfQuestions:  2,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if len(result.Quiz.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(result.Quiz.Questions))
	}
	if result.Response.ConfidenceScore != quizConfidence {
		t.Errorf("confidence = %v, want %v", result.Response.ConfidenceScore, quizConfidence)
	}
	if !strings.Contains(h.mock.LastRequest.Messages[1].Content, "Lesson body.") {
		t.Error("resolved lesson content missing from prompt")
	}
}

func TestGenerateQuiz_UnknownLessonMarksFailed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(quizAgentResponse)

	_, err := h.orc.GenerateQuiz(ctx, "user-1", agents.QuizInput{
		LessonID:           "missing",
		LearningObjectives: []string{"x"},
		DifficultyLevel:    "beginner",
		NumberOfQuestions:  2,
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if h.mock.Calls != 0 {
		t.Errorf("provider called %d times, want 0", h.mock.Calls)
	}
}

func TestGenerateRecommendations_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness("")

	result, err := h.orc.GenerateRecommendations(ctx, "user-1", "enrollment-1")
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}
	if h.mock.Calls != 0 {
		t.Errorf("provider called %d times, want 0 on empty history", h.mock.Calls)
	}
	if len(result.Recommendations.Recommendations) != 1 || result.Recommendations.Recommendations[0].Title != "Get Started" {
		t.Errorf("unexpected fallback: %+v", result.Recommendations)
	}
	if result.Request.Status != RequestCompleted {
		t.Errorf("status = %q, want completed", result.Request.Status)
	}
	if result.Response.ConfidenceScore != recommendationConfidence {
		t.Errorf("confidence = %v, want %v", result.Response.ConfidenceScore, recommendationConfidence)
	}
}

func TestGetRequestStatus_Unknown(t *testing.T) {
	h := newHarness("")

	_, err := h.orc.GetRequestStatus(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyCurriculum(t *testing.T) {
	ctx := context.Background()
	h := newHarness(curriculumResponse)
	c, err := h.courses.CreateCourse(ctx, model.Course{InstructorID: "instructor-1", Title: "Go", Status: model.CourseDraft})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	gen, err := h.orc.GenerateCurriculum(ctx, "user-1", validCurriculumInput())
	if err != nil {
		t.Fatalf("GenerateCurriculum: %v", err)
	}
	result, err := h.orc.ApplyCurriculum(ctx, c.ID, gen.Curriculum)
	if err != nil {
		t.Fatalf("ApplyCurriculum: %v", err)
	}
	if len(result.Modules) != 2 || len(result.Lessons) != 3 {
		t.Fatalf("created %d modules / %d lessons, want 2/3", len(result.Modules), len(result.Lessons))
	}
	if result.Modules[0].OrderIndex != 1 || result.Modules[1].OrderIndex != 2 {
		t.Errorf("module order indexes = %d,%d, want 1,2", result.Modules[0].OrderIndex, result.Modules[1].OrderIndex)
	}
	if result.Lessons[0].EstimatedDurationMinutes != 20 {
		t.Errorf("lesson 1 duration = %d, want 20", result.Lessons[0].EstimatedDurationMinutes)
	}
	if result.Lessons[1].EstimatedDurationMinutes != defaultLessonDurationMinutes {
		t.Errorf("lesson 2 duration = %d, want default %d", result.Lessons[1].EstimatedDurationMinutes, defaultLessonDurationMinutes)
	}

	lessons, err := h.courses.ListLessonsByModule(ctx, result.Modules[0].ID)
	if err != nil {
		t.Fatalf("ListLessonsByModule: %v", err)
	}
	if len(lessons) != 2 || lessons[0].OrderIndex != 1 || lessons[1].OrderIndex != 2 {
		t.Errorf("unexpected lesson ordering: %+v", lessons)
	}
}

func TestApplyCurriculum_UnknownCourse(t *testing.T) {
	h := newHarness("")

	_, err := h.orc.ApplyCurriculum(context.Background(), "missing", agents.CurriculumOutput{})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyQuiz(t *testing.T) {
	ctx := context.Background()
	h := newHarness(quizAgentResponse)
	lesson := h.lesson(t, "original content")

	out := agents.QuizOutput{
		Questions: []model.QuizQuestion{
			{ID: "q1", Question: "?", Type: model.ShortAnswer, CorrectAnswer: model.Single("x"), Explanation: "e"},
		},
		Reasoning: "r",
	}
	created, err := h.orc.ApplyQuiz(ctx, "user-1", lesson.ID, out)
	if err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}
	if created.PassingScore != quiz.DefaultPassingScore {
		t.Errorf("passing score = %d, want %d", created.PassingScore, quiz.DefaultPassingScore)
	}
	if len(created.CorrectAnswers) != 1 {
		t.Errorf("derived answers = %d, want 1", len(created.CorrectAnswers))
	}

	got, _ := h.courses.GetLesson(ctx, lesson.ID)
	if got.Content != "original content" {
		t.Error("lesson content overwritten without generated content")
	}
}

func TestApplyQuiz_OverwritesLessonContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(quizAgentResponse)
	lesson := h.lesson(t, "original content")

	out := agents.QuizOutput{
		Questions: []model.QuizQuestion{
			{ID: "q1", Question: "?", Type: model.ShortAnswer, CorrectAnswer: model.Single("x"), Explanation: "e"},
		},
		LessonContent: "rewritten content",
		Reasoning:     "r",
	}
	if _, err := h.orc.ApplyQuiz(ctx, "user-1", lesson.ID, out); err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}
	got, _ := h.courses.GetLesson(ctx, lesson.ID)
	if got.Content != "rewritten content" {
		t.Errorf("lesson content = %q, want rewritten", got.Content)
	}
}

func TestApplyQuiz_RoutesContentThroughVersioning(t *testing.T) {
	ctx := context.Background()

	versionStore := version.NewMemoryStore()
	h := newHarness(quizAgentResponse)
	lesson := h.lesson(t, "original content")
	vs := version.NewService(versionStore, h.courses)

	orc := New(h.requests,
		agents.NewCurriculumAgent(h.mock),
		agents.NewQuizAgent(h.mock),
		agents.NewRecommendationAgent(h.mock),
		h.courses,
		quiz.NewEngine(h.quizzes),
		h.progress,
		WithVersioning(vs))

	out := agents.QuizOutput{
		Questions: []model.QuizQuestion{
			{ID: "q1", Question: "?", Type: model.ShortAnswer, CorrectAnswer: model.Single("x"), Explanation: "e"},
		},
		LessonContent: "rewritten content",
		Reasoning:     "r",
	}
	if _, err := orc.ApplyQuiz(ctx, "user-1", lesson.ID, out); err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}

	// The live lesson is untouched until a reviewer approves.
	got, _ := h.courses.GetLesson(ctx, lesson.ID)
	if got.Content != "original content" {
		t.Errorf("lesson content = %q, want untouched pending review", got.Content)
	}
	versions, err := vs.ListByLesson(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("ListByLesson: %v", err)
	}
	if len(versions) != 1 || versions[0].Status != model.VersionPending {
		t.Fatalf("expected one pending version, got %+v", versions)
	}
	if versions[0].Content != "rewritten content" {
		t.Errorf("version content = %q, want rewritten", versions[0].Content)
	}
}
