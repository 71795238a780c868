package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/edforge/edforge/internal/ai"
	"github.com/edforge/edforge/internal/model"
)

const (
	quizTemperature = 0.8
	quizMaxTokens   = 2000

	minQuizQuestions = 1
	maxQuizQuestions = 20

	minLessonContentChars = 50
)

// DifficultyLevels are the recognized values for QuizInput.DifficultyLevel.
var DifficultyLevels = []string{"beginner", "intermediate", "advanced"}

// QuizInput describes the quiz to generate. LessonContent is required by
// the agent itself; callers that only hold a LessonID resolve the content
// before invoking it. When GenerateLessonContent is set the agent also
// asks the provider for a rewritten lesson body, returned in QuizOutput.
type QuizInput struct {
	LessonID              string   `json:"lessonId,omitempty"`
	LessonContent         string   `json:"lessonContent"`
	LessonTitle           string   `json:"lessonTitle,omitempty"`
	LearningObjectives    []string `json:"learningObjectives"`
	DifficultyLevel       string   `json:"difficultyLevel"`
	NumberOfQuestions     int      `json:"numberOfQuestions"`
	GenerateLessonContent bool     `json:"generateLessonContent,omitempty"`
}

// QuizOutput is the validated result of a quiz generation. LessonContent
// is only present when the input asked for it.
type QuizOutput struct {
	Questions     []model.QuizQuestion `json:"questions"`
	LessonContent string               `json:"lessonContent,omitempty"`
	Reasoning     string               `json:"reasoning"`
}

// QuizAgent generates quiz questions from lesson content.
type QuizAgent struct {
	provider ai.Provider
}

// NewQuizAgent creates a quiz agent on top of a provider.
func NewQuizAgent(provider ai.Provider) *QuizAgent {
	return &QuizAgent{provider: provider}
}

// Generate validates the input, prompts the provider and validates the
// generated questions. Invalid input fails before any provider call.
func (a *QuizAgent) Generate(ctx context.Context, input QuizInput) (QuizOutput, error) {
	if err := a.validateInput(input); err != nil {
		return QuizOutput{}, err
	}

	resp, err := a.provider.Complete(ctx, ai.CompletionRequest{
		Messages:       a.constructPrompt(input),
		Temperature:    quizTemperature,
		MaxTokens:      quizMaxTokens,
		ResponseFormat: ai.FormatJSON,
	})
	if err != nil {
		return QuizOutput{}, fmt.Errorf("quiz generation: %w", err)
	}

	return a.parseAndValidate(resp.Content)
}

func (a *QuizAgent) validateInput(input QuizInput) error {
	if len(strings.TrimSpace(input.LessonContent)) < minLessonContentChars {
		return &ValidationError{Field: "lessonContent", Reason: fmt.Sprintf("must be at least %d characters", minLessonContentChars)}
	}
	if len(input.LearningObjectives) == 0 {
		return &ValidationError{Field: "learningObjectives", Reason: "at least one learning objective is required"}
	}
	if input.NumberOfQuestions < minQuizQuestions || input.NumberOfQuestions > maxQuizQuestions {
		return &ValidationError{Field: "numberOfQuestions", Reason: fmt.Sprintf("must be between %d and %d", minQuizQuestions, maxQuizQuestions)}
	}
	for _, level := range DifficultyLevels {
		if input.DifficultyLevel == level {
			return nil
		}
	}
	return &ValidationError{Field: "difficultyLevel", Reason: fmt.Sprintf("must be one of %s", strings.Join(DifficultyLevels, ", "))}
}

func (a *QuizAgent) constructPrompt(input QuizInput) []ai.Message {
	system := `You are an expert educational assessment designer. Your task is to create high-quality quiz questions that accurately assess understanding of the lesson content and learning objectives.

Your response must be valid JSON matching this exact schema:
{
  "questions": [
    {
      "id": "unique_string_id",
      "question": "string",
      "type": "multiple_choice" | "short_answer",
      "options": ["string"] (only for multiple_choice),
      "correctAnswer": "string" | ["string"],
      "explanation": "string explaining why this is correct"
    }
  ],
  "reasoning": "Explanation of what concepts each question tests and why they're appropriate for the difficulty level"
}`
	if input.GenerateLessonContent {
		system += `

Additionally include a "lessonContent" key: a polished markdown rewrite of the lesson suited to the requested difficulty level.`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create %d quiz questions based on the following:\n\n", input.NumberOfQuestions)
	if input.LessonTitle != "" {
		fmt.Fprintf(&b, "Lesson: %s\n\n", input.LessonTitle)
	}
	fmt.Fprintf(&b, "Lesson Content:\n%s\n\nLearning Objectives:\n", input.LessonContent)
	for i, obj := range input.LearningObjectives {
		fmt.Fprintf(&b, "%d. %s\n", i+1, obj)
	}
	fmt.Fprintf(&b, "\nDifficulty Level: %s\n", input.DifficultyLevel)
	fmt.Fprintf(&b, `
Requirements:
- Create a mix of multiple-choice (70%%) and short-answer (30%%) questions
- Each question should test a specific concept from the lesson
- Multiple-choice questions should have 4 options with only one correct answer
- Avoid ambiguous or trick questions
- Include explanations for correct answers
- Ensure questions are appropriate for %s level
- Questions should progressively test deeper understanding

Return your response as valid JSON.`, input.DifficultyLevel)

	return []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: b.String()},
	}
}

func (a *QuizAgent) parseAndValidate(content string) (QuizOutput, error) {
	var out QuizOutput
	if err := parseAndCheck(content, quizSchema, &out); err != nil {
		return QuizOutput{}, err
	}
	for _, q := range out.Questions {
		if q.Type != model.MultipleChoice && q.Type != model.ShortAnswer {
			return QuizOutput{}, &SchemaError{Reason: fmt.Sprintf("question %q: unknown type %q", q.ID, q.Type)}
		}
		if q.Type == model.MultipleChoice && len(q.Options) < 2 {
			return QuizOutput{}, &SchemaError{Reason: fmt.Sprintf("question %q: multiple choice needs at least 2 options", q.ID)}
		}
	}
	return out, nil
}
