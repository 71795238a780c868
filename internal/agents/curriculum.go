// Package agents holds the generation agents: stateless components that
// validate caller input, build a provider prompt and validate the
// provider's structured output.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/edforge/edforge/internal/ai"
)

const (
	curriculumTemperature = 0.7
	curriculumMaxTokens   = 3000
)

// CurriculumInput describes the course a learner wants generated.
type CurriculumInput struct {
	Objectives     []string `json:"objectives"`
	TargetAudience string   `json:"targetAudience"`
	DurationHours  float64  `json:"durationHours"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
}

// CurriculumLesson is one generated lesson within a module.
type CurriculumLesson struct {
	Title              string   `json:"title"`
	LearningObjectives []string `json:"learningObjectives"`
	Content            string   `json:"content"`
	EstimatedDuration  int      `json:"estimatedDuration"`
}

// CurriculumModule is one generated module with its lessons.
type CurriculumModule struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Lessons     []CurriculumLesson `json:"lessons"`
}

// CurriculumOutput is the validated result of a curriculum generation.
type CurriculumOutput struct {
	Modules   []CurriculumModule `json:"modules"`
	Reasoning string             `json:"reasoning"`
}

// CurriculumAgent generates a full course structure from learning
// objectives.
type CurriculumAgent struct {
	provider ai.Provider
}

// NewCurriculumAgent creates a curriculum agent on top of a provider.
func NewCurriculumAgent(provider ai.Provider) *CurriculumAgent {
	return &CurriculumAgent{provider: provider}
}

// Generate validates the input, prompts the provider and validates the
// generated curriculum. Invalid input fails before any provider call.
func (a *CurriculumAgent) Generate(ctx context.Context, input CurriculumInput) (CurriculumOutput, error) {
	if err := a.validateInput(input); err != nil {
		return CurriculumOutput{}, err
	}

	resp, err := a.provider.Complete(ctx, ai.CompletionRequest{
		Messages:       a.constructPrompt(input),
		Temperature:    curriculumTemperature,
		MaxTokens:      curriculumMaxTokens,
		ResponseFormat: ai.FormatJSON,
	})
	if err != nil {
		return CurriculumOutput{}, fmt.Errorf("curriculum generation: %w", err)
	}

	return a.parseAndValidate(resp.Content)
}

func (a *CurriculumAgent) validateInput(input CurriculumInput) error {
	if len(input.Objectives) == 0 {
		return &ValidationError{Field: "objectives", Reason: "at least one learning objective is required"}
	}
	if strings.TrimSpace(input.TargetAudience) == "" {
		return &ValidationError{Field: "targetAudience", Reason: "target audience is required"}
	}
	if input.DurationHours <= 0 {
		return &ValidationError{Field: "durationHours", Reason: "duration must be a positive number"}
	}
	return nil
}

func (a *CurriculumAgent) constructPrompt(input CurriculumInput) []ai.Message {
	system := `You are an expert curriculum designer with deep knowledge of pedagogy and instructional design. Your task is to create structured, well-organized course content that progressively builds knowledge and skills.

Your response must be valid JSON matching this exact schema:
{
  "modules": [
    {
      "title": "string",
      "description": "string",
      "lessons": [
        {
          "title": "string",
          "learningObjectives": ["string"],
          "content": "markdown formatted string with detailed lesson content",
          "estimatedDuration": number (in minutes)
        }
      ]
    }
  ],
  "reasoning": "Detailed explanation of your pedagogical choices, topic sequencing, and how the curriculum aligns with the learning objectives"
}`

	var b strings.Builder
	b.WriteString("Create a comprehensive curriculum with the following requirements:\n\nLearning Objectives:\n")
	for i, obj := range input.Objectives {
		fmt.Fprintf(&b, "%d. %s\n", i+1, obj)
	}
	fmt.Fprintf(&b, "\nTarget Audience: %s\nTotal Duration: %g hours", input.TargetAudience, input.DurationHours)
	if len(input.Prerequisites) > 0 {
		fmt.Fprintf(&b, "\n\nPrerequisites: %s", strings.Join(input.Prerequisites, ", "))
	}
	b.WriteString(`

Requirements:
- Break down the content into logical modules
- Each module should have 3-5 lessons
- Lessons should build on each other progressively
- Include clear learning objectives for each lesson
- Provide detailed markdown content for each lesson (at least 200 words per lesson)
- Ensure total estimated duration matches the specified hours
- Consider the target audience's background and learning needs

Return your response as valid JSON.`)

	return []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: b.String()},
	}
}

func (a *CurriculumAgent) parseAndValidate(content string) (CurriculumOutput, error) {
	var out CurriculumOutput
	if err := parseAndCheck(content, curriculumSchema, &out); err != nil {
		return CurriculumOutput{}, err
	}
	return out, nil
}
