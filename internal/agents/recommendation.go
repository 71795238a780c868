package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edforge/edforge/internal/ai"
)

const (
	recommendationTemperature = 0.6
	recommendationMaxTokens   = 1500
)

// RecommendationType classifies one recommendation entry.
type RecommendationType string

const (
	RecommendNextLesson         RecommendationType = "next_lesson"
	RecommendReview             RecommendationType = "review"
	RecommendAdditionalResource RecommendationType = "additional_resource"
)

// ProgressItem is one line of the learner's history summarized into the
// prompt.
type ProgressItem struct {
	LessonID     string    `json:"lessonId"`
	LessonTitle  string    `json:"lessonTitle"`
	Status       string    `json:"status"`
	TimeSpent    int       `json:"timeSpent"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// Recommendation is one suggested next step. Priority 1 is highest.
type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	LessonID    string             `json:"lessonId,omitempty"`
	Priority    int                `json:"priority"`
}

// RecommendationOutput is the validated result of a recommendation run.
type RecommendationOutput struct {
	Recommendations []Recommendation `json:"recommendations"`
	Reasoning       string           `json:"reasoning"`
}

// RecommendationAgent suggests next steps from a learner's progress
// history.
type RecommendationAgent struct {
	provider ai.Provider
}

// NewRecommendationAgent creates a recommendation agent on top of a
// provider.
func NewRecommendationAgent(provider ai.Provider) *RecommendationAgent {
	return &RecommendationAgent{provider: provider}
}

// Generate prompts the provider with the progress history. An empty
// history short-circuits to a fixed "Get Started" recommendation with no
// provider call.
func (a *RecommendationAgent) Generate(ctx context.Context, history []ProgressItem) (RecommendationOutput, error) {
	if len(history) == 0 {
		return RecommendationOutput{
			Recommendations: []Recommendation{{
				Type:        RecommendNextLesson,
				Title:       "Get Started",
				Description: "Begin your learning journey with the first lesson",
				Priority:    1,
			}},
			Reasoning: "No progress data available yet. Starting with the first lesson.",
		}, nil
	}

	messages, err := a.constructPrompt(history)
	if err != nil {
		return RecommendationOutput{}, err
	}
	resp, err := a.provider.Complete(ctx, ai.CompletionRequest{
		Messages:       messages,
		Temperature:    recommendationTemperature,
		MaxTokens:      recommendationMaxTokens,
		ResponseFormat: ai.FormatJSON,
	})
	if err != nil {
		return RecommendationOutput{}, fmt.Errorf("recommendation generation: %w", err)
	}

	return a.parseAndValidate(resp.Content)
}

func (a *RecommendationAgent) constructPrompt(history []ProgressItem) ([]ai.Message, error) {
	system := `You are an expert learning analytics system that provides personalized recommendations to learners based on their progress patterns.

Your response must be valid JSON matching this exact schema:
{
  "recommendations": [
    {
      "type": "next_lesson" | "review" | "additional_resource",
      "title": "string",
      "description": "string explaining why this is recommended",
      "lessonId": "string (optional)",
      "priority": number (1-5, with 1 being highest priority)
    }
  ],
  "reasoning": "Detailed explanation of the analysis and why these recommendations are made"
}`

	summary, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("summarize progress: %w", err)
	}
	user := fmt.Sprintf(`Analyze this learner's progress and provide personalized recommendations:

Progress Data:
%s

Requirements:
- Identify patterns in learning behavior (time spent, completion rates, gaps)
- Recommend the most appropriate next steps
- Suggest review for struggling areas
- Provide 3-5 actionable recommendations
- Prioritize recommendations (1 = highest priority)
- Consider learning momentum and gaps in knowledge
- Be encouraging and constructive

Return your response as valid JSON.`, summary)

	return []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil
}

func (a *RecommendationAgent) parseAndValidate(content string) (RecommendationOutput, error) {
	var out RecommendationOutput
	if err := parseAndCheck(content, recommendationSchema, &out); err != nil {
		return RecommendationOutput{}, err
	}
	return out, nil
}
