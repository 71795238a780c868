// Package orchestrator owns the AIRequest/AIResponse lifecycle around
// the generation agents, and the apply operations that materialize
// generated content into course records.
package orchestrator

import (
	"time"

	"github.com/edforge/edforge/internal/agents"
)

// AgentType identifies which agent an AIRequest was dispatched to.
type AgentType string

const (
	AgentCurriculum     AgentType = "curriculum_generator"
	AgentQuiz           AgentType = "quiz_generator"
	AgentRecommendation AgentType = "recommendation"
)

// RequestStatus is the lifecycle state of an AIRequest.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestProcessing RequestStatus = "processing"
	RequestCompleted  RequestStatus = "completed"
	RequestFailed     RequestStatus = "failed"
)

// RecommendationRequest is the stored input of a recommendation run.
type RecommendationRequest struct {
	EnrollmentID string `json:"enrollmentId"`
}

// AgentInput is the tagged union of agent inputs. AgentType selects which
// of the payload fields is populated.
type AgentInput struct {
	AgentType      AgentType               `json:"agentType"`
	Curriculum     *agents.CurriculumInput `json:"curriculum,omitempty"`
	Quiz           *agents.QuizInput       `json:"quiz,omitempty"`
	Recommendation *RecommendationRequest  `json:"recommendation,omitempty"`
}

// AgentOutput is the tagged union of agent outputs, mirroring AgentInput.
type AgentOutput struct {
	AgentType      AgentType                    `json:"agentType"`
	Curriculum     *agents.CurriculumOutput     `json:"curriculum,omitempty"`
	Quiz           *agents.QuizOutput           `json:"quiz,omitempty"`
	Recommendation *agents.RecommendationOutput `json:"recommendation,omitempty"`
}

// AIRequest is one recorded agent invocation. Reasoning carries the
// agent's explanation on success and the error message on failure.
type AIRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	AgentType   AgentType     `json:"agentType"`
	Input       AgentInput    `json:"inputData"`
	Status      RequestStatus `json:"status"`
	Reasoning   string        `json:"reasoning,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// AIResponse is the persisted output of a completed request.
type AIResponse struct {
	ID              string         `json:"id"`
	RequestID       string         `json:"requestId"`
	Output          AgentOutput    `json:"outputData"`
	Explanation     string         `json:"explanation"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// RequestWithResponses is the GetRequestStatus payload.
type RequestWithResponses struct {
	AIRequest
	Responses []AIResponse `json:"responses"`
}
