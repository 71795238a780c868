package ai

import "context"

// MockProvider is a test double for the LLM providers. Calls counts the
// completions issued so tests can assert that input validation rejects bad
// requests before any network call.
type MockProvider struct {
	Response    string
	Err         error
	Calls       int
	LastRequest *CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.Calls++
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: len(m.Response),
			TotalTokens:      10 + len(m.Response),
		},
	}, nil
}
