package ai

import "fmt"

// ProviderError is returned on a non-2xx response from an LLM endpoint.
// Body carries the raw error body for operator diagnosis; callers never
// retry these automatically.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ParseError is returned when model output cannot be parsed as JSON, either
// fenced or bare.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model JSON output: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
