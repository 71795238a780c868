package ai

import (
	"encoding/json"
	"strings"
)

// ParseJSON decodes structured model output. Models in JSON mode usually
// return a bare document, but some still fence it in a ```json block;
// both shapes are tolerated. Anything else yields a ParseError.
func ParseJSON[T any](content string) (T, error) {
	var result T

	candidate := strings.TrimSpace(content)
	if fenced, ok := extractFencedBlock(candidate); ok {
		candidate = fenced
	}

	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return result, &ParseError{Raw: content, Err: err}
	}
	return result, nil
}

// extractFencedBlock returns the body of a leading ``` or ```json fence.
func extractFencedBlock(content string) (string, bool) {
	if !strings.HasPrefix(content, "```") {
		return "", false
	}

	body := strings.TrimPrefix(content, "```")
	// Drop the language identifier line, if any.
	if idx := strings.Index(body, "\n"); idx != -1 {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx != -1 {
		body = body[:idx]
	}
	return strings.TrimSpace(body), true
}
