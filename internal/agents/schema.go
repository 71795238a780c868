package agents

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/edforge/edforge/internal/ai"
)

// JSON Schema documents validated against provider output before any
// per-field checks run.
const (
	curriculumSchema = `{
  "type": "object",
  "required": ["modules", "reasoning"],
  "properties": {
    "modules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "lessons"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "lessons": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["title", "learningObjectives", "content", "estimatedDuration"],
              "properties": {
                "title": {"type": "string", "minLength": 1},
                "learningObjectives": {"type": "array", "items": {"type": "string"}},
                "content": {"type": "string", "minLength": 1},
                "estimatedDuration": {"type": "number", "minimum": 1}
              }
            }
          }
        }
      }
    },
    "reasoning": {"type": "string", "minLength": 1}
  }
}`

	quizSchema = `{
  "type": "object",
  "required": ["questions", "reasoning"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "question", "type", "correctAnswer", "explanation"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "question": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["multiple_choice", "short_answer"]},
          "options": {"type": "array", "items": {"type": "string"}},
          "correctAnswer": {
            "oneOf": [
              {"type": "string"},
              {"type": "array", "items": {"type": "string"}, "minItems": 1}
            ]
          },
          "explanation": {"type": "string", "minLength": 1}
        }
      }
    },
    "lessonContent": {"type": "string"},
    "reasoning": {"type": "string", "minLength": 1}
  }
}`

	recommendationSchema = `{
  "type": "object",
  "required": ["recommendations", "reasoning"],
  "properties": {
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "title", "description", "priority"],
        "properties": {
          "type": {"type": "string", "enum": ["next_lesson", "review", "additional_resource"]},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1},
          "lessonId": {"type": "string"},
          "priority": {"type": "integer", "minimum": 1, "maximum": 5}
        }
      }
    },
    "reasoning": {"type": "string", "minLength": 1}
  }
}`
)

// parseAndCheck strips any markdown fencing from the provider output,
// validates the JSON against the schema and unmarshals into dest.
func parseAndCheck(content, schema string, dest any) error {
	raw, err := ai.ParseJSON[json.RawMessage](content)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return &SchemaError{Reason: err.Error()}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return &SchemaError{Reason: strings.Join(reasons, "; ")}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return &SchemaError{Reason: err.Error()}
	}
	return nil
}
