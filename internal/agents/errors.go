package agents

import "fmt"

// ValidationError reports caller input that fails an agent's
// preconditions. It is raised before any provider call is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// SchemaError reports provider output that parsed as JSON but violates
// the agent's expected structure.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("output schema violation: %s", e.Reason)
}
