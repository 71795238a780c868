package model

import (
	"encoding/json"
	"fmt"
)

// Answer is a correct-answer value that is either a single string or a set
// of accepted strings, mirroring the two JSON shapes the generator produces.
type Answer struct {
	Value  string
	Values []string
}

// IsSet reports whether the answer carries multiple accepted values.
func (a Answer) IsSet() bool {
	return a.Values != nil
}

// Single returns an Answer holding one accepted string.
func Single(v string) Answer {
	return Answer{Value: v}
}

// AnySet returns an Answer accepting any member of vs.
func AnySet(vs ...string) Answer {
	return Answer{Values: vs}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsSet() {
		return json.Marshal(a.Values)
	}
	return json.Marshal(a.Value)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Value = s
		a.Values = nil
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err == nil {
		a.Value = ""
		a.Values = vs
		return nil
	}
	return fmt.Errorf("answer must be a string or an array of strings, got %s", data)
}
