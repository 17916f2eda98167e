package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of an execution. Transitions only move forward.
type Status int

const (
	StatusCreated Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

var statusNames = []string{"Created", "Running", "Done", "Failed"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ParseStatus parses a status display name.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusCreated, fmt.Errorf("unknown status %q", name)
}

// MarshalJSON encodes the display name, as the backend does.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the display name or the numeric value.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		parsed, err := ParseStatus(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("status must be a name or a number: %w", err)
	}
	if n < 0 || n >= len(statusNames) {
		return fmt.Errorf("unknown status %d", n)
	}
	*s = Status(n)
	return nil
}

// CheckExecutionResult is the outcome reported by one check. Exception is set
// instead of Payload when the check raised.
type CheckExecutionResult struct {
	Success   bool    `json:"success"`
	Payload   []Value `json:"payload"`
	Exception string  `json:"exception,omitempty"`
}

// Rows returns the payload entries that are objects.
func (r CheckExecutionResult) Rows() []map[string]Value {
	var rows []map[string]Value
	for _, item := range r.Payload {
		if m, ok := item.MapValue(); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

// CheckExecution records one check within a suite run.
type CheckExecution struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	Title     string               `json:"title"`
	Status    Status               `json:"status"`
	Success   *bool                `json:"success"`
	InputData map[string]Value     `json:"inputData"`
	Result    CheckExecutionResult `json:"result"`
}

// SuiteExecution records one run of a suite.
type SuiteExecution struct {
	ID              int64            `json:"id"`
	Success         *bool            `json:"success"`
	Executed        Timestamp        `json:"executed"`
	CheckExecutions []CheckExecution `json:"checkExecutions"`
}

// Clone returns a deep copy of e.
func (e SuiteExecution) Clone() SuiteExecution {
	out := e
	out.Success = cloneBool(e.Success)
	if e.CheckExecutions != nil {
		out.CheckExecutions = make([]CheckExecution, len(e.CheckExecutions))
		for i, ce := range e.CheckExecutions {
			ce.Success = cloneBool(ce.Success)
			ce.InputData = CloneValues(ce.InputData)
			if ce.Result.Payload != nil {
				payload := make([]Value, len(ce.Result.Payload))
				for j, v := range ce.Result.Payload {
					payload[j] = v.Clone()
				}
				ce.Result.Payload = payload
			}
			out.CheckExecutions[i] = ce
		}
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
