// Package schema embeds the JSON Schema of dqm.yml and checks configuration
// documents against it.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

//go:embed dqm.schema.json
var embedded []byte

const resourceName = "dqm.schema.json"

// Schema returns a copy of the embedded JSON Schema document.
func Schema() []byte {
	return bytes.Clone(embedded)
}

// Issue is one violation of the schema. Path is a JSON pointer into the
// document, "/" for the document itself.
type Issue struct {
	Path    string
	Message string
}

// ValidationError lists every violation found in a document, sorted by path.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Issues)+1)
	lines = append(lines, "schema validation failed:")
	for _, issue := range e.Issues {
		lines = append(lines, fmt.Sprintf("- %s: %s", issue.Path, issue.Message))
	}
	return strings.Join(lines, "\n")
}

var compiled struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// compile builds the embedded schema once per process.
func compile() (*jsonschema.Schema, error) {
	compiled.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resourceName, bytes.NewReader(embedded)); err != nil {
			compiled.err = fmt.Errorf("failed to load embedded schema: %w", err)
			return
		}
		compiled.schema, compiled.err = compiler.Compile(resourceName)
		if compiled.err != nil {
			compiled.err = fmt.Errorf("failed to compile embedded schema: %w", compiled.err)
		}
	})
	return compiled.schema, compiled.err
}

// Validate checks document, any value that marshals to JSON, against the
// embedded schema. Violations are reported as a *ValidationError.
func Validate(document interface{}) error {
	s, err := compile()
	if err != nil {
		return err
	}

	// The validator works on decoded JSON values, not Go structs.
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	err = s.Validate(value)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return &ValidationError{Issues: issues(verr)}
}

// issues flattens the leaves of a validation error tree.
func issues(root *jsonschema.ValidationError) []Issue {
	var out []Issue
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := e.InstanceLocation
			if path == "" {
				path = "/"
			}
			out = append(out, Issue{Path: path, Message: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
