package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr string
	}{
		{
			name: "empty document",
			data: map[string]interface{}{},
		},
		{
			name: "full document",
			data: map[string]interface{}{
				"version": "1.0",
				"server": map[string]interface{}{
					"base_url":    "https://dqm.example.com",
					"timeout":     "1m30s",
					"csrf_cookie": "csrftoken",
					"csrf_header": "X-CSRFTOKEN",
				},
				"ui": map[string]interface{}{"drawer": false, "debug": true},
				"logging": map[string]interface{}{
					"level":  "debug",
					"format": map[string]interface{}{"preset": "json"},
				},
			},
		},
		{
			name: "unknown extensions are allowed",
			data: map[string]interface{}{"notifications": map[string]interface{}{"slack": true}},
		},
		{
			name:    "bad timeout",
			data:    map[string]interface{}{"server": map[string]interface{}{"timeout": "soon"}},
			wantErr: "/server/timeout",
		},
		{
			name:    "unknown server key",
			data:    map[string]interface{}{"server": map[string]interface{}{"host": "x"}},
			wantErr: "/server",
		},
		{
			name:    "drawer must be a boolean",
			data:    map[string]interface{}{"ui": map[string]interface{}{"drawer": "yes"}},
			wantErr: "/ui/drawer",
		},
		{
			name:    "unknown log level",
			data:    map[string]interface{}{"logging": map[string]interface{}{"level": "loud"}},
			wantErr: "/logging/level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			paths := make([]string, 0, len(verr.Issues))
			for _, issue := range verr.Issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.wantErr)
		})
	}
}

func TestSchemaIsACopy(t *testing.T) {
	doc := Schema()
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Contains(t, parsed, "$defs")

	doc[0] = 'x'
	assert.NotEqual(t, doc[0], Schema()[0])
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Issues: []Issue{
		{Path: "/server/timeout", Message: "does not match pattern"},
		{Path: "/ui/drawer", Message: "expected boolean, but got string"},
	}}
	assert.Equal(t, "schema validation failed:\n- /server/timeout: does not match pattern\n- /ui/drawer: expected boolean, but got string", err.Error())
}
