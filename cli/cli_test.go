package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := NewStandardCommand("dqm", "test")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestGetOptions(t *testing.T) {
	cmd := parsedCommand(t, "-v", "--json", "--config", "/tmp/dqm.yml", "--server", "http://localhost:9000")
	assert.Equal(t, CommandOptions{
		ConfigFile: "/tmp/dqm.yml",
		ServerURL:  "http://localhost:9000",
		Verbose:    true,
		JSONOutput: true,
	}, GetOptions(cmd))
}

func TestLoadConfig(t *testing.T) {
	root := testutil.Isolate(t)
	path := testutil.WriteConfig(t, filepath.Join(root, "project"), "server:\n  base_url: https://file.example.com\n")

	t.Run("explicit file", func(t *testing.T) {
		cfg, err := LoadConfig(parsedCommand(t, "--config", path))
		require.NoError(t, err)
		assert.Equal(t, "https://file.example.com", cfg.Server.BaseURL)
	})

	t.Run("server flag wins", func(t *testing.T) {
		cfg, err := LoadConfig(parsedCommand(t, "--config", path, "--server", "http://127.0.0.1:8000"))
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:8000", cfg.Server.BaseURL)
	})

	t.Run("invalid server flag", func(t *testing.T) {
		_, err := LoadConfig(parsedCommand(t, "--config", path, "--server", "localhost"))
		assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(parsedCommand(t, "--config", filepath.Join(root, "nope.yml")))
		assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
	})
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "no active suite",
			err:  errors.NoActiveSuite("run suite"),
			want: []string{"No active suite", "Cannot run suite", "dqm suites use"},
		},
		{
			name: "csrf rejection",
			err:  errors.RequestFailed("POST", "/api/suites/", 403, "", nil),
			want: []string{"POST /api/suites/ failed", "403 Forbidden", "CSRF"},
		},
		{
			name: "missing resource",
			err:  errors.RequestFailed("GET", "/api/suites/9", 404, "", nil),
			want: []string{"GET /api/suites/9 failed", "dqm suites list"},
		},
		{
			name: "unreachable backend",
			err:  errors.RequestFailed("GET", "/api/cache", 0, "", fmt.Errorf("connection refused")),
			want: []string{"GET /api/cache failed", "connection refused", "server.base_url"},
		},
		{
			name: "invalid parameter",
			err:  errors.InvalidParam("CheckNbrEventCategories", "threshold", "not an integer"),
			want: []string{"parameter 'threshold'"},
		},
		{
			name: "config",
			err:  errors.ConfigNotFound("/tmp/x.yml"),
			want: []string{"Configuration not found", "--config"},
		},
		{
			name: "plain error",
			err:  fmt.Errorf("boom"),
			want: []string{"Error", "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			returned := NewErrorHandler(&buf, false).Handle(tt.err)
			assert.Equal(t, tt.err, returned)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	t.Run("verbose prints details", func(t *testing.T) {
		var buf bytes.Buffer
		_ = NewErrorHandler(&buf, true).Handle(errors.RequestFailed("GET", "/api/checks", 500, "boom", nil))
		assert.Contains(t, buf.String(), "Error details:")
		assert.Contains(t, buf.String(), `"body": "boom"`)
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, NewErrorHandler(&buf, false).Handle(nil))
		assert.Empty(t, buf.String())
	})
}

func TestVersionCommand(t *testing.T) {
	root := NewStandardCommand("dqm", "test")
	root.AddCommand(NewVersionCommand("dqm"))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["platform"])
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("dqm", "Audit Google Analytics data quality")
	root.Long = "Manage audit suites.\n\nExamples:\n  # list suites\n  dqm suites list --json"
	root.AddCommand(&cobra.Command{Use: "suites", Short: "Manage suites", Run: func(*cobra.Command, []string) {}})
	ApplyStyledHelpRecursive(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	for _, want := range []string{"DQM", "COMMANDS", "suites", "Manage suites", "EXAMPLES", "list suites"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestParseChoices(t *testing.T) {
	desc, choices := parseChoices("Output format: table, json, or yaml")
	assert.Equal(t, "Output format:", desc)
	assert.Equal(t, []string{"table", "json", "yaml"}, choices)

	desc, choices = parseChoices("Suite id")
	assert.Equal(t, "Suite id", desc)
	assert.Nil(t, choices)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "short", wrapText("short", 40))
}
