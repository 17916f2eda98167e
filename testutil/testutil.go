// Package testutil holds helpers shared by tests that run the CLI against
// a fake backend.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/dqm/config"
	"github.com/grovetools/dqm/pkg/paths"
	"github.com/grovetools/dqm/state"
	"github.com/stretchr/testify/require"
)

// Isolate points the global config, the state file and the server URL
// override at fresh temporary locations so a test cannot see the developer's
// files. It returns the temporary root.
func Isolate(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv(paths.EnvHome, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	t.Setenv(state.EnvStateDir, filepath.Join(root, "state"))
	t.Setenv(config.EnvServerURL, "")
	t.Setenv("DQM_LOG_LEVEL", "")
	return root
}

// WriteConfig writes a dqm.yml into dir and returns its path.
func WriteConfig(t *testing.T, dir, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "dqm.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
