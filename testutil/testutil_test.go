package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/dqm/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolate(t *testing.T) {
	root := Isolate(t)
	assert.Equal(t, filepath.Join(root, "xdg"), os.Getenv("XDG_CONFIG_HOME"))
	assert.Empty(t, os.Getenv(config.EnvServerURL))
}

func TestWriteConfig(t *testing.T) {
	root := Isolate(t)
	path := WriteConfig(t, filepath.Join(root, "project"), "server:\n  base_url: https://dqm.example.com\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://dqm.example.com", cfg.Server.BaseURL)
}
