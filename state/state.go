// Package state persists small pieces of CLI state, such as the selected
// suite, between invocations.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvStateDir relocates the state file, which otherwise lives in .dqm/ under
// the working directory.
const EnvStateDir = "DQM_STATE_DIR"

const fileName = "state.yml"

// State is the content of the state file.
type State struct {
	// ActiveSuite is the suite commands operate on by default. Zero means
	// none is selected.
	ActiveSuite int64 `yaml:"active_suite,omitempty"`

	// Extra keeps keys this version does not know so saving preserves them.
	Extra map[string]interface{} `yaml:",inline"`
}

// Path returns the location of the state file.
func Path() (string, error) {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return filepath.Join(dir, fileName), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current directory: %w", err)
	}
	return filepath.Join(cwd, ".dqm", fileName), nil
}

// Load reads the state file. A missing file is an empty state.
func Load() (*State, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	st := &State{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return st, nil
}

// Save writes st through a temporary file so a concurrent reader never sees
// a partial file.
func Save(st *State) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), fileName+".*")
	if err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result.
func Update(fn func(st *State)) error {
	st, err := Load()
	if err != nil {
		return err
	}
	fn(st)
	return Save(st)
}

// ActiveSuite returns the selected suite id.
func ActiveSuite() (int64, bool, error) {
	st, err := Load()
	if err != nil {
		return 0, false, err
	}
	return st.ActiveSuite, st.ActiveSuite > 0, nil
}

// SetActiveSuite selects the suite with the given id.
func SetActiveSuite(id int64) error {
	return Update(func(st *State) { st.ActiveSuite = id })
}

// ClearActiveSuite forgets the selected suite.
func ClearActiveSuite() error {
	return Update(func(st *State) { st.ActiveSuite = 0 })
}
