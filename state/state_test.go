package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestActiveSuite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvStateDir, dir)

	t.Run("nothing selected", func(t *testing.T) {
		id, ok, err := ActiveSuite()
		if err != nil {
			t.Fatalf("ActiveSuite() error = %v", err)
		}
		if ok || id != 0 {
			t.Errorf("ActiveSuite() = %d, %v; want nothing selected", id, ok)
		}
	})

	t.Run("select", func(t *testing.T) {
		if err := SetActiveSuite(42); err != nil {
			t.Fatalf("SetActiveSuite() error = %v", err)
		}
		id, ok, err := ActiveSuite()
		if err != nil || !ok || id != 42 {
			t.Errorf("ActiveSuite() = %d, %v, %v; want 42", id, ok, err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "state.yml"))
		if err != nil {
			t.Fatalf("state file not written: %v", err)
		}
		if !strings.Contains(string(data), "active_suite: 42") {
			t.Errorf("unexpected state file:\n%s", data)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := ClearActiveSuite(); err != nil {
			t.Fatalf("ClearActiveSuite() error = %v", err)
		}
		if _, ok, _ := ActiveSuite(); ok {
			t.Error("suite still selected after ClearActiveSuite()")
		}
	})

	t.Run("no temporary files left", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only state.yml, got %d entries", len(entries))
		}
	})
}

func TestUnknownKeysArePreserved(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvStateDir, dir)

	path := filepath.Join(dir, "state.yml")
	if err := os.WriteFile(path, []byte("active_suite: 3\nlast_view: \"2000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SetActiveSuite(7); err != nil {
		t.Fatalf("SetActiveSuite() error = %v", err)
	}

	st, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.ActiveSuite != 7 {
		t.Errorf("ActiveSuite = %d, want 7", st.ActiveSuite)
	}
	if st.Extra["last_view"] != "2000" {
		t.Errorf("last_view = %v, want 2000", st.Extra["last_view"])
	}
}

func TestCorruptStateFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvStateDir, dir)

	if err := os.WriteFile(filepath.Join(dir, "state.yml"), []byte("active_suite: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ActiveSuite(); err == nil {
		t.Error("expected an error for a corrupt state file")
	}
}

func TestDefaultLocation(t *testing.T) {
	t.Setenv(EnvStateDir, "")
	dir := t.TempDir()
	t.Chdir(dir)

	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	parent := filepath.Dir(filepath.Dir(path))
	if parent != dir && parent != resolved {
		t.Errorf("expected state under %s, got %s", dir, path)
	}
	if filepath.Base(filepath.Dir(path)) != ".dqm" {
		t.Errorf("expected .dqm directory, got %s", path)
	}
}
