package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)

	p.Success("Suite created")
	p.Field("id", 12)
	p.ErrorPretty("Run failed", errors.New("/api/suites/12/run"))
	p.WarnPretty("No active suite")

	out := buf.String()
	for _, want := range []string{"Suite created", "id", "12", "Run failed", "/api/suites/12/run", "No active suite"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
	if p.Writer() != &buf {
		t.Error("Writer should return the configured writer")
	}
}
