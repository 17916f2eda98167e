package logging

import (
	"io"
	"os"
	"sync/atomic"
)

// sink is the stderr destination shared by every logger. It can be
// redirected after loggers have been created.
type sink struct {
	current atomic.Pointer[io.Writer]
}

func newSink(w io.Writer) *sink {
	s := &sink{}
	s.set(w)
	return s
}

func (s *sink) Write(p []byte) (int, error) {
	return (*s.current.Load()).Write(p)
}

func (s *sink) set(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	s.current.Store(&w)
}

var stderrSink = newSink(os.Stderr)

// SetGlobalOutput redirects the stderr output of every logger, including
// loggers created before the call. A nil writer restores os.Stderr.
func SetGlobalOutput(w io.Writer) {
	stderrSink.set(w)
}

// GetGlobalOutput returns the shared stderr sink.
func GetGlobalOutput() io.Writer {
	return stderrSink
}
