// Package profiling records how long the phases of a command take, such as
// loading the configuration or each backend request.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stopper is an interface for stopping a timed span.
type Stopper interface {
	Stop()
}

// span is one timed operation. Spans may overlap.
type span struct {
	name     string
	start    time.Time
	duration time.Duration
	done     bool
	profiler *Profiler
}

// Stop completes the timing for this span. Calling it twice has no effect.
func (s *span) Stop() {
	s.profiler.mu.Lock()
	defer s.profiler.mu.Unlock()
	if s.done {
		return
	}
	s.duration = time.Since(s.start)
	s.done = true
}

// Profiler collects spans. It is safe for concurrent use.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	start   time.Time
	spans   []*span
	metrics *prometheus.Registry
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler, starting over if it was already on.
func Enable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	defaultProfiler.enabled = true
	defaultProfiler.start = time.Now()
	defaultProfiler.spans = nil
	defaultProfiler.metrics = prometheus.NewRegistry()
}

// Disable turns the global profiler off and forgets its spans.
func Disable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	defaultProfiler.enabled = false
	defaultProfiler.spans = nil
	defaultProfiler.metrics = nil
}

// Enabled reports whether spans are being recorded.
func Enabled() bool {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	return defaultProfiler.enabled
}

// Metrics returns the registry whose counters are added to the summary, or
// nil when the profiler is disabled. A fresh registry is made by each Enable.
func Metrics() *prometheus.Registry {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	return defaultProfiler.metrics
}

// Start begins a new timed span with the given name.
// It returns a Stopper which must be used to end the span, typically via defer.
func Start(name string) Stopper {
	return defaultProfiler.startSpan(name)
}

// Summarize prints every span in start order with its share of the total
// run time.
func Summarize(w io.Writer) {
	defaultProfiler.summarize(w)
}

func (p *Profiler) startSpan(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}
	s := &span{name: name, start: time.Now(), profiler: p}
	p.spans = append(p.spans, s)
	return s
}

func (p *Profiler) summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}
	total := time.Since(p.start)

	spans := append([]*span(nil), p.spans...)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].start.Before(spans[j].start)
	})

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, s := range spans {
		if !s.done {
			fmt.Fprintf(w, "- %s (running)\n", s.name)
			continue
		}
		percentage := 0.0
		if total > 0 {
			percentage = float64(s.duration) / float64(total) * 100
		}
		fmt.Fprintf(w, "- %s (%v, %.1f%%)\n", s.name, s.duration.Round(100*time.Microsecond), percentage)
	}
	fmt.Fprintf(w, "total %v\n", total.Round(100*time.Microsecond))
	writeCounters(w, p.metrics)
	fmt.Fprintln(w, "--------------------")
}

// writeCounters prints one line per counter series, such as
// "dqm_api_requests_total code=200 method=get: 3".
func writeCounters(w io.Writer, reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics unavailable: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := strings.Join(append([]string{mf.GetName()}, labels...), " ")
			fmt.Fprintf(w, "- %s: %v\n", name, m.GetCounter().GetValue())
		}
	}
}

// noopStopper is used when the profiler is disabled.
type noopStopper struct{}

func (s noopStopper) Stop() {}
