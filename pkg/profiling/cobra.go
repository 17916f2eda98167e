package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CobraProfiler adds the profiling flags to a command tree and turns them
// into CPU and heap profiles and a timing summary.
type CobraProfiler struct {
	cpuProfileFile *os.File
	cpuProfilePath string
	memProfilePath string
	timing         bool
	logger         *logrus.Entry
}

// NewCobraProfiler creates a new profiler for Cobra integration.
func NewCobraProfiler(logger *logrus.Entry) *CobraProfiler {
	return &CobraProfiler{logger: logger}
}

// AddFlags adds the profiling flags to the given Cobra command.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&p.memProfilePath, "mem-profile", "", "Write memory profile to file")
	cmd.PersistentFlags().BoolVar(&p.timing, "timing", false, "Print the duration of each backend request on exit")
	_ = cmd.PersistentFlags().MarkHidden("cpu-profile")
	_ = cmd.PersistentFlags().MarkHidden("mem-profile")
}

// PreRun is intended to be used as a Cobra PersistentPreRunE hook.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	if p.timing {
		Enable()
	}

	if p.cpuProfilePath != "" {
		f, err := os.Create(p.cpuProfilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		p.cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			p.cpuProfileFile = nil
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}
	return nil
}

// PostRun is intended to be used as a Cobra PersistentPostRun hook. The
// summary goes to the command's stderr so --json output stays parseable.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		p.cpuProfileFile = nil
		p.logger.WithField("path", p.cpuProfilePath).Debug("CPU profile written")
	}

	if p.memProfilePath != "" {
		if err := writeHeapProfile(p.memProfilePath); err != nil {
			p.logger.WithError(err).Warn("Could not write memory profile")
		} else {
			p.logger.WithField("path", p.memProfilePath).Debug("Memory profile written")
		}
	}

	if p.timing {
		Summarize(cmd.ErrOrStderr())
		Disable()
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
