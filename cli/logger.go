package cli

import (
	"io"

	"github.com/grovetools/dqm/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetLogger returns the CLI logger, switched to debug level by --verbose and
// to JSON by --json. Every component logger writes to the command's error
// stream from then on.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	logging.SetGlobalOutput(cmd.ErrOrStderr())
	entry := logging.NewLogger("dqm-cli")

	opts := GetOptions(cmd)
	if opts.Verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	if opts.JSONOutput {
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return entry
}

// bootstrapLogger logs while the configuration is loaded, before the
// logging section that drives logging.NewLogger is known. Only warnings are
// shown unless verbose is set.
func bootstrapLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logging.TextFormatter{Config: logging.FormatConfig{DisableTimestamp: true}})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
