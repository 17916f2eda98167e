package cmd

import (
	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/pkg/profiling"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the dqm command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"dqm",
		"Audit the data quality of Google Analytics properties",
	)
	root.Long = `Manage audit suites on a dqm backend: group checks into suites, point
them at GA views, run them and follow their results over time.

The backend is configured with server.base_url in dqm.yml, DQM_SERVER_URL
or --server.

Examples:
  # see what can be checked
  dqm checks catalog

  # create, select and run a suite
  dqm suites create "Consent audit" --template trustful --use
  dqm suites run`

	profiler := profiling.NewCobraProfiler(logging.NewLogger("dqm-cli"))
	profiler.AddFlags(root)
	root.PersistentPreRunE = profiler.PreRun
	root.PersistentPostRun = profiler.PostRun

	root.AddCommand(
		NewSuitesCmd(),
		NewChecksCmd(),
		NewAccountsCmd(),
		NewSettingsCmd(),
		NewStatsCmd(),
		NewConfigCmd(),
		NewLogsCmd(),
		cli.NewVersionCommand("dqm"),
	)

	cli.ApplyStyledHelpRecursive(root)
	return root
}
