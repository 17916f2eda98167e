package cmd

import (
	"context"
	"strconv"

	"github.com/grovetools/dqm/pkg/models"
	"github.com/grovetools/dqm/tui/components"
	"github.com/grovetools/dqm/tui/components/table"
	"github.com/spf13/cobra"
)

const statsBarWidth = 24

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [checks|suites]",
		Short: "Show daily execution statistics",
		Long: `Show daily execution statistics of suites (the default) or checks.

Examples:
  dqm stats
  dqm stats checks --json`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"checks", "suites"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "suites"
			if len(args) == 1 {
				kind = args[0]
			}

			return run(cmd, func(ctx context.Context, s *session) error {
				fetch := s.store.FetchSuitesStats
				if kind == "checks" {
					fetch = s.store.FetchChecksStats
				}
				stats, err := fetch(ctx)
				if err != nil {
					return err
				}

				return s.emit(stats, func() {
					if len(stats) == 0 {
						s.pretty.InfoPretty("No executions recorded yet.")
						return
					}
					s.pretty.Line(components.RenderHeader("Executions of " + kind))
					s.pretty.Line(renderStats(stats))
				})
			})
		},
	}
}

func renderStats(stats models.StatsTable) string {
	row := func(label string, d models.DailyStat) []string {
		return []string{
			label,
			strconv.Itoa(d.Executions),
			strconv.Itoa(d.Successes),
			strconv.Itoa(d.Fails),
			components.RenderProgress(d.Successes, d.Executions, statsBarWidth),
		}
	}

	rows := make([][]string, 0, len(stats)+1)
	for _, d := range stats {
		rows = append(rows, row(d.Day.String(), d))
	}
	rows = append(rows, row("total", stats.Totals()))

	return table.SimpleTable([]string{"DAY", "EXECUTIONS", "SUCCESSES", "FAILS", "SUCCESS RATE"}, rows)
}
