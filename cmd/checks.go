package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/grovetools/dqm/tui/components"
	"github.com/grovetools/dqm/tui/theme"
	"github.com/spf13/cobra"
)

// NewChecksCmd creates the checks command group. Every subcommand except
// catalog works on the suite given by --suite or selected with
// 'dqm suites use'.
func NewChecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Browse check types and configure the checks of a suite",
		Long: `Browse check types and configure the checks of a suite.

Examples:
  # list the check types of the trustful theme
  dqm checks catalog --theme trustful

  # add a check and raise its threshold
  dqm checks add CheckNbrEventCategories
  dqm checks set 7 threshold=10`,
	}

	cmd.PersistentFlags().Int64("suite", 0, "Suite id (defaults to the selected suite)")

	cmd.AddCommand(
		newChecksCatalogCmd(),
		newChecksAddCmd(),
		newChecksSetCmd(),
		newChecksToggleCmd("enable", true),
		newChecksToggleCmd("disable", false),
		newChecksRemoveCmd(),
	)
	return cmd
}

func newChecksCatalogCmd() *cobra.Command {
	var themeFilter string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the available check types by theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.FetchChecksMetadata(ctx); err != nil {
					return err
				}

				catalog := s.store.ChecksMetadata()
				if themeFilter != "" {
					filtered := catalog[:0]
					for _, m := range catalog {
						if m.Theme == themeFilter {
							filtered = append(filtered, m)
						}
					}
					catalog = filtered
				}

				return s.emit(catalog, func() {
					if len(catalog) == 0 {
						s.pretty.InfoPretty("No check types found.")
						return
					}

					byTheme := make(map[string][]models.CheckMetadata)
					for _, m := range catalog {
						byTheme[m.Theme] = append(byTheme[m.Theme], m)
					}
					names := make([]string, 0, len(byTheme))
					for name := range byTheme {
						names = append(names, name)
					}
					sort.Strings(names)

					t := theme.DefaultTheme
					for i, name := range names {
						if i > 0 {
							s.pretty.Blank()
						}
						th := s.store.Theme(name)
						s.pretty.Line(t.Badge(th.Color, theme.Icon(th.Icon)+" "+th.Name))

						items := make([]string, 0, len(byTheme[name]))
						for _, m := range byTheme[name] {
							platform := s.store.Platform(m.Platform)
							items = append(items, fmt.Sprintf("%s %s  %s",
								theme.Icon(platform.Icon),
								t.Bold.Render(m.Name),
								t.Muted.Render(m.Title)))
						}
						s.pretty.Line(components.RenderList(items, false))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&themeFilter, "theme", "", "Only show check types of this theme")
	return cmd
}

func newChecksAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a check of the named type to the suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.loadSuite(ctx, nil, "create check"); err != nil {
					return err
				}
				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				check, err := s.store.CreateCheck(ctx, args[0])
				if err != nil {
					return err
				}
				return s.emit(check, func() {
					s.pretty.Success(fmt.Sprintf("Added check %d (%s)", check.ID, check.Name))
					if len(check.ParamValues) > 0 {
						s.pretty.Field("Parameters", formatParams(check.ParamValues))
					}
				})
			})
		},
	}
}

func newChecksSetCmd() *cobra.Command {
	var comments string

	cmd := &cobra.Command{
		Use:   "set <checkId> key=value...",
		Short: "Set parameter values of a check",
		Long: `Set parameter values of a check.

Values are given as text and converted to the declared parameter type: lists
are comma separated, booleans accept yes/no and true/false, dates use
YYYY-MM-DD. An empty value resets the parameter to its default.

Examples:
  dqm checks set 7 threshold=10
  dqm checks set 8 blackList=email,phone --comments "GDPR review"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkID, err := parseID("check", args[0])
			if err != nil {
				return err
			}
			updates, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if len(updates) == 0 && !cmd.Flags().Changed("comments") {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to set: give key=value pairs or --comments")
			}

			return run(cmd, func(ctx context.Context, s *session) error {
				check, err := findCheck(ctx, s, checkID, "update check")
				if err != nil {
					return err
				}

				values := models.CloneValues(check.ParamValues)
				if values == nil {
					values = make(map[string]models.Value, len(updates))
				}
				for k, v := range updates {
					values[k] = v
				}
				check.ParamValues = values
				if cmd.Flags().Changed("comments") {
					check.Comments = comments
				}

				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				if err := s.store.UpdateCheck(ctx, check); err != nil {
					return err
				}

				updated, _ := s.store.Suite().CheckByID(checkID)
				return s.emit(updated, func() {
					s.pretty.Success(fmt.Sprintf("Updated check %d (%s)", updated.ID, updated.Name))
					s.pretty.Field("Parameters", formatParams(updated.ParamValues))
				})
			})
		},
	}

	cmd.Flags().StringVar(&comments, "comments", "", "Free-form comments stored with the check")
	return cmd
}

func newChecksToggleCmd(use string, active bool) *cobra.Command {
	verb := "Enabled"
	short := "Include a check in suite runs"
	if !active {
		verb = "Disabled"
		short = "Exclude a check from suite runs"
	}

	return &cobra.Command{
		Use:   use + " <checkId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkID, err := parseID("check", args[0])
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, s *session) error {
				check, err := findCheck(ctx, s, checkID, "update check")
				if err != nil {
					return err
				}
				check.Active = active

				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				if err := s.store.UpdateCheck(ctx, check); err != nil {
					return err
				}

				updated, _ := s.store.Suite().CheckByID(checkID)
				return s.emit(updated, func() {
					s.pretty.Success(fmt.Sprintf("%s check %d (%s)", verb, updated.ID, updated.Name))
				})
			})
		},
	}
}

func newChecksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <checkId>",
		Short: "Remove a check from the suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkID, err := parseID("check", args[0])
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, s *session) error {
				check, err := findCheck(ctx, s, checkID, "delete check")
				if err != nil {
					return err
				}
				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				if err := s.store.DeleteCheck(ctx, check); err != nil {
					return err
				}
				return s.emit(map[string]int64{"deleted": checkID}, func() {
					s.pretty.Success(fmt.Sprintf("Removed check %d (%s)", check.ID, check.Name))
				})
			})
		},
	}
}

// findCheck loads the suite and returns its check with the given id.
func findCheck(ctx context.Context, s *session, checkID int64, operation string) (models.Check, error) {
	if err := s.loadSuite(ctx, nil, operation); err != nil {
		return models.Check{}, err
	}
	check, ok := s.store.Suite().CheckByID(checkID)
	if !ok {
		return models.Check{}, errors.NotFound("check", checkID)
	}
	return check, nil
}

// parseAssignments parses key=value arguments into string values. The store
// converts them to the declared parameter types.
func parseAssignments(args []string) (map[string]models.Value, error) {
	out := make(map[string]models.Value, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("expected key=value, got %q", arg))
		}
		out[key] = models.String(value)
	}
	return out, nil
}
