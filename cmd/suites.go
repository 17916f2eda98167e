package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/pkg/models"
	"github.com/grovetools/dqm/state"
	"github.com/grovetools/dqm/store"
	"github.com/grovetools/dqm/tui/components"
	"github.com/grovetools/dqm/tui/components/table"
	"github.com/grovetools/dqm/tui/theme"
	"github.com/spf13/cobra"
)

// NewSuitesCmd creates the suites command group.
func NewSuitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suites",
		Short: "Manage audit suites",
		Long: `Create, inspect, run and delete audit suites.

A suite groups checks, the GA views they run against and the history of
their executions. Commands that take an optional suite id fall back to the
suite selected with 'dqm suites use'.

Examples:
  # create a suite from a template and select it
  dqm suites create "Checkout funnel" --template trustful --use

  # run the selected suite
  dqm suites run

  # point the suite at a GA view for March
  dqm suites ga --view 2000 --start 2024-03-01 --end 2024-03-31`,
	}

	cmd.AddCommand(
		newSuitesListCmd(),
		newSuitesShowCmd(),
		newSuitesCreateCmd(),
		newSuitesDeleteCmd(),
		newSuitesRunCmd(),
		newSuitesUseCmd(),
		newSuitesGaCmd(),
	)
	return cmd
}

func newSuitesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				suites, err := s.store.ListSuites(ctx)
				if err != nil {
					return err
				}
				return s.emit(suites, func() {
					if len(suites) == 0 {
						s.pretty.InfoPretty("No suites yet. Create one with 'dqm suites create <name>'.")
						return
					}
					active, _, _ := state.ActiveSuite()
					rows := make([][]string, 0, len(suites))
					for _, p := range suites {
						id := ""
						if p.ID != nil {
							id = strconv.FormatInt(*p.ID, 10)
							if *p.ID == active {
								id = theme.IconArrow + " " + id
							}
						}
						rows = append(rows, []string{id, p.Name, p.Updated.String(), outcome(p.LastExecutionSuccess)})
					}
					s.pretty.Line(table.SimpleTable([]string{"ID", "NAME", "UPDATED", "LAST RUN"}, rows))
				})
			})
		},
	}
}

func newSuitesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a suite with its checks and last execution",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.loadSuite(ctx, args, "show suite"); err != nil {
					return err
				}
				suite := s.store.Suite()
				return s.emit(suite, func() {
					renderSuite(s.out(), s.store, suite)
				})
			})
		},
	}
	cmd.Flags().Int64("suite", 0, "Suite id (defaults to the selected suite)")
	return cmd
}

func newSuitesCreateCmd() *cobra.Command {
	var (
		templateID string
		use        bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if templateID != "" {
					tpl, ok := s.store.Template(templateID)
					if !ok {
						return errors.NotFound("template", templateID).
							WithDetail("available", s.store.TemplateNames())
					}
					if tpl.Disabled {
						return errors.New(errors.ErrCodeInvalidInput,
							fmt.Sprintf("template '%s' is not available yet", templateID))
					}
				}
				if err := s.prepareMutation(ctx); err != nil {
					return err
				}

				id, err := s.store.CreateSuite(ctx, models.SuiteCreationData{
					Name:       args[0],
					TemplateID: templateID,
				})
				if err != nil {
					return err
				}
				if use {
					if err := state.SetActiveSuite(id); err != nil {
						return err
					}
				}
				return s.emit(map[string]int64{"id": id}, func() {
					s.pretty.Success(fmt.Sprintf("Created suite %d", id))
					if use {
						s.pretty.Field("Active suite", id)
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template to seed the suite with")
	cmd.Flags().BoolVar(&use, "use", false, "Select the new suite")
	cli.SetStyledHelpWithExtras(cmd, renderTemplates)
	return cmd
}

// renderTemplates lists the suite templates in the help of 'suites create'.
func renderTemplates(w io.Writer, t *theme.Theme) {
	catalog := store.New(nil)
	section := t.Highlight.Italic(true)
	fmt.Fprintln(w, "\n "+section.Render("TEMPLATES"))
	for _, name := range catalog.TemplateNames() {
		tpl, _ := catalog.Template(name)
		label := tpl.Label
		if tpl.Disabled {
			label = t.Muted.Render(label + " (coming soon)")
		}
		fmt.Fprintf(w, " %-12s %s\n", name, label)
	}
}

func newSuitesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				id, err := parseID("suite", args[0])
				if err != nil {
					return err
				}
				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				if err := s.store.DeleteSuite(ctx, id); err != nil {
					return err
				}
				if active, ok, _ := state.ActiveSuite(); ok && active == id {
					if err := state.ClearActiveSuite(); err != nil {
						return err
					}
				}
				return s.emit(map[string]int64{"deleted": id}, func() {
					s.pretty.Success(fmt.Sprintf("Deleted suite %d", id))
				})
			})
		},
	}
}

func newSuitesRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [id]",
		Short: "Execute a suite and show the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.loadSuite(ctx, args, "run suite"); err != nil {
					return err
				}
				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				exec, err := s.store.RunSuite(ctx)
				if err != nil {
					return err
				}
				return s.emit(exec, func() {
					renderExecution(s.out(), s.store.Suite().Name, exec)
				})
			})
		},
	}
	cmd.Flags().Int64("suite", 0, "Suite id (defaults to the selected suite)")
	return cmd
}

func newSuitesUseCmd() *cobra.Command {
	var clearSelection bool

	cmd := &cobra.Command{
		Use:   "use [id]",
		Short: "Select the suite other commands default to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearSelection {
				if err := state.ClearActiveSuite(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared the selected suite")
				return nil
			}
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "a suite id is required unless --clear is given")
			}

			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.loadSuite(ctx, args, "select suite"); err != nil {
					return err
				}
				suite := s.store.Suite()
				id, _ := suite.IDValue()
				if err := state.SetActiveSuite(id); err != nil {
					return err
				}
				return s.emit(map[string]interface{}{"id": id, "name": suite.Name}, func() {
					s.pretty.Success(fmt.Sprintf("Using suite %d (%s)", id, suite.Name))
				})
			})
		},
	}
	cmd.Flags().BoolVar(&clearSelection, "clear", false, "Forget the selected suite")
	return cmd
}

func newSuitesGaCmd() *cobra.Command {
	var (
		start string
		end   string
		views []string
	)

	cmd := &cobra.Command{
		Use:   "ga [id]",
		Short: "Set the GA date range and views of a suite",
		Long: `Set the GA date range and views of a suite.

Flags that are not given keep their current value. Each --view must name a
view from 'dqm accounts'; its property and account are filled in.

Examples:
  dqm suites ga 3 --view 2000 --start 2024-03-01 --end 2024-03-31`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.loadSuite(ctx, args, "update GA parameters"); err != nil {
					return err
				}
				params := s.store.Suite().GaParams.Clone()

				if cmd.Flags().Changed("start") {
					d, err := parseDateFlag("start", start)
					if err != nil {
						return err
					}
					params.StartDate = d
				}
				if cmd.Flags().Changed("end") {
					d, err := parseDateFlag("end", end)
					if err != nil {
						return err
					}
					params.EndDate = d
				}
				if !params.StartDate.IsZero() && !params.EndDate.IsZero() && params.EndDate.Before(params.StartDate.Time) {
					return errors.New(errors.ErrCodeInvalidInput, "--end must not be before --start")
				}

				if cmd.Flags().Changed("view") {
					if err := s.store.FetchAccountsCache(ctx); err != nil {
						return err
					}
					scope := make([]models.GaScope, 0, len(views))
					for _, viewID := range views {
						v, ok := models.FindView(s.store.Accounts(), viewID)
						if !ok {
							return errors.NotFound("view", viewID)
						}
						scope = append(scope, models.ScopeForView(v))
					}
					params.Scope = scope
				}

				if err := s.prepareMutation(ctx); err != nil {
					return err
				}
				if err := s.store.UpdateGaParams(ctx, params); err != nil {
					return err
				}
				updated := s.store.Suite().GaParams
				return s.emit(updated, func() {
					s.pretty.Success("Updated GA parameters")
					s.pretty.Line(renderGaParams(updated))
				})
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&views, "view", nil, "GA view id (repeatable)")
	cmd.Flags().Int64("suite", 0, "Suite id (defaults to the selected suite)")
	return cmd
}

func parseDateFlag(name, value string) (models.Date, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, errors.Wrap(err, errors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid --%s date %q", name, value))
	}
	return d, nil
}

func renderSuite(w io.Writer, st *store.Store, suite models.Suite) {
	id, _ := suite.IDValue()
	fmt.Fprintln(w, components.RenderHeader(suite.Name, fmt.Sprintf("Suite %d", id)))
	fmt.Fprintln(w, table.StatusTable([][]string{
		{"Created", suite.Created.String()},
		{"Updated", suite.Updated.String()},
	}))
	fmt.Fprintln(w, renderGaParams(suite.GaParams))
	fmt.Fprintln(w)

	if len(suite.Checks) == 0 {
		fmt.Fprintln(w, theme.DefaultTheme.Muted.Render("No checks. Add one with 'dqm checks add <name>'."))
	} else {
		rows := make([][]string, 0, len(suite.Checks))
		for _, c := range suite.Checks {
			th := st.Theme(c.CheckMetadata.Theme)
			active := theme.IconSuccess
			if !c.Active {
				active = theme.DefaultTheme.Muted.Render("off")
			}
			rows = append(rows, []string{
				strconv.FormatInt(c.ID, 10),
				c.Name,
				c.CheckMetadata.Title,
				theme.DefaultTheme.Badge(th.Color, theme.Icon(th.Icon)+" "+th.Name),
				active,
				formatParams(c.ParamValues),
			})
		}
		fmt.Fprintln(w, table.SimpleTable([]string{"ID", "CHECK", "TITLE", "THEME", "ACTIVE", "PARAMETERS"}, rows))
	}

	if last, ok := suite.LastExecution(); ok {
		fmt.Fprintln(w)
		renderExecution(w, suite.Name, last)
	}
}

func renderGaParams(p models.GaParams) string {
	rangeText := "not set"
	if !p.StartDate.IsZero() || !p.EndDate.IsZero() {
		rangeText = fmt.Sprintf("%s %s %s", p.StartDate, theme.IconArrow, p.EndDate)
	}
	views := strings.Join(p.SelectedViews(), ", ")
	if views == "" {
		views = "none"
	}
	return table.StatusTable([][]string{
		{"Date range", rangeText},
		{"Views", views},
	})
}

func renderExecution(w io.Writer, suiteName string, exec models.SuiteExecution) {
	t := theme.DefaultTheme
	fmt.Fprintln(w, components.RenderBreadcrumb(suiteName, fmt.Sprintf("Execution %d", exec.ID)))
	fmt.Fprintln(w, components.RenderKeyValue("Executed", exec.Executed.String())+"  "+outcome(exec.Success))

	if len(exec.CheckExecutions) == 0 {
		fmt.Fprintln(w, t.Muted.Render("No active checks were executed."))
		return
	}

	rows := make([][]string, 0, len(exec.CheckExecutions))
	for _, ce := range exec.CheckExecutions {
		detail := ""
		switch {
		case ce.Result.Exception != "":
			detail = t.Error.Render(ce.Result.Exception)
		case len(ce.Result.Rows()) > 0:
			detail = fmt.Sprintf("%d finding(s)", len(ce.Result.Rows()))
		}
		rows = append(rows, []string{ce.Title, ce.Status.String(), outcome(ce.Success), detail})
	}
	fmt.Fprintln(w, table.SimpleTable([]string{"CHECK", "STATUS", "RESULT", "DETAILS"}, rows))
}

// outcome renders a tri-state success flag.
func outcome(success *bool) string {
	t := theme.DefaultTheme
	switch {
	case success == nil:
		return t.Muted.Render(theme.IconPending + " pending")
	case *success:
		return t.Success.Render(theme.IconSuccess + " passed")
	default:
		return t.Error.Render(theme.IconError + " failed")
	}
}

func formatParams(values map[string]models.Value) string {
	if len(values) == 0 {
		return ""
	}
	return models.Map(values).String()
}
