package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/grovetools/dqm/pkg/models"
	"github.com/grovetools/dqm/tui/components/table"
	"github.com/grovetools/dqm/tui/theme"
	"github.com/spf13/cobra"
)

// NewAccountsCmd creates the accounts command.
func NewAccountsCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Show the GA accounts, properties and views",
		Long: `Show the GA accounts, properties and views available to the backend.

By default the hierarchy cached by the backend is shown. --live asks the
backend to query Google Analytics instead, which is slower.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				fetch := s.store.FetchAccountsCache
				if live {
					fetch = s.store.FetchAccounts
				}
				if err := fetch(ctx); err != nil {
					return err
				}

				accounts := s.store.Accounts()
				return s.emit(accounts, func() {
					if len(accounts) == 0 {
						s.pretty.InfoPretty("No GA accounts are visible to the backend service account.")
						return
					}
					s.pretty.Line(renderAccountsTree(models.AccountsTree(accounts)))
				})
			})
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Query Google Analytics instead of the backend cache")
	return cmd
}

// renderAccountsTree renders account > property > view with ids muted.
func renderAccountsTree(items []models.TreeViewItem) string {
	t := theme.DefaultTheme
	var b strings.Builder

	var walk func(items []models.TreeViewItem, depth int)
	walk = func(items []models.TreeViewItem, depth int) {
		for _, item := range items {
			name := item.Name
			if depth == 0 {
				name = t.Bold.Render(name)
			}
			fmt.Fprintf(&b, "%s%s %s %s\n",
				strings.Repeat("  ", depth),
				t.Muted.Render(theme.IconBullet),
				name,
				t.Muted.Render("("+item.ID+")"))
			walk(item.Children, depth+1)
		}
	}
	walk(items, 0)

	return strings.TrimRight(b.String(), "\n")
}

// NewSettingsCmd creates the settings command.
func NewSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the backend application settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.FetchAppSettings(ctx); err != nil {
					return err
				}
				settings := s.store.AppSettings()
				return s.emit(settings, func() {
					s.pretty.Line(table.StatusTable([][]string{
						{"Authorized emails", settings.AuthorizedEmails},
						{"GA service account", settings.GaServiceAccount},
						{"Feedback form", s.store.FeedbackFormURL()},
					}))
				})
			})
		},
	}
}
