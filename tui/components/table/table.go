package table

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/dqm/tui/theme"
)

// Options configures a styled table.
type Options struct {
	Bordered    bool
	HeaderStyle lipgloss.Style
	RowStyle    lipgloss.Style
	Theme       *theme.Theme
}

// DefaultOptions returns a bordered table in the default theme.
func DefaultOptions() Options {
	return Options{
		Bordered:    true,
		HeaderStyle: theme.DefaultTheme.TableHeader.Padding(0, 1),
		RowStyle:    theme.DefaultTheme.Normal.Padding(0, 1),
		Theme:       theme.DefaultTheme,
	}
}

// NewStyledTableWithOptions creates a table with custom options
func NewStyledTableWithOptions(opts Options) *ltable.Table {
	if opts.Theme == nil {
		opts.Theme = theme.DefaultTheme
	}

	table := ltable.New()
	if opts.Bordered {
		table = table.
			Border(lipgloss.RoundedBorder()).
			BorderStyle(opts.Theme.TableBorder)
	} else {
		table = table.
			Border(lipgloss.HiddenBorder()).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderRight(false).
			BorderHeader(false).
			BorderColumn(false)
	}

	return table.StyleFunc(func(row, col int) lipgloss.Style {
		if row == ltable.HeaderRow {
			return opts.HeaderStyle
		}
		return opts.RowStyle
	})
}

// Builder provides a fluent interface for creating styled tables
type Builder struct {
	headers []string
	rows    [][]string
	options Options
}

// NewBuilder creates a new table builder
func NewBuilder() *Builder {
	return &Builder{options: DefaultOptions()}
}

// WithTheme sets the theme
func (b *Builder) WithTheme(t *theme.Theme) *Builder {
	b.options.Theme = t
	b.options.HeaderStyle = t.TableHeader.Padding(0, 1)
	b.options.RowStyle = t.Normal.Padding(0, 1)
	return b
}

// WithBorder enables or disables the border
func (b *Builder) WithBorder(bordered bool) *Builder {
	b.options.Bordered = bordered
	return b
}

// WithHeaders sets the table headers
func (b *Builder) WithHeaders(headers ...string) *Builder {
	b.headers = headers
	return b
}

// WithRows appends rows
func (b *Builder) WithRows(rows ...[]string) *Builder {
	b.rows = append(b.rows, rows...)
	return b
}

// Build creates the styled table
func (b *Builder) Build() *ltable.Table {
	table := NewStyledTableWithOptions(b.options)
	if len(b.headers) > 0 {
		table = table.Headers(b.headers...)
	}
	for _, row := range b.rows {
		table = table.Row(row...)
	}
	return table
}

// SimpleTable renders a bordered table with headers and rows.
func SimpleTable(headers []string, rows [][]string) string {
	return NewBuilder().
		WithHeaders(headers...).
		WithRows(rows...).
		Build().
		String()
}

// StatusTable renders label/value pairs without borders, labels muted.
func StatusTable(items [][]string) string {
	b := NewBuilder().WithBorder(false)
	for _, item := range items {
		if len(item) >= 2 {
			label := theme.DefaultTheme.Muted.Render(item[0] + ":")
			b.WithRows([]string{label, item[1]})
		}
	}
	return b.Build().String()
}
