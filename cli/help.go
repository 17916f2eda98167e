package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/dqm/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// HelpExtrasFunc renders additional help sections after EXAMPLES.
type HelpExtrasFunc func(w io.Writer, t *theme.Theme)

var (
	helpExtras   = make(map[*cobra.Command]HelpExtrasFunc)
	helpExtrasMu sync.RWMutex
)

const (
	helpMaxWidth = 72
	helpMinWidth = 40
)

// helpWidth is the wrapping width of help text: the terminal width, clamped.
func helpWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < helpMinWidth || width > helpMaxWidth {
		return helpMaxWidth
	}
	return width
}

// wrapText wraps each paragraph of text at width. Existing line breaks are
// kept.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpMaxWidth
	}

	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}
		var b strings.Builder
		for _, word := range strings.Fields(paragraph) {
			switch {
			case b.Len() == 0:
			case b.Len()+1+len(word) <= width:
				b.WriteByte(' ')
			default:
				out = append(out, b.String())
				b.Reset()
			}
			b.WriteString(word)
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return strings.Join(out, "\n")
}

// SetStyledHelp renders the help of cmd with the dqm theme.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
}

// ApplyStyledHelpRecursive styles the help of cmd and every subcommand and
// silences cobra's usage dump. Call it once the tree is complete.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
	cmd.SetUsageFunc(silentUsage)
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// silentUsage suppresses the usage dump on errors; ErrorHandler reports
// them instead.
func silentUsage(cmd *cobra.Command) error {
	return nil
}

// SetStyledHelpWithExtras styles the help of cmd and appends the sections
// rendered by extras.
func SetStyledHelpWithExtras(cmd *cobra.Command, extras HelpExtrasFunc) {
	helpExtrasMu.Lock()
	helpExtras[cmd] = extras
	helpExtrasMu.Unlock()
	cmd.SetHelpFunc(renderHelp)
}

// helpPage writes one help screen.
type helpPage struct {
	w       io.Writer
	t       *theme.Theme
	width   int
	heading lipgloss.Style
	command lipgloss.Style
	flag    lipgloss.Style
}

func newHelpPage(w io.Writer) *helpPage {
	t := theme.DefaultTheme
	return &helpPage{
		w:       w,
		t:       t,
		width:   helpWidth() - 2,
		heading: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		command: lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
	}
}

func (p *helpPage) section(name string) {
	fmt.Fprintln(p.w, "\n "+p.heading.Render(name))
}

func (p *helpPage) text(text string, style *lipgloss.Style) {
	for _, line := range strings.Split(wrapText(text, p.width), "\n") {
		if style != nil {
			line = style.Render(line)
		}
		fmt.Fprintln(p.w, " "+line)
	}
}

func renderHelp(cmd *cobra.Command, args []string) {
	p := newHelpPage(cmd.OutOrStdout())
	title := lipgloss.NewStyle().Bold(true).Foreground(p.t.Colors.Orange)
	fmt.Fprintln(p.w, " "+title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := splitExamples(cmd.Long)
	if cmd.Short != "" {
		italic := lipgloss.NewStyle().Italic(true)
		p.text(cmd.Short, &italic)
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(p.w)
		p.text(description, nil)
	}

	p.usage(cmd)
	p.commands(cmd)
	p.flags(cmd)
	p.globalFlags(cmd)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		p.section("EXAMPLES")
		p.examples(examples, cmd.Root().Name())
	}

	helpExtrasMu.RLock()
	extras := helpExtras[cmd]
	helpExtrasMu.RUnlock()
	if extras != nil {
		extras(p.w, p.t)
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(p.w, "\n "+p.t.Muted.Render(fmt.Sprintf("Run '%s <command> --help' for details.", cmd.CommandPath())))
	}
}

// splitExamples separates the "Examples:" block of a long description.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if before, after, ok := strings.Cut(long, marker); ok {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(long), ""
}

func (p *helpPage) usage(cmd *cobra.Command) {
	if !cmd.Runnable() && !cmd.HasSubCommands() {
		return
	}
	p.section("USAGE")
	if cmd.Runnable() {
		fmt.Fprintln(p.w, " "+cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(p.w, " "+cmd.CommandPath()+" <command>")
	}
	if len(cmd.ValidArgs) > 0 {
		fmt.Fprintln(p.w, " "+p.t.Muted.Render("one of: "+strings.Join(cmd.ValidArgs, " | ")))
	}
}

func (p *helpPage) commands(cmd *cobra.Command) {
	var subs []*cobra.Command
	width := 0
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		subs = append(subs, sub)
		width = max(width, len(sub.Name()))
	}
	if len(subs) == 0 {
		return
	}

	p.section("COMMANDS")
	for _, sub := range subs {
		short := sub.Short
		if len(sub.Aliases) > 0 {
			short += p.t.Muted.Render(" (" + strings.Join(sub.Aliases, ", ") + ")")
		}
		fmt.Fprintf(p.w, " %s  %s\n", p.command.Render(fmt.Sprintf("%-*s", width, sub.Name())), short)
	}
}

// flags lists the command's own flags: one per line with choices for leaf
// commands, a compact line for command groups.
func (p *helpPage) flags(cmd *cobra.Command) {
	flags := visibleFlags(cmd.LocalNonPersistentFlags())
	if cmd.HasParent() {
		flags = append(flags, visibleFlags(cmd.PersistentFlags())...)
	}
	if len(flags) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, 0, len(flags))
		for _, f := range flags {
			names = append(names, strings.TrimSpace(flagName(f)))
		}
		fmt.Fprintln(p.w, "\n "+p.t.Muted.Render("Flags: "+strings.Join(names, ", ")))
		return
	}

	p.section("FLAGS")
	width := 0
	for _, f := range flags {
		width = max(width, len(flagName(f)))
	}
	for _, f := range flags {
		usage, choices := parseChoices(f.Usage)
		if showDefault(f) {
			usage += p.t.Muted.Render(" (default: " + f.DefValue + ")")
		}
		fmt.Fprintf(p.w, " %s  %s\n", p.flag.Render(fmt.Sprintf("%-*s", width, flagName(f))), usage)
		for _, choice := range choices {
			fmt.Fprintf(p.w, " %s  %s\n", strings.Repeat(" ", width), p.t.Muted.Render("• "+choice))
		}
	}
}

// globalFlags lists the root flags a subcommand inherits on one line.
func (p *helpPage) globalFlags(cmd *cobra.Command) {
	if !cmd.HasParent() {
		return
	}
	inherited := visibleFlags(cmd.InheritedFlags())
	if len(inherited) == 0 {
		return
	}
	names := make([]string, 0, len(inherited))
	for _, f := range inherited {
		names = append(names, "--"+f.Name)
	}
	fmt.Fprintln(p.w, "\n "+p.t.Muted.Render("Global flags: "+strings.Join(names, ", ")))
}

// examples renders example lines: comments muted, the program name, the
// subcommand and flags each in their own color.
func (p *helpPage) examples(examples, program string) {
	sub := lipgloss.NewStyle().Foreground(p.t.Colors.Cyan)
	for _, line := range strings.Split(examples, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			fmt.Fprintln(p.w)
		case strings.HasPrefix(line, "#"):
			fmt.Fprintln(p.w, " "+p.t.Muted.Render(line))
		default:
			words := strings.Fields(line)
			for i, word := range words {
				switch {
				case i == 0 && word == program:
					words[i] = p.command.Render(word)
				case strings.HasPrefix(word, "-"):
					words[i] = p.flag.Render(word)
				case i > 0 && i < 3:
					words[i] = sub.Render(word)
				}
			}
			fmt.Fprintln(p.w, "   "+strings.Join(words, " "))
		}
	}
}

func visibleFlags(set *pflag.FlagSet) []*pflag.Flag {
	var flags []*pflag.Flag
	set.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden && f.Name != "help" {
			flags = append(flags, f)
		}
	})
	return flags
}

// flagName formats a flag as "-f, --follow" or "    --tail".
func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return "-" + f.Shorthand + ", --" + f.Name
	}
	return "    --" + f.Name
}

func showDefault(f *pflag.Flag) bool {
	switch f.DefValue {
	case "", "false", "[]", "0", "-1":
		return false
	}
	return true
}

// parseChoices splits an inline choice list such as
// "Output format: table, json, or yaml" into the description and the
// choices. Lists of fewer than three items are left in the description.
func parseChoices(usage string) (description string, choices []string) {
	head, list, ok := strings.Cut(usage, ": ")
	if !ok {
		return usage, nil
	}
	list, suffix, hasSuffix := strings.Cut(list, " (")

	items := strings.Split(list, ", ")
	if len(items) < 3 {
		return usage, nil
	}
	for i, item := range items {
		items[i] = strings.TrimSpace(strings.TrimPrefix(item, "or "))
	}

	description = head + ":"
	if hasSuffix {
		description += " (" + suffix
	}
	return description, items
}
