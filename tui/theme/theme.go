package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/dqm/config"
)

const defaultThemeName = "kanagawa"

// --- Kanagawa Dragon (dark) palette ---
const (
	kanagawaDarkGreen     = "#98BB6C"
	kanagawaDarkYellow    = "#FF9E3B"
	kanagawaDarkRed       = "#FF5D62"
	kanagawaDarkOrange    = "#FFA066"
	kanagawaDarkCyan      = "#7E9CD8"
	kanagawaDarkBlue      = "#7FB4CA"
	kanagawaDarkViolet    = "#957FB8"
	kanagawaDarkPink      = "#D27E99"
	kanagawaDarkTeal      = "#6A9589"
	kanagawaDarkLightText = "#DCD7BA"
	kanagawaDarkMutedText = "#727169"
	kanagawaDarkBorder    = "#363646"
)

// --- Kanagawa Wave (light-inspired) palette ---
const (
	kanagawaLightGreen     = "#4E7C5A"
	kanagawaLightYellow    = "#A68A64"
	kanagawaLightRed       = "#C34043"
	kanagawaLightOrange    = "#CC6B4E"
	kanagawaLightCyan      = "#5B8BBE"
	kanagawaLightBlue      = "#4F7CAC"
	kanagawaLightViolet    = "#674D7A"
	kanagawaLightPink      = "#B35C74"
	kanagawaLightTeal      = "#597B75"
	kanagawaLightLightText = "#2B2F42"
	kanagawaLightMutedText = "#6C7086"
	kanagawaLightBorder    = "#B5BDC5"
)

// --- Terminal (ANSI-friendly) palette ---
const (
	terminalGreen     = "2"
	terminalYellow    = "3"
	terminalRed       = "1"
	terminalOrange    = "208"
	terminalCyan      = "6"
	terminalBlue      = "4"
	terminalViolet    = "5"
	terminalPink      = "13"
	terminalTeal      = "30"
	terminalLightText = "7"
	terminalMutedText = "8"
	terminalBorder    = "8"
)

// Colors encapsulates the palette used by a theme. lipgloss.TerminalColor
// allows a mix of adaptive and static colors.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Orange    lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Blue      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	Pink      lipgloss.TerminalColor
	Teal      lipgloss.TerminalColor
	LightText lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
}

// Theme holds the pre-configured styles used by the dqm CLI.
type Theme struct {
	Name   string
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Text styles - visual hierarchy
	Bold   lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style

	TableHeader lipgloss.Style
	TableBorder lipgloss.Style

	Box       lipgloss.Style
	Highlight lipgloss.Style
	Accent    lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

var themeAliases = map[string]string{
	"kanagawa-dark":   "kanagawa",
	"kanagawa-dragon": "kanagawa",
	"kanagawa-wave":   "kanagawa",
	"ansi":            "terminal",
}

// DefaultTheme is the theme selected by DQM_THEME or the tui.theme setting.
var DefaultTheme = NewTheme()

// NewTheme creates a theme based on the configured theme selection.
func NewTheme() *Theme {
	return NewThemeWithName(getThemeName())
}

// NewThemeWithName constructs a theme from a specific palette name. Unknown
// names fall back to the default palette.
func NewThemeWithName(name string) *Theme {
	key := resolveThemeName(name)
	return newThemeFromColors(key, themeRegistry[key]())
}

// NamedColor maps a catalog color such as "pink lighten-3" or a hex value
// such as "#34A853" to a terminal color. The lighten and darken modifiers
// are dropped; terminals only get the base hue. ok is false for names
// outside the palette.
func (t *Theme) NamedColor(name string) (lipgloss.TerminalColor, bool) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "#") {
		return lipgloss.Color(name), true
	}

	base := strings.ToLower(name)
	if i := strings.IndexByte(base, ' '); i >= 0 {
		base = base[:i]
	}

	switch base {
	case "green", "light-green", "lime":
		return t.Colors.Green, true
	case "yellow", "amber":
		return t.Colors.Yellow, true
	case "red":
		return t.Colors.Red, true
	case "orange", "deep-orange":
		return t.Colors.Orange, true
	case "cyan", "light-blue":
		return t.Colors.Cyan, true
	case "blue", "indigo":
		return t.Colors.Blue, true
	case "purple", "deep-purple":
		return t.Colors.Violet, true
	case "pink":
		return t.Colors.Pink, true
	case "teal":
		return t.Colors.Teal, true
	case "grey", "gray", "blue-grey", "brown":
		return t.Colors.MutedText, true
	}
	return nil, false
}

// Badge renders text in the foreground named by a catalog color. Unknown
// colors render plain.
func (t *Theme) Badge(color, text string) string {
	c, ok := t.NamedColor(color)
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(text)
}

func newThemeFromColors(name string, colors Colors) *Theme {
	return &Theme{
		Name:   name,
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			MarginBottom(1),

		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colors.Cyan).
			Bold(true),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Normal: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Faint(true),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.LightText),

		TableBorder: lipgloss.NewStyle().
			Foreground(colors.Border),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),

		Highlight: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Accent: lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true),
	}
}

func resolveThemeName(name string) string {
	key := normalizeThemeName(name)
	if alias, ok := themeAliases[key]; ok {
		key = alias
	}
	if _, ok := themeRegistry[key]; ok {
		return key
	}
	return defaultThemeName
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	return normalized
}

// tuiConfig is the "tui" extension of dqm.yml.
type tuiConfig struct {
	Theme string `yaml:"theme"`
	Icons string `yaml:"icons"`
}

func loadTUIConfig() tuiConfig {
	var tuiCfg tuiConfig
	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil {
		return tuiCfg
	}
	_ = cfg.UnmarshalExtension("tui", &tuiCfg)
	return tuiCfg
}

func getThemeName() string {
	if theme := normalizeThemeName(os.Getenv("DQM_THEME")); theme != "" {
		return theme
	}
	if theme := normalizeThemeName(loadTUIConfig().Theme); theme != "" {
		return theme
	}
	return defaultThemeName
}

func newKanagawaColors() Colors {
	return Colors{
		Green:     lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
		Yellow:    lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
		Red:       lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
		Orange:    lipgloss.AdaptiveColor{Light: kanagawaLightOrange, Dark: kanagawaDarkOrange},
		Cyan:      lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
		Blue:      lipgloss.AdaptiveColor{Light: kanagawaLightBlue, Dark: kanagawaDarkBlue},
		Violet:    lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
		Pink:      lipgloss.AdaptiveColor{Light: kanagawaLightPink, Dark: kanagawaDarkPink},
		Teal:      lipgloss.AdaptiveColor{Light: kanagawaLightTeal, Dark: kanagawaDarkTeal},
		LightText: lipgloss.AdaptiveColor{Light: kanagawaLightLightText, Dark: kanagawaDarkLightText},
		MutedText: lipgloss.AdaptiveColor{Light: kanagawaLightMutedText, Dark: kanagawaDarkMutedText},
		Border:    lipgloss.AdaptiveColor{Light: kanagawaLightBorder, Dark: kanagawaDarkBorder},
	}
}

func newTerminalColors() Colors {
	return Colors{
		Green:     lipgloss.Color(terminalGreen),
		Yellow:    lipgloss.Color(terminalYellow),
		Red:       lipgloss.Color(terminalRed),
		Orange:    lipgloss.Color(terminalOrange),
		Cyan:      lipgloss.Color(terminalCyan),
		Blue:      lipgloss.Color(terminalBlue),
		Violet:    lipgloss.Color(terminalViolet),
		Pink:      lipgloss.Color(terminalPink),
		Teal:      lipgloss.Color(terminalTeal),
		LightText: lipgloss.Color(terminalLightText),
		MutedText: lipgloss.Color(terminalMutedText),
		Border:    lipgloss.Color(terminalBorder),
	}
}
