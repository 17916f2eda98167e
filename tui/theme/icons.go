package theme

import (
	"os"
	"strings"
)

// Nerd Font glyphs for the Material Design icons named by the catalogs.
var nerdIcons = map[string]string{
	"mdi-console-line":           "\U000F07B7", // md-console_line
	"mdi-security":               "\U000F0483", // md-security
	"mdi-database-search":        "\U000F0865", // md-database_search
	"mdi-chart-timeline-variant": "\U000F0E96", // md-chart_timeline_variant
	"mdi-google":                 "\U000F02AD", // md-google
	"mdi-google-analytics":       "\U000F07CC", // md-google_analytics
	"mdi-google-ads":             "\U000F0C87", // md-google_ads
}

// ASCII fallbacks, used with DQM_ICONS=ascii or tui.icons: ascii.
var asciiIcons = map[string]string{
	"mdi-console-line":           ">_",
	"mdi-security":               "[S]",
	"mdi-database-search":        "[?]",
	"mdi-chart-timeline-variant": "[~]",
	"mdi-google":                 "[G]",
	"mdi-google-analytics":       "[GA]",
	"mdi-google-ads":             "[AD]",
}

// Status icons
var (
	IconSuccess string
	IconError   string
	IconWarning string
	IconInfo    string
	IconPending string
	IconArrow   string
	IconBullet  string
)

var useASCII bool

func init() {
	useASCII = os.Getenv("DQM_ICONS") == "ascii"
	if !useASCII && os.Getenv("DQM_ICONS") == "" {
		useASCII = strings.EqualFold(loadTUIConfig().Icons, "ascii")
	}
	setStatusIcons(useASCII)
}

func setStatusIcons(ascii bool) {
	if ascii {
		IconSuccess = "[ok]"
		IconError = "[x]"
		IconWarning = "[!]"
		IconInfo = "[i]"
		IconPending = "[..]"
		IconArrow = "->"
		IconBullet = "*"
		return
	}
	IconSuccess = "\U000F012C" // md-check
	IconError = "\uEA87"     // cod-error
	IconWarning = "\uF071"   // fa-warning
	IconInfo = "\U000F02FC"    // md-information
	IconPending = "\U000F0996" // md-progress_clock
	IconArrow = "\U000F0054"   // md-arrow_right
	IconBullet = "\uF444"    // oct-dot_fill
}

// Icon returns the glyph for a catalog icon name such as "mdi-security".
// Unknown names yield the bullet icon.
func Icon(name string) string {
	table := nerdIcons
	if useASCII {
		table = asciiIcons
	}
	if glyph, ok := table[name]; ok {
		return glyph
	}
	return IconBullet
}
