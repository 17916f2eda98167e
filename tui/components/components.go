package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/dqm/tui/theme"
)

// RenderHeader renders a section title with an optional muted subtitle.
func RenderHeader(title string, subtitle ...string) string {
	t := theme.DefaultTheme

	header := t.Title.Render(title)

	if len(subtitle) > 0 && subtitle[0] != "" {
		sub := t.Muted.Render(subtitle[0])
		return lipgloss.JoinVertical(lipgloss.Left, header, sub)
	}

	return header
}

// RenderBreadcrumb joins items with arrows, highlighting the last one.
func RenderBreadcrumb(items ...string) string {
	t := theme.DefaultTheme

	if len(items) == 0 {
		return ""
	}

	parts := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i == len(items)-1 {
			parts = append(parts, t.Highlight.Render(item))
		} else {
			parts = append(parts, t.Muted.Render(item))
			parts = append(parts, t.Muted.Render(theme.IconArrow))
		}
	}

	return strings.Join(parts, " ")
}

// RenderBox renders content in a rounded box. A non-empty title is placed on
// the first line inside the box.
func RenderBox(title, content string, style lipgloss.Style) string {
	if title != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, title, content)
	}
	return style.Render(content)
}

// RenderErrorBox renders the error banner: a red box holding a bold title
// and the message.
func RenderErrorBox(title, message string) string {
	t := theme.DefaultTheme
	style := t.Box.BorderForeground(t.Colors.Red)
	return RenderBox(t.Error.Render(title), message, style)
}

// RenderList renders items as a bulleted or numbered list.
func RenderList(items []string, ordered bool) string {
	t := theme.DefaultTheme

	if len(items) == 0 {
		return ""
	}

	var lines []string
	for i, item := range items {
		var prefix string
		if ordered {
			prefix = t.Highlight.Render(fmt.Sprintf("%2d.", i+1))
		} else {
			prefix = t.Highlight.Render(theme.IconBullet)
		}
		lines = append(lines, fmt.Sprintf("%s %s", prefix, item))
	}

	return strings.Join(lines, "\n")
}

// RenderProgress renders current/total as a bar followed by a percentage.
func RenderProgress(current, total int, width int) string {
	t := theme.DefaultTheme

	if total <= 0 {
		return ""
	}

	percentage := float64(current) / float64(total)
	if percentage > 1.0 {
		percentage = 1.0
	}

	// Leave space for the percentage text
	barWidth := width - 5
	if barWidth < 1 {
		barWidth = 1
	}
	filledWidth := int(percentage * float64(barWidth))

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", barWidth-filledWidth)
	bar := t.Success.Render(filled) + t.Muted.Render(empty)

	percentText := fmt.Sprintf(" %3d%%", int(percentage*100))
	return bar + t.Muted.Render(percentText)
}

// RenderKeyValue renders a muted key followed by its value.
func RenderKeyValue(key, value string) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s %s", t.Muted.Render(key+":"), value)
}
