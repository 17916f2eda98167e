package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/grovetools/dqm/tui/theme"
	"github.com/sirupsen/logrus"
)

// leadingFields are printed first, in this order, so backend request lines
// read "method=GET url=/api/suites/ status=200 duration=12ms".
var leadingFields = []string{"method", "url", "status", "duration", "suite", "check"}

// TextFormatter renders entries as
// "2006-01-02 15:04:05 [LEVEL] [component] message key=value ...".
type TextFormatter struct {
	Config FormatConfig
}

// Format renders a single log entry.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if !f.Config.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}

	level := strings.ToUpper(entry.Level.String())
	if entry.Level == logrus.WarnLevel {
		level = "WARN"
	}
	fmt.Fprintf(&b, "[%s]", level)

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		fmt.Fprintf(&b, " [%s]", theme.DefaultTheme.Accent.Render(fmt.Sprint(component)))
	}

	if entry.HasCaller() {
		fmt.Fprintf(&b, " [%s:%d %s]",
			filepath.Base(entry.Caller.File), entry.Caller.Line, filepath.Base(entry.Caller.Function))
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	for _, key := range fieldOrder(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// fieldOrder returns the keys of data without the component: the leading
// fields first, then the rest sorted.
func fieldOrder(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for _, key := range leadingFields {
		if _, ok := data[key]; ok {
			keys = append(keys, key)
		}
	}
	rest := make([]string, 0, len(data))
	for key := range data {
		if key != "component" && !slices.Contains(leadingFields, key) {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
