package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/dqm/cli"
	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	var (
		component string
		follow    bool
		tailLines int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log file written by the file sink",
		Long: `Show the log file written when logging.file.enabled is set.

Without logging.file.path the most recent file under .dqm/logs is shown.

Examples:
  # follow the store log
  dqm logs -f --component dqm-store

  # the last 50 lines as JSON Lines
  dqm logs --tail 50 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			var logCfg logging.Config
			if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid logging section")
			}

			path, err := findLogFile(logCfg, component)
			if err != nil {
				return err
			}
			cli.GetLogger(cmd).WithField("log_file", path).Debug("Reading log file")

			jsonOutput := cli.GetOptions(cmd).JSONOutput
			emitLine := func(line string) {
				if jsonOutput {
					printLogJSON(cmd.OutOrStdout(), line)
				} else {
					printLogText(cmd.OutOrStdout(), line)
				}
			}

			offset, err := readLastLines(path, tailLines, emitLine)
			if err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return followLogFile(cmd.Context(), path, offset, emitLine)
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Only read logs of this component (e.g. dqm-store)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVar(&tailLines, "tail", -1, "Number of lines to show from the end of the log (default: all)")
	return cmd
}

// findLogFile returns the configured log file, or the latest non-empty file
// under the default logs directory.
func findLogFile(logCfg logging.Config, component string) (string, error) {
	if logCfg.File.Path != "" {
		return logging.ExpandPath(logCfg.File.Path), nil
	}
	return findLatestLogFile(logging.DefaultLogsDir(), component)
}

// findLatestLogFile finds the most recently modified file in dir whose name
// starts with prefix. Files with content are preferred over empty ones.
func findLatestLogFile(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNotFound, fmt.Sprintf("could not read log directory %s", dir))
	}

	type candidate struct {
		path    string
		modTime time.Time
		size    int64
	}
	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{filepath.Join(dir, entry.Name()), info.ModTime(), info.Size()})
	}
	if len(files) == 0 {
		return "", errors.New(errors.ErrCodeNotFound, fmt.Sprintf("no log files found in %s", dir)).
			WithDetail("dir", dir)
	}

	sort.Slice(files, func(i, j int) bool {
		if (files[i].size > 0) != (files[j].size > 0) {
			return files[i].size > 0
		}
		return files[i].modTime.After(files[j].modTime)
	})
	return files[0].path, nil
}

// readLastLines prints the last n lines of path, or all of them when n is
// negative, and returns the offset reading stopped at.
func readLastLines(path string, n int, emit func(string)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeNotFound, "failed to open log file").WithDetail("path", path)
	}
	defer f.Close()

	var (
		lines  []string
		offset int64
	)
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		offset += int64(len(line))
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			lines = append(lines, line)
			if n >= 0 && len(lines) > n {
				lines = lines[1:]
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return offset, err
		}
	}

	for _, line := range lines {
		emit(line)
	}
	return offset, nil
}

// followLogFile prints lines appended to path after offset until ctx is done.
func followLogFile(ctx context.Context, path string, offset int64, emit func(string)) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to follow log file").WithDetail("path", path)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			if text := strings.TrimRight(line.Text, "\r"); text != "" {
				emit(text)
			}
		}
	}
}

// printLogJSON prints a log line as a JSON object. Text lines are wrapped.
func printLogJSON(w io.Writer, line string) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(line), &logMap); err != nil {
		logMap = map[string]interface{}{"raw_line": line}
	}
	data, _ := json.Marshal(logMap)
	fmt.Fprintln(w, string(data))
}

// printLogText pretty-prints JSON log lines; text lines are printed as is.
func printLogText(w io.Writer, line string) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(line), &logMap); err != nil {
		fmt.Fprintln(w, line)
		return
	}

	t := theme.DefaultTheme
	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)
	component, _ := logMap["component"].(string)

	timeStr := ts
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		timeStr = parsed.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	keys := make([]string, 0, len(logMap))
	for k := range logMap {
		if k != "time" && k != "level" && k != "msg" && k != "component" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), logMap[k]))
	}

	fmt.Fprintf(w, "%s %s [%s] %s %s\n",
		timeStr,
		levelStyle.Render(strings.ToUpper(level)),
		t.Accent.Render(component),
		msg,
		strings.Join(fields, " "),
	)
}
