package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/dqm/config"
	"github.com/grovetools/dqm/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	cfg, err := config.LoadDefault()
	if err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLoggerWithConfig(component, logCfg)
	loggers[component] = entry
	return entry
}

func newLoggerWithConfig(component string, logCfg Config) *logrus.Entry {
	logger := logrus.New()

	levelStr := "info"
	if os.Getenv("DQM_LOG_LEVEL") != "" {
		levelStr = os.Getenv("DQM_LOG_LEVEL")
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("DQM_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	logger.SetFormatter(formatterFor(logCfg.Format.Preset, logCfg.Format))

	// The file sink is opt-in and gets its own formatter through a hook.
	if logCfg.File.Enabled {
		path := logCfg.File.Path
		if path == "" {
			path = defaultLogFilePath(component)
		} else {
			path = ExpandPath(path)
		}
		if file, err := openLogFile(path); err != nil {
			logger.Warnf("Failed to open log file %s: %v", path, err)
		} else {
			fileFormat := logCfg.File.Format
			if fileFormat == "" {
				fileFormat = "text"
			}
			logger.AddHook(&fileHook{
				writer:    file,
				formatter: formatterFor(fileFormat, FormatConfig{}),
				levels:    logrus.AllLevels[:level+1],
			})
		}
	}

	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel()) {
		logger.SetOutput(GetGlobalOutput())
	} else {
		logger.SetOutput(io.Discard)
	}

	return logger.WithField("component", component)
}

func formatterFor(preset string, format FormatConfig) logrus.Formatter {
	switch preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}}
	default:
		return &TextFormatter{Config: format}
	}
}

// shouldLogToStderr decides whether structured logs reach stderr. In "auto"
// mode they are hidden from interactive terminals unless debugging.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("DQM_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// DefaultLogsDir is the directory the file sink writes to when no path is
// configured: .dqm/logs under the working directory, or the per-user logs
// directory.
func DefaultLogsDir() string {
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, ".dqm", "logs")
	}
	if dir := paths.LogsDir(); dir != "" {
		return dir
	}
	return filepath.Join(".dqm", "logs")
}

func defaultLogFilePath(component string) string {
	dateStr := time.Now().Format("2006-01-02")
	return filepath.Join(DefaultLogsDir(), fmt.Sprintf("%s-%s.log", component, dateStr))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// fileHook writes every entry at or above the logger level to a file.
type fileHook struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
}

func (h *fileHook) Levels() []logrus.Level {
	return h.levels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(line)
	return err
}

// ExpandPath expands a leading tilde to the home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
