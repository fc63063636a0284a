// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package logger provides the shared logger used by all of the tool's packages.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance.
var Log = logrus.New()

const (
	LevelsFlag         = "log-level"
	LevelsHelp         = "Minimum log level shown on the console."
	LevelsPlaceholder  = "(error|warning|info|debug|trace)"
	FileFlag           = "log-file"
	FileFlagHelp       = "Also write the full log to a file."
	ColorFlag          = "log-color"
	ColorFlagHelp      = "Whether to colorize the console log."
	ColorsPlaceholder  = "(always|auto|never)"
	ColorAlways        = "always"
	ColorAuto          = "auto"
	ColorNever         = "never"
	defaultLogLevel    = logrus.InfoLevel
	defaultLogColor    = ColorAuto
	fileLogPermissions = 0o644
)

// LogFlags holds the CLI flag values controlling the logger.
type LogFlags struct {
	LogColor *string
	LogFile  *string
	LogLevel *string
}

// Levels returns the accepted values for the log level flag.
func Levels() []string {
	levels := []string{}
	for _, level := range logrus.AllLevels {
		if level == logrus.FatalLevel || level == logrus.PanicLevel {
			continue
		}
		levels = append(levels, level.String())
	}
	sort.Strings(levels)
	return levels
}

// Colors returns the accepted values for the color flag.
func Colors() []string {
	return []string{ColorAlways, ColorAuto, ColorNever}
}

// consoleFormatter writes "<level>: <message>" lines, matching the
// diagnostics format consumed by scripts wrapping this tool.
type consoleFormatter struct {
	useColor bool
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.DebugLevel: color.New(color.FgCyan),
	logrus.TraceLevel: color.New(color.FgBlue),
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	prefix := fmt.Sprintf("%s:", entry.Level.String())
	if f.useColor {
		if levelColor, ok := levelColors[entry.Level]; ok {
			prefix = levelColor.Sprint(prefix)
		}
	}

	line := fmt.Sprintf("%s %s\n", prefix, entry.Message)
	return []byte(line), nil
}

// Init configures the shared logger from the given flag values.
func Init(flags *LogFlags) error {
	level := defaultLogLevel
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		parsedLevel, err := logrus.ParseLevel(*flags.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level (%s):\n%w", *flags.LogLevel, err)
		}
		level = parsedLevel
	}

	logColor := defaultLogColor
	if flags.LogColor != nil && *flags.LogColor != "" {
		logColor = strings.ToLower(*flags.LogColor)
	}

	useColor := false
	switch logColor {
	case ColorAlways:
		useColor = true
	case ColorNever:
		useColor = false
	case ColorAuto:
		useColor = isatty.IsTerminal(os.Stderr.Fd())
	default:
		return fmt.Errorf("unknown log color value (%s)", logColor)
	}

	Log.SetOutput(os.Stderr)
	Log.SetLevel(level)
	Log.SetFormatter(&consoleFormatter{useColor: useColor})

	if flags.LogFile != nil && *flags.LogFile != "" {
		hook, err := newFileLogHook(*flags.LogFile)
		if err != nil {
			return err
		}
		Log.AddHook(hook)
	}

	return nil
}

// InitBestEffort configures the logger, falling back to defaults on error.
func InitBestEffort(flags *LogFlags) {
	err := Init(flags)
	if err != nil {
		InitStderr()
		Log.Warnf("Failed to configure logger: %v", err)
	}
}

// InitStderr configures the logger with defaults only.
func InitStderr() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(defaultLogLevel)
	Log.SetFormatter(&consoleFormatter{useColor: false})
}

// fileLogHook duplicates every log entry into a file, regardless of the
// console log level.
type fileLogHook struct {
	file      *os.File
	formatter logrus.Formatter
}

func newFileLogHook(path string) (*fileLogHook, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileLogPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file (%s):\n%w", path, err)
	}

	hook := &fileLogHook{
		file:      file,
		formatter: &logrus.TextFormatter{FullTimestamp: true, DisableColors: true},
	}
	return hook, nil
}

func (h *fileLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileLogHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.file.Write(line)
	return err
}
