package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// errorPrefix marks the log file of a failed run.
const errorPrefix = "ERROR_"

// runLog is the per-invocation log file.
type runLog struct {
	path   string
	file   *os.File
	Logger *slog.Logger
}

// logDir returns the configured directory or <cwd>/log/<logDate>.
func logDir(dir, logDate string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, "log", logDate), nil
}

// logFileName builds <YYYYmmddHHMMSS>_<logDate>_<tail>.log.
func logFileName(now time.Time, logDate, tail string) string {
	tail = strings.NewReplacer("/", "_", `\`, "_", " ", "_").Replace(tail)
	return fmt.Sprintf("%s_%s_%s.log", now.Format("20060102150405"), logDate, tail)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// openRunLog creates the log directory and file and a slog logger writing to it
// (and to stdout when cfg.Stdout is set).
func openRunLog(cfg LogConfig, logDate, tail string, now time.Time, stdout io.Writer) (*runLog, error) {
	dir, err := logDir(cfg.Dir, logDate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(dir, logFileName(now, logDate, tail))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = file
	if cfg.Stdout && stdout != nil {
		w = io.MultiWriter(file, stdout)
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		file.Close()
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &runLog{path: path, file: file, Logger: slog.New(handler)}, nil
}

// Path returns the current log file path.
func (l *runLog) Path() string {
	return l.path
}

// Close closes the file and, for a failed run, renames it to ERROR_<name>.
func (l *runLog) Close(failed bool) error {
	if err := l.file.Close(); err != nil {
		return err
	}
	if !failed {
		return nil
	}
	renamed := filepath.Join(filepath.Dir(l.path), errorPrefix+filepath.Base(l.path))
	if err := os.Rename(l.path, renamed); err != nil {
		return fmt.Errorf("failed to mark log as failed: %w", err)
	}
	l.path = renamed
	return nil
}
