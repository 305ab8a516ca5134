package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"reqls/internal/config"
	"reqls/internal/paths"
)

// LoggerFactory creates loggers for the reqls components from workspace
// configuration. The CLI level, when set, overrides the configured level.
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel *slog.Level
	fallback io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a logger factory. cliLevel is nil when no CLI
// override was given. Loggers write to fallback unless logging.file is set.
func NewLoggerFactory(root string, cfg *config.Config, cliLevel *slog.Level, fallback io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if fallback == nil {
		fallback = os.Stderr
	}
	return &LoggerFactory{
		root:     root,
		config:   cfg,
		cliLevel: cliLevel,
		fallback: fallback,
	}
}

// Logger returns a logger tagged with component. File loggers that cannot be
// opened fall back to the fallback writer.
func (f *LoggerFactory) Logger(component string) *slog.Logger {
	logger := f.base()
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

// FileLogger returns a logger writing to .reqls/logs/<name>.log regardless
// of logging.file. Used by the long-running servers whose stdout carries the
// protocol.
func (f *LoggerFactory) FileLogger(name string) (*slog.Logger, error) {
	if f.root == "" {
		return NewDiscardLogger(), nil
	}
	path := filepath.Join(paths.LogsDir(f.root), name+".log")
	logger, closer, err := f.open(path)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, closer)
	return logger.With("component", name), nil
}

func (f *LoggerFactory) base() *slog.Logger {
	path := f.config.LogPath(f.root)
	if path == "" {
		return NewLogger(f.fallback, f.level())
	}
	logger, closer, err := f.open(path)
	if err != nil {
		fallback := NewLogger(f.fallback, f.level())
		fallback.Warn("cannot open log file", "path", path, "error", err.Error())
		return fallback
	}
	f.closers = append(f.closers, closer)
	return logger
}

func (f *LoggerFactory) open(path string) (*slog.Logger, io.Closer, error) {
	return NewRotatingFileLogger(path, f.level(), f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
}

// level returns the effective level: CLI flag, then config, then info.
func (f *LoggerFactory) level() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
