package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reqls/internal/config"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Indexed file", "uri", "file:///w/a.req", "symbols", 4)

	output := buf.String()
	for _, want := range []string{"[info]", "Indexed file | ", "uri=file:///w/a.req", "symbols=4"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestHandler_NoAttrs(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("ready")

	if strings.Contains(buf.String(), "|") {
		t.Errorf("expected no separator without attributes, got: %s", buf.String())
	}
}

func TestHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(NewLogger(&buf, slog.LevelDebug))
			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("expected messages below warn to be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be included")
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("session", "s1").WithGroup("lsp")

	logger.Info("request", "method", "initialize")

	output := buf.String()
	if !strings.Contains(output, "session=s1") {
		t.Errorf("expected session=s1, got: %s", output)
	}
	if !strings.Contains(output, "lsp.method=initialize") {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestHandler_QuotesStrings(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("parse", "error", "unexpected character")

	if !strings.Contains(buf.String(), `error="unexpected character"`) {
		t.Errorf("expected quoted value, got: %s", buf.String())
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("dropped")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not enable error level")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.expected {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{2, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestLoggerFactory_Fallback(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggerFactory(t.TempDir(), nil, nil, &buf)
	defer factory.Close()

	factory.Logger("check").Info("loaded", "files", 2)

	if !strings.Contains(buf.String(), "component=check") {
		t.Errorf("expected component attribute, got: %s", buf.String())
	}
}

func TestLoggerFactory_CLILevelWins(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"
	level := slog.LevelDebug
	factory := NewLoggerFactory("", cfg, &level, &buf)

	factory.Logger("").Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected CLI level to override config, got: %q", buf.String())
	}
}

func TestLoggerFactory_ConfiguredFile(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = "logs/reqls.log"
	var buf bytes.Buffer
	factory := NewLoggerFactory(root, cfg, nil, &buf)

	factory.Logger("serve").Info("started")
	if err := factory.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "logs", "reqls.log"))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "started") {
		t.Errorf("expected message in log file, got: %s", data)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing on fallback, got: %s", buf.String())
	}
}

func TestLoggerFactory_FileLogger(t *testing.T) {
	root := t.TempDir()
	factory := NewLoggerFactory(root, nil, nil, nil)

	logger, err := factory.FileLogger("mcp")
	if err != nil {
		t.Fatalf("FileLogger failed: %v", err)
	}
	logger.Warn("tool failed")
	factory.Close()

	data, err := os.ReadFile(filepath.Join(root, ".reqls", "logs", "mcp.log"))
	if err != nil {
		t.Fatalf("expected mcp.log: %v", err)
	}
	if !strings.Contains(string(data), "component=mcp") {
		t.Errorf("expected component attribute, got: %s", data)
	}
}
