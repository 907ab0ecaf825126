package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("ParseFormat(json) should be FormatJSON")
	}
	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be FormatJSON")
	}
	if ParseFormat("pretty") != FormatPretty {
		t.Error("ParseFormat(pretty) should be FormatPretty")
	}
	if ParseFormat("anything else") != FormatPretty {
		t.Error("ParseFormat should default to FormatPretty")
	}
}

func TestNewWithWriter_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "DEBUG", FormatJSON)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(lines))
	}

	for i, line := range lines {
		var data map[string]any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "WARN", FormatJSON)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
}

func TestNewWithWriter_PrettyIncludesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "INFO", FormatPretty)

	logger.Info("server started", "port", 8080)

	output := buf.String()
	if !strings.Contains(output, "server started") {
		t.Errorf("output should contain the message: %q", output)
	}
	if !strings.Contains(output, "port=") || !strings.Contains(output, "8080") {
		t.Errorf("output should contain the port attribute: %q", output)
	}
	if !strings.Contains(output, "INF") {
		t.Errorf("output should contain the level tag: %q", output)
	}
}

func TestConfigure_SetsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logger := Configure("DEBUG", FormatJSON)

	if logger == nil {
		t.Fatal("Configure should not return nil")
	}
	if slog.Default() != logger {
		t.Error("Configure should install the logger as the slog default")
	}
}
