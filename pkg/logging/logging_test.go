package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/ml-agent/pkg/logging"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := &logging.Config{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelInfo {
		t.Errorf("Level = %s, want info", cfg.Level)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %s, want text", cfg.Format)
	}
}

func TestConfig_Finalize_EnvOverrides(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")
	t.Setenv("TEST_LOG_FORMAT", "json")

	cfg := &logging.Config{}
	env := &logging.Env{Level: "TEST_LOG_LEVEL", Format: "TEST_LOG_FORMAT"}

	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelDebug {
		t.Errorf("Level = %s, want debug", cfg.Level)
	}
	if cfg.Format != logging.FormatJSON {
		t.Errorf("Format = %s, want json", cfg.Format)
	}
}

func TestConfig_Finalize_InvalidLevel(t *testing.T) {
	cfg := &logging.Config{Level: "verbose"}

	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("Finalize() accepted invalid level")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := &logging.Config{}
	cfg.Finalize(nil)

	cfg.Merge(&logging.Config{Level: logging.LevelError})

	if cfg.Level != logging.LevelError {
		t.Errorf("Level = %s, want error", cfg.Level)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %s, want text preserved", cfg.Format)
	}
}

func TestLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level logging.Level
		want  slog.Level
	}{
		{logging.LevelDebug, slog.LevelDebug},
		{logging.LevelInfo, slog.LevelInfo},
		{logging.LevelWarn, slog.LevelWarn},
		{logging.LevelError, slog.LevelError},
		{logging.Level("unknown"), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.ToSlogLevel(); got != tt.want {
			t.Errorf("ToSlogLevel(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logging.Config{Level: logging.LevelInfo, Format: logging.FormatText}

	logger := logging.NewWithWriter(cfg, &buf)
	logger.Info("startup", "port", 8000)

	output := buf.String()
	if !strings.Contains(output, "msg=startup") || !strings.Contains(output, "port=8000") {
		t.Errorf("unexpected text output: %s", output)
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON}

	logger := logging.NewWithWriter(cfg, &buf)
	logger.Info("startup", "port", 8000)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "startup" {
		t.Errorf("msg = %v, want startup", record["msg"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := &logging.Config{Level: logging.LevelWarn, Format: logging.FormatText}

	logger := logging.NewWithWriter(cfg, &buf)
	logger.Info("suppressed")
	logger.Warn("surfaced")

	output := buf.String()
	if strings.Contains(output, "suppressed") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(output, "surfaced") {
		t.Error("warn record missing from output")
	}
}
