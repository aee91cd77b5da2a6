package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Expected default level info, got %q", cfg.Level)
	}
	if !cfg.Pretty {
		t.Error("Expected pretty output by default")
	}
	if cfg.Output != os.Stderr {
		t.Error("Expected default output to be stderr")
	}
}

func TestNew_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "trace",
		Pretty: false,
		Output: &buf,
	})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()

	if !strings.Contains(output, "trace message") {
		t.Error("Expected trace message to be logged at trace level")
	}
	if !strings.Contains(output, "debug message") {
		t.Error("Expected debug message to be logged at trace level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Expected info message to be logged at trace level")
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "debug",
		Pretty: false,
		Output: &buf,
	})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")

	output := buf.String()

	if strings.Contains(output, "trace message") {
		t.Error("Expected trace message to NOT be logged at debug level")
	}
	if !strings.Contains(output, "debug message") {
		t.Error("Expected debug message to be logged at debug level")
	}
}

func TestNew_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "info",
		Pretty: false,
		Output: &buf,
	})

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Expected debug message to NOT be logged at info level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Expected info message to be logged at info level")
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "chatty",
		Pretty: false,
		Output: &buf,
	})

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Expected unknown level to fall back to info")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Expected info message to be logged with unknown level")
	}
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{
		Level:  "info",
		Pretty: false,
		Output: &buf,
	}, "symserv")

	logger.Info().Msg("component message")

	output := buf.String()

	if !strings.Contains(output, `"component":"symserv"`) {
		t.Errorf("Expected component field in output, got %q", output)
	}
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "info",
		Pretty: true,
		Output: &buf,
	})

	logger.Info().Msg("pretty message")

	output := buf.String()

	if !strings.Contains(output, "pretty message") {
		t.Errorf("Expected message in console output, got %q", output)
	}
	if strings.Contains(output, `"message"`) {
		t.Errorf("Expected console formatting, got JSON: %q", output)
	}
}
