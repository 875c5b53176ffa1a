package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"pixivarc/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name: "valid config with info level",
			cfg: &config.LoggingConfig{
				Level: "info",
			},
			wantErr: false,
		},
		{
			name: "valid config with debug level",
			cfg: &config.LoggingConfig{
				Level: "debug",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: &config.LoggingConfig{
				Level: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pixivarc.log")

	logger, err := New(&config.LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New() with file output failed: %v", err)
	}
	if logger == nil {
		t.Fatal("New() returned nil logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(&buf).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	logger := &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}

	t.Run("Debug", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("Expected debug message in output, got %s", buf.String())
		}
	})

	t.Run("WithField", func(t *testing.T) {
		buf.Reset()
		logger.WithField("seed", "user:2179695").Info("dispatched")
		output := buf.String()
		if !strings.Contains(output, "dispatched") || !strings.Contains(output, "user:2179695") {
			t.Errorf("Expected message and field in output, got %s", output)
		}
	})

	t.Run("WithError", func(t *testing.T) {
		buf.Reset()
		logger.WithError(errors.New("boom")).Error("resolution failed")
		output := buf.String()
		if !strings.Contains(output, "resolution failed") || !strings.Contains(output, "boom") {
			t.Errorf("Expected message and error in output, got %s", output)
		}
	})

	t.Run("WithFields", func(t *testing.T) {
		buf.Reset()
		logger.WithFields(map[string]interface{}{"post": "123", "files": 2}).Info("archived post")
		output := buf.String()
		if !strings.Contains(output, "archived post") || !strings.Contains(output, "123") {
			t.Errorf("Expected message and fields in output, got %s", output)
		}
	})
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	logger := NewTestLogger()

	logger.Info("first")
	logger.WithField("id", "42").Warn("second")
	logger.WithError(errors.New("boom")).Error("third")

	if len(logger.Messages()) != 3 {
		t.Fatalf("Expected 3 captured messages, got %d", len(logger.Messages()))
	}
	if !logger.HasMessage("second") {
		t.Error("Expected second message to be recorded")
	}

	warns := logger.MessagesByLevel("WARN")
	if len(warns) != 1 || warns[0].Fields["id"] != "42" {
		t.Errorf("Expected one warn with id field, got %+v", warns)
	}

	errs := logger.MessagesByLevel("ERROR")
	if len(errs) != 1 || errs[0].Error == nil {
		t.Errorf("Expected one error with attached err, got %+v", errs)
	}

	logger.Clear()
	if len(logger.Messages()) != 0 {
		t.Error("Expected no messages after Clear")
	}
}
