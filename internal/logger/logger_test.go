package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbsmedya/formrows/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"},
		{"warn", "warn"},
		{"error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if err != nil {
				t.Fatalf("parseLevel(%q) error = %v", tt.input, err)
			}
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestParseLevelInvalid(t *testing.T) {
	if _, err := parseLevel("verbose"); err == nil {
		t.Error("parseLevel(\"verbose\") should fail")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{
			name: "json format info level",
			cfg:  &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name: "text format debug level",
			cfg:  &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
		},
		{
			name: "file output",
			cfg:  &config.LoggingConfig{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "log.json")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger without error")
			}
			_ = logger.Sync()
		})
	}
}

func TestNewDefaultAndNop(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
	logger.Debug("not printed at info level")

	nop := NewNop()
	nop.WithForm("survey").Info("discarded")
	if err := nop.Sync(); err != nil {
		t.Errorf("nop Sync() returned %v", err)
	}
}

func TestContextHelpers(t *testing.T) {
	logger := NewNop()

	chained := logger.WithForm("survey").WithTable("Submissions.members").WithInstance("uuid:1")
	if chained == nil {
		t.Fatal("chained logger is nil")
	}
	if chained == logger {
		t.Error("context helpers should return a new logger instance")
	}
	chained.Infow("converted", "rows", 3)
}

func TestOpenSink(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		sink, terminal, err := openSink(output)
		if err != nil || sink == nil {
			t.Errorf("openSink(%q) = %v, %v", output, sink, err)
		}
		if !terminal {
			t.Errorf("openSink(%q) should report a terminal stream", output)
		}
	}

	sink, terminal, err := openSink(filepath.Join(t.TempDir(), "out.log"))
	if err != nil || sink == nil {
		t.Fatalf("openSink(file) = %v, %v", sink, err)
	}
	if terminal {
		t.Error("file sink should not be a terminal stream")
	}

	if _, _, err := openSink("/nonexistent-dir/out.log"); err == nil {
		t.Error("openSink(bad path) should fail")
	}
}

func TestLoggingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logger-test.json")

	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("test info message")
	logger.WithForm("household").WithInstance("uuid:abc").Warn("conflicting submission")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	for _, want := range []string{"test info message", "conflicting submission", `"form":"household"`, `"instance_id":"uuid:abc"`} {
		if !strings.Contains(contentStr, want) {
			t.Errorf("log file should contain %s", want)
		}
	}
}
