package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesCacheField verifies the cache name is attached to
// every entry of a WithCache logger.
func TestLogger_IncludesCacheField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	cacheLogger := logger.WithCache("sessions")
	cacheLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["cache"].(string); !ok || v != "sessions" {
		t.Errorf("expected cache='sessions', got %v", logEntry["cache"])
	}
	if v, ok := logEntry["msg"].(string); !ok || v != "test message" {
		t.Errorf("expected msg='test message', got %v", logEntry["msg"])
	}
	if _, ok := logEntry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

// TestLogger_FieldsIncluded verifies structured fields appear in output.
func TestLogger_FieldsIncluded(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "lookup",
		Field{Key: "key", Value: "req:GET /users:abcd"},
		Field{Key: "duration_ms", Value: 12.5},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["key"].(string); !ok || v != "req:GET /users:abcd" {
		t.Errorf("expected key field, got %v", logEntry["key"])
	}
	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 12.5 {
		t.Errorf("expected duration_ms=12.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_ValuesRedacted verifies cached values and credentials never
// reach log output.
func TestLogger_ValuesRedacted(t *testing.T) {
	tests := []string{"value", "payload", "password", "secret", "token", "api_key"}

	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter("info", &buf)

			logger.Info(context.Background(), "write",
				Field{Key: key, Value: "sensitive-data"},
			)

			output := buf.String()
			if strings.Contains(output, "sensitive-data") {
				t.Errorf("field %q leaked into log output: %s", key, output)
			}

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if logEntry[key] != "[REDACTED]" {
				t.Errorf("field %q = %v, want [REDACTED]", key, logEntry[key])
			}
		})
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level
// are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 entries at/above warn, got %d: %s", len(lines), buf.String())
	}
}

// TestLogger_LevelsInOutput verifies the level field of each entry.
func TestLogger_LevelsInOutput(t *testing.T) {
	tests := []struct {
		log  func(Logger, context.Context)
		want string
	}{
		{func(l Logger, ctx context.Context) { l.Debug(ctx, "m") }, "debug"},
		{func(l Logger, ctx context.Context) { l.Info(ctx, "m") }, "info"},
		{func(l Logger, ctx context.Context) { l.Warn(ctx, "m") }, "warn"},
		{func(l Logger, ctx context.Context) { l.Error(ctx, "m") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter("debug", &buf)
			tt.log(logger, context.Background())

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log output: %v", err)
			}
			if logEntry["level"] != tt.want {
				t.Errorf("level = %v, want %s", logEntry["level"], tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	ctx := context.Background()

	// Must be safe to call and chain without output or panics.
	logger.Info(ctx, "m")
	logger.WithCache("x").Error(ctx, "m", Field{Key: "value", Value: "v"})
}
