package observe

import (
	"context"
	"errors"
	"testing"
)

func TestConfigValidate_Valid(t *testing.T) {
	cfg := Config{
		ServiceName: "requestcache",
		Version:     "1.0.0",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 0.5,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "prometheus",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfigValidate_MissingServiceName(t *testing.T) {
	cfg := Config{}

	if err := cfg.Validate(); !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("Validate() error = %v, want ErrMissingServiceName", err)
	}
}

func TestConfigValidate_UnknownTracingExporter(t *testing.T) {
	cfg := Config{
		ServiceName: "requestcache",
		Tracing: TracingConfig{
			Enabled:  true,
			Exporter: "zipkin",
		},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTracingExporter) {
		t.Errorf("Validate() error = %v, want ErrInvalidTracingExporter", err)
	}
}

func TestConfigValidate_UnknownMetricsExporter(t *testing.T) {
	cfg := Config{
		ServiceName: "requestcache",
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "statsd",
		},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidMetricsExporter) {
		t.Errorf("Validate() error = %v, want ErrInvalidMetricsExporter", err)
	}
}

func TestConfigValidate_SamplePctOutOfRange(t *testing.T) {
	for _, pct := range []float64{-0.1, 1.5} {
		cfg := Config{
			ServiceName: "requestcache",
			Tracing: TracingConfig{
				Enabled:   true,
				Exporter:  "stdout",
				SamplePct: pct,
			},
		}

		if err := cfg.Validate(); !errors.Is(err, ErrInvalidSamplePct) {
			t.Errorf("Validate(pct=%f) error = %v, want ErrInvalidSamplePct", pct, err)
		}
	}
}

func TestConfigValidate_UnknownLogLevel(t *testing.T) {
	cfg := Config{
		ServiceName: "requestcache",
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "verbose",
		},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Validate() error = %v, want ErrInvalidLogLevel", err)
	}
}

func TestNewObserver_DisabledNoop(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "requestcache",
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	if obs.Tracer() == nil {
		t.Error("Tracer() = nil, want noop tracer")
	}
	if obs.Meter() == nil {
		t.Error("Meter() = nil, want noop meter")
	}
	if obs.Logger() == nil {
		t.Error("Logger() = nil, want noop logger")
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfigReturnsError(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if err == nil {
		t.Error("NewObserver() with empty config should fail")
	}
}

func TestNewObserver_NoneExporters(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "requestcache",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "error"},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	// Instruments must be creatable on the returned meter.
	if _, err := NewCacheInstruments(obs.Meter()); err != nil {
		t.Errorf("NewCacheInstruments() error = %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
