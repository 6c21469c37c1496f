package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func TestOpMeta_SpanName(t *testing.T) {
	tests := []struct {
		name string
		meta OpMeta
		want string
	}{
		{"get", OpMeta{Cache: "sessions", Op: "get"}, "cache.get"},
		{"load", OpMeta{Cache: "sessions", Op: "load"}, "cache.load"},
		{"empty op", OpMeta{Cache: "sessions"}, "cache.op"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.want {
				t.Errorf("SpanName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, recorder := newTestTracer()

	ctx, span := tracer.StartSpan(context.Background(), OpMeta{
		Cache: "sessions",
		Op:    "load",
		Key:   "req:GET /users:abcd1234",
	})
	tracer.EndSpan(span, nil)

	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}

	got := spans[0]
	if got.Name() != "cache.load" {
		t.Errorf("span name = %q, want cache.load", got.Name())
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range got.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["cache"].AsString() != "sessions" {
		t.Errorf("cache attribute = %v, want sessions", attrs["cache"])
	}
	if attrs["cache.op"].AsString() != "load" {
		t.Errorf("cache.op attribute = %v, want load", attrs["cache.op"])
	}
	if attrs["cache.key"].AsString() != "req:GET /users:abcd1234" {
		t.Errorf("cache.key attribute = %v", attrs["cache.key"])
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestTracer_KeyOmittedWhenEmpty(t *testing.T) {
	tracer, recorder := newTestTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Cache: "sessions", Op: "get"})
	tracer.EndSpan(span, nil)

	for _, kv := range recorder.Ended()[0].Attributes() {
		if kv.Key == "cache.key" {
			t.Error("cache.key attribute present for empty key")
		}
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	tracer, recorder := newTestTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Cache: "sessions", Op: "load"})
	tracer.EndSpan(span, errors.New("load failed"))

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}

	var errored bool
	for _, kv := range got.Attributes() {
		if kv.Key == "cache.error" && kv.Value.AsBool() {
			errored = true
		}
	}
	if !errored {
		t.Error("cache.error attribute not set to true")
	}
	if len(got.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	tracer, recorder := newTestTracer()

	ctx, parent := tracer.StartSpan(context.Background(), OpMeta{Cache: "sessions", Op: "get"})
	_, child := tracer.StartSpan(ctx, OpMeta{Cache: "sessions", Op: "load"})
	tracer.EndSpan(child, nil)
	tracer.EndSpan(parent, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	// Child ends first; it must descend from the parent's trace.
	if spans[0].SpanContext().TraceID() != spans[1].SpanContext().TraceID() {
		t.Error("child span not in parent trace")
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("child span not parented to the outer span")
	}
}

func TestNoopTracer(t *testing.T) {
	tracer := NewNoopTracer()

	ctx, span := tracer.StartSpan(context.Background(), OpMeta{Cache: "x", Op: "get"})
	if ctx == nil || span == nil {
		t.Fatal("noop tracer returned nils")
	}
	tracer.EndSpan(span, errors.New("ignored"))
}
