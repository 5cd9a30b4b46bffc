package announcer

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hammamikhairi/voiceguide/internal/domain"
)

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanPerUtterance(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	a, backend := newTestAnnouncer(t, WithTracer(tp.Tracer(ScopeName)))

	a.Speak("A", domain.PriorityNormal)
	a.Speak("C", domain.PriorityHigh) // A pre-empted
	backend.finish(errors.New("engine unavailable"))

	a.Speak("B", domain.PriorityNormal)
	backend.finish(nil)

	a.Speak("D", domain.PriorityNormal)
	a.Stop()

	if started := len(rec.Started()); started != 4 {
		t.Fatalf("expected 4 spans started, got %d", started)
	}
	spans := rec.Ended()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans ended, got %d", len(spans))
	}

	want := []struct {
		priority string
		outcome  string
		failed   bool
	}{
		{"normal", "preempted", false},
		{"high", "error", true},
		{"normal", "completed", false},
		{"normal", "stopped", false},
	}
	submitted := backend.texts()
	for i, w := range want {
		s := spans[i]
		if s.Name() != "speak announcement" {
			t.Errorf("span %d: unexpected name %q", i, s.Name())
		}
		if v, _ := spanAttr(s, "announcement.outcome"); v.AsString() != w.outcome {
			t.Errorf("span %d (%s): outcome %q, want %q", i, submitted[i], v.AsString(), w.outcome)
		}
		if v, _ := spanAttr(s, "announcement.priority"); v.AsString() != w.priority {
			t.Errorf("span %d: priority %q, want %q", i, v.AsString(), w.priority)
		}
		if v, ok := spanAttr(s, "announcement.text_length"); !ok || v.AsInt64() != 1 {
			t.Errorf("span %d: text length %v", i, v.AsInt64())
		}
		if failed := s.Status().Code == codes.Error; failed != w.failed {
			t.Errorf("span %d: status %v, want error=%t", i, s.Status().Code, w.failed)
		}
	}

	if events := spans[1].Events(); len(events) != 1 || events[0].Name != "exception" {
		t.Fatalf("expected the failure recorded as an exception event, got %v", events)
	}
}

func TestStaleCompletionEndsNoSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	a, backend := newTestAnnouncer(t, WithTracer(tp.Tracer(ScopeName)))

	a.Speak("A", domain.PriorityNormal)
	first := backend.last()
	a.Speak("C", domain.PriorityHigh)
	backend.finishID(first.ID, domain.ErrCanceled)

	if ended := len(rec.Ended()); ended != 1 {
		t.Fatalf("expected only the pre-empted span ended, got %d", ended)
	}
}
