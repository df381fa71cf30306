package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorded(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tracer := NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, recorder
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestRunSpan(t *testing.T) {
	tracer, recorder := newRecorded(t)

	ctx, rs := tracer.StartRunSpan(context.Background(), "IIRA", "python")
	_, fs := tracer.StartFileSpan(ctx, "gui/app.py")
	fs.SetSymbols(2, 4)
	fs.End()
	rs.SetFileCount(1)
	rs.SetTotalTokens(1000, 500)
	rs.SetCost(0.015)
	rs.SetCacheStats(3, 1)
	rs.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	file, run := spans[0], spans[1]

	if file.Parent().SpanID() != run.SpanContext().SpanID() {
		t.Error("file span should be a child of the run span")
	}
	if a := attrs(file); a["docs.file"].AsString() != "gui/app.py" || a["docs.symbols"].AsInt64() != 4 {
		t.Errorf("file attributes = %v", a)
	}

	a := attrs(run)
	if a["docs.project"].AsString() != "IIRA" || a["docs.language"].AsString() != "python" {
		t.Errorf("run attributes = %v", a)
	}
	if a["docs.tokens.total"].AsInt64() != 1500 {
		t.Errorf("docs.tokens.total = %v", a["docs.tokens.total"])
	}
	if a["docs.cache.hit_rate"].AsFloat64() != 0.75 {
		t.Errorf("docs.cache.hit_rate = %v", a["docs.cache.hit_rate"])
	}
	if run.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", run.Status().Code)
	}
}

func TestFileSpan_Assessments(t *testing.T) {
	tracer, recorder := newRecorded(t)

	_, fs := tracer.StartFileSpan(context.Background(), "core/metrics.py")
	fs.SetAssessments(7)
	fs.End()

	if got := attrs(recorder.Ended()[0])["docs.assessments"].AsInt64(); got != 7 {
		t.Errorf("docs.assessments = %d, want 7", got)
	}
}

func TestRunSpan_NoCacheTraffic(t *testing.T) {
	tracer, recorder := newRecorded(t)

	_, rs := tracer.StartRunSpan(context.Background(), "IIRA", "java")
	rs.SetCacheStats(0, 0)
	rs.End()

	if rate := attrs(recorder.Ended()[0])["docs.cache.hit_rate"].AsFloat64(); rate != 0 {
		t.Errorf("hit rate = %v, want 0", rate)
	}
}

func TestSpans_EndWithError(t *testing.T) {
	tracer, recorder := newRecorded(t)
	ctx := context.Background()
	boom := errors.New("provider unreachable")

	_, rs := tracer.StartRunSpan(ctx, "IIRA", "python")
	rs.EndWithError(boom)
	_, fs := tracer.StartFileSpan(ctx, "app.py")
	fs.EndWithError(boom)
	_, cs := tracer.StartCacheSpan(ctx, "abc")
	cs.EndWithError(boom)
	_, ps := tracer.StartProviderSpan(ctx, "openai", "gpt-4-turbo")
	ps.EndWithError(boom)

	spans := recorder.Ended()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error || s.Status().Description != boom.Error() {
			t.Errorf("%s status = %+v", s.Name(), s.Status())
		}
		if len(s.Events()) == 0 {
			t.Errorf("%s should record the error as an event", s.Name())
		}
	}
}

func TestCacheSpan(t *testing.T) {
	tracer, recorder := newRecorded(t)

	_, cs := tracer.StartCacheSpan(context.Background(), "abc123")
	cs.SetHit(false)
	cs.SetStored(true)
	cs.End()

	span := recorder.Ended()[0]
	if span.Name() != "cache.get_or_compute" {
		t.Errorf("span name = %q", span.Name())
	}
	a := attrs(span)
	if a["cache.fingerprint"].AsString() != "abc123" {
		t.Errorf("cache.fingerprint = %v", a["cache.fingerprint"])
	}
	if a["cache.hit"].AsBool() {
		t.Error("cache.hit should be false")
	}
	if !a["cache.stored"].AsBool() {
		t.Error("cache.stored should be true")
	}
}

func TestProviderSpan(t *testing.T) {
	tracer, recorder := newRecorded(t)

	_, ps := tracer.StartProviderSpan(context.Background(), "openai", "gpt-4-turbo")
	ps.SetRequestTokens(500)
	ps.SetResponse(200, "stop")
	ps.End()

	span := recorder.Ended()[0]
	if span.Name() != "provider.complete" {
		t.Errorf("span name = %q", span.Name())
	}
	a := attrs(span)
	if a["provider.model"].AsString() != "gpt-4-turbo" || a["provider.response.finish_reason"].AsString() != "stop" {
		t.Errorf("attributes = %v", a)
	}
	if a["provider.request.tokens"].AsInt64() != 500 {
		t.Errorf("provider.request.tokens = %v", a["provider.request.tokens"])
	}
}
