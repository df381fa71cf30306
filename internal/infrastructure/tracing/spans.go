package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// span is the common end-of-life handling for docsmith spans.
type span struct {
	span trace.Span
	ok   string
}

// End ends the span with Ok status.
func (s span) End() {
	s.span.SetStatus(codes.Ok, s.ok)
	s.span.End()
}

// EndWithError records err and ends the span with Error status.
func (s span) EndWithError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.span.End()
}

// RunSpan covers one documentation run.
type RunSpan struct{ span }

// StartRunSpan starts the root span of a run over project.
func (t *Tracer) StartRunSpan(ctx context.Context, project, language string) (context.Context, *RunSpan) {
	ctx, s := t.tracer.Start(ctx, "docs.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("docs.project", project),
			attribute.String("docs.language", language),
		),
	)
	return ctx, &RunSpan{span{s, "run completed"}}
}

// SetFileCount records the number of source files documented.
func (rs *RunSpan) SetFileCount(count int) {
	rs.span.span.SetAttributes(attribute.Int("docs.file_count", count))
}

// SetTotalTokens records the tokens spent on provider calls.
func (rs *RunSpan) SetTotalTokens(input, output int) {
	rs.span.span.SetAttributes(
		attribute.Int("docs.tokens.input", input),
		attribute.Int("docs.tokens.output", output),
		attribute.Int("docs.tokens.total", input+output),
	)
}

// SetCost records the run cost in USD.
func (rs *RunSpan) SetCost(cost float64) {
	rs.span.span.SetAttributes(attribute.Float64("docs.cost_usd", cost))
}

// SetCacheStats records prompt cache hits and misses.
func (rs *RunSpan) SetCacheStats(hits, misses int64) {
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	rs.span.span.SetAttributes(
		attribute.Int64("docs.cache.hits", hits),
		attribute.Int64("docs.cache.misses", misses),
		attribute.Float64("docs.cache.hit_rate", hitRate),
	)
}

// FileSpan covers documenting one source file.
type FileSpan struct{ span }

// StartFileSpan starts a span for the project file path.
func (t *Tracer) StartFileSpan(ctx context.Context, path string) (context.Context, *FileSpan) {
	ctx, s := t.tracer.Start(ctx, "docs.file",
		trace.WithAttributes(attribute.String("docs.file", path)),
	)
	return ctx, &FileSpan{span{s, "file documented"}}
}

// SetSymbols records the scopes found and the symbols documented.
func (fs *FileSpan) SetSymbols(scopes, symbols int) {
	fs.span.span.SetAttributes(
		attribute.Int("docs.scopes", scopes),
		attribute.Int("docs.symbols", symbols),
	)
}

// SetAssessments records the quality dimensions assessed for the file.
func (fs *FileSpan) SetAssessments(n int) {
	fs.span.span.SetAttributes(attribute.Int("docs.assessments", n))
}

// CacheSpan covers one GetOrCompute call on the prompt cache.
type CacheSpan struct{ span }

// StartCacheSpan starts a span for the prompt fingerprinted as fp.
func (t *Tracer) StartCacheSpan(ctx context.Context, fp string) (context.Context, *CacheSpan) {
	ctx, s := t.tracer.Start(ctx, "cache.get_or_compute",
		trace.WithAttributes(attribute.String("cache.fingerprint", fp)),
	)
	return ctx, &CacheSpan{span{s, "cache lookup completed"}}
}

// SetHit records whether the completion came from the cache.
func (cs *CacheSpan) SetHit(hit bool) {
	cs.span.span.SetAttributes(attribute.Bool("cache.hit", hit))
}

// SetStored records whether a computed completion was persisted.
func (cs *CacheSpan) SetStored(stored bool) {
	cs.span.span.SetAttributes(attribute.Bool("cache.stored", stored))
}

// ProviderSpan covers one provider request.
type ProviderSpan struct{ span }

// StartProviderSpan starts a client span for a completion request.
func (t *Tracer) StartProviderSpan(ctx context.Context, provider, model string) (context.Context, *ProviderSpan) {
	ctx, s := t.tracer.Start(ctx, "provider.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", provider),
			attribute.String("provider.model", model),
		),
	)
	return ctx, &ProviderSpan{span{s, "provider request completed"}}
}

// SetRequestTokens records the estimated prompt size.
func (ps *ProviderSpan) SetRequestTokens(tokens int) {
	ps.span.span.SetAttributes(attribute.Int("provider.request.tokens", tokens))
}

// SetResponse records the completion size and finish reason.
func (ps *ProviderSpan) SetResponse(outputTokens int, finishReason string) {
	ps.span.span.SetAttributes(
		attribute.Int("provider.response.tokens", outputTokens),
		attribute.String("provider.response.finish_reason", finishReason),
	)
}
