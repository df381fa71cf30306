// Package model turns a prompt into a completion: it builds the provider
// request from configuration, routes it through the prompt cache and
// records what each call cost.
package model

import (
	"context"
	"errors"
	"time"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
	"github.com/jbctechsolutions/docsmith/internal/domain/pricing"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/logging"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tracing"
)

// Option configures a Model.
type Option func(*Model)

// WithTracker records a usage event for every completion.
func WithTracker(t *usage.Tracker) Option {
	return func(m *Model) { m.tracker = t }
}

// WithEstimator sets the estimator used when a provider reports no usage.
func WithEstimator(e pricing.TokenEstimator) Option {
	return func(m *Model) {
		if e != nil {
			m.estimator = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer sets the tracer used for provider spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(m *Model) {
		if t != nil {
			m.tracer = t
		}
	}
}

// Model completes prompts with one configured model.
type Model struct {
	cfg       config.ProviderConfig
	provider  ports.ProviderPort
	cache     ports.PromptCache
	tracker   *usage.Tracker
	estimator pricing.TokenEstimator
	logger    *logging.Logger
	tracer    *tracing.Tracer
}

// New creates a Model. cfg.Model names the model every request uses.
func New(cfg config.ProviderConfig, provider ports.ProviderPort, cache ports.PromptCache, opts ...Option) (*Model, error) {
	if cfg.Model == "" {
		return nil, domainErrors.ErrModelRequired
	}
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if cache == nil {
		return nil, errors.New("prompt cache is required")
	}

	m := &Model{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		logger:   logging.Nop(),
		tracer:   tracing.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.estimator == nil {
		m.estimator = tokenizer.NewBestEffort(cfg.Model)
	}
	return m, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.cfg.Model
}

// Cache returns the prompt cache this model reads through.
func (m *Model) Cache() ports.PromptCache {
	return m.cache
}

// Complete returns the completion for prompt, from the cache when possible.
// A completion that could not be persisted is still returned without error;
// the cache has already logged the failure.
func (m *Model) Complete(ctx context.Context, prompt string) (*completion.Completion, error) {
	start := time.Now()

	comp, err := m.cache.GetOrCompute(ctx, prompt, m.computeFunc(prompt))
	if err != nil && !(comp != nil && errors.Is(err, domainErrors.ErrPersistFailed)) {
		return nil, err
	}

	if m.tracker != nil {
		m.tracker.Record(usage.Event{
			File:         logging.File(ctx),
			Symbol:       logging.Symbol(ctx),
			Model:        m.cfg.Model,
			Fingerprint:  m.cache.Fingerprint(prompt),
			CacheHit:     comp.FromCache,
			InputTokens:  comp.InputTokens,
			OutputTokens: comp.OutputTokens,
			Duration:     time.Since(start),
		})
	}
	return comp, nil
}

func (m *Model) computeFunc(prompt string) ports.ComputeFunc {
	return func(ctx context.Context) (*completion.Completion, error) {
		return m.compute(ctx, prompt)
	}
}

// compute issues the provider request for prompt.
func (m *Model) compute(ctx context.Context, prompt string) (*completion.Completion, error) {
	info := m.provider.Info()
	ctx = logging.WithProvider(ctx, info.Name)
	ctx, span := m.tracer.StartProviderSpan(ctx, info.Name, m.cfg.Model)

	req := ports.CompletionRequest{
		ModelID:     m.cfg.Model,
		Messages:    []ports.Message{{Role: ports.RoleUser, Content: prompt}},
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: float32(m.cfg.Temperature),
	}

	estimated := m.estimator.CountTokens(prompt)
	span.SetRequestTokens(estimated)
	logging.LogProviderRequest(ctx, m.logger, info.Name, m.cfg.Model, estimated)

	resp, err := m.provider.Complete(ctx, req)
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	inputTokens, outputTokens := resp.InputTokens, resp.OutputTokens
	if inputTokens == 0 {
		inputTokens = estimated
	}
	if outputTokens == 0 && resp.Content != "" {
		outputTokens = m.estimator.CountTokens(resp.Content)
	}

	span.SetResponse(outputTokens, resp.FinishReason)
	span.End()
	logging.LogProviderResponse(ctx, m.logger, info.Name, m.cfg.Model, outputTokens, resp.Duration)

	if m.tracker != nil {
		cost := m.tracker.Price(m.cfg.Model, inputTokens, outputTokens)
		logging.LogCostIncurred(ctx, m.logger, m.cfg.Model, cost.TotalCost, inputTokens, outputTokens)
	}

	comp := completion.New(resp.Content, m.cfg.Model)
	if resp.ModelUsed != "" {
		comp.Model = resp.ModelUsed
	}
	comp.InputTokens = inputTokens
	comp.OutputTokens = outputTokens
	comp.FinishReason = resp.FinishReason
	return comp, nil
}
