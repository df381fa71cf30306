// Package promptcache memoizes LLM completions by prompt fingerprint.
//
// A documentation run issues hundreds of prompts, most of which are identical
// from one run to the next. The Enabled cache persists every completion in an
// EntryStore so that re-running the pipeline on unchanged code replays stored
// answers instead of paying for new ones. The Disabled cache always computes.
//
// Entries are immutable once written: there is no TTL, eviction or
// invalidation. Changing the model or key version yields new keys.
package promptcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
	domainErrors "github.com/jbctechsolutions/docsmith/internal/domain/errors"
	"github.com/jbctechsolutions/docsmith/internal/domain/fingerprint"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/logging"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tracing"
)

// Option configures a cache built by New.
type Option func(*options)

type options struct {
	logger *logging.Logger
	tracer *tracing.Tracer
}

// WithLogger sets the logger used for hits, misses and store failures.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used for cache spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: logging.Nop(),
		tracer: tracing.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// KeyerFor returns the key scope described by cfg for model.
func KeyerFor(cfg config.CacheConfig, model string) fingerprint.Keyer {
	k := fingerprint.Keyer{
		Version:   cfg.KeyVersion,
		Normalize: cfg.NormalizeWrappers,
	}
	if cfg.KeyIncludesModel {
		k.Model = model
	}
	return k
}

// New returns the Enabled cache over store when cfg.Enabled is set and the
// Disabled cache otherwise. store may be nil when caching is disabled.
func New(cfg config.CacheConfig, model string, store ports.EntryStore, opts ...Option) ports.PromptCache {
	keyer := KeyerFor(cfg, model)
	if !cfg.Enabled || store == nil {
		return NewDisabled(keyer)
	}
	return NewEnabled(store, keyer, opts...)
}

// counters is shared by both variants.
type counters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	computes    atomic.Int64
	stores      atomic.Int64
	storeErrors atomic.Int64
	corrupt     atomic.Int64
}

func (c *counters) snapshot() ports.CacheStats {
	s := ports.CacheStats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Computes:    c.computes.Load(),
		Stores:      c.stores.Load(),
		StoreErrors: c.storeErrors.Load(),
		Corrupt:     c.corrupt.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// Enabled persists completions in an EntryStore.
type Enabled struct {
	store  ports.EntryStore
	keyer  fingerprint.Keyer
	logger *logging.Logger
	tracer *tracing.Tracer
	flight singleflight.Group
	stats  counters
}

// NewEnabled creates a persisting cache over store.
func NewEnabled(store ports.EntryStore, keyer fingerprint.Keyer, opts ...Option) *Enabled {
	o := buildOptions(opts)
	return &Enabled{
		store:  store,
		keyer:  keyer,
		logger: o.logger.With("component", "promptcache"),
		tracer: o.tracer,
	}
}

// Fingerprint returns the key for prompt.
func (c *Enabled) Fingerprint(prompt string) string {
	return c.keyer.Key(prompt)
}

// Lookup returns the completion stored under fp. Unreadable entries and
// store errors count as a miss.
func (c *Enabled) Lookup(ctx context.Context, fp string) (*completion.Completion, bool) {
	entry, err := c.store.Get(ctx, fp)
	switch {
	case err == nil:
		c.stats.hits.Add(1)
		logging.LogCacheHit(ctx, c.logger, fp, entry.Completion.TotalTokens())
		comp := entry.Completion.Clone()
		comp.FromCache = true
		return comp, true
	case errors.Is(err, ports.ErrEntryNotFound):
	case errors.Is(err, ports.ErrCorruptEntry):
		c.stats.corrupt.Add(1)
		logging.LogCorruptEntry(ctx, c.logger, fp, err)
	default:
		c.logger.WarnContext(ctx, "cache lookup failed; treating as miss",
			"fingerprint", fp,
			"error", err.Error(),
		)
	}

	c.stats.misses.Add(1)
	logging.LogCacheMiss(ctx, c.logger, fp)
	return nil, false
}

// Store persists comp under fp. Storing an entry that already exists is a
// no-op. Failures are returned as *errors.PersistError.
func (c *Enabled) Store(ctx context.Context, fp string, comp *completion.Completion) error {
	if comp == nil {
		return domainErrors.ErrNilCompletion
	}

	entry := &ports.CacheEntry{
		Fingerprint: fp,
		Model:       comp.Model,
		Completion:  comp.Clone(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.stats.storeErrors.Add(1)
		return &domainErrors.PersistError{Fingerprint: fp, Cause: err}
	}

	c.stats.stores.Add(1)
	return nil
}

// flightResult carries a computed completion out of the singleflight group
// together with a persist failure, which must not hide the completion.
type flightResult struct {
	comp       *completion.Completion
	persistErr error
}

// GetOrCompute returns the stored completion for prompt or computes, stores
// and returns a new one. Concurrent callers with the same prompt share one
// compute.
func (c *Enabled) GetOrCompute(ctx context.Context, prompt string, compute ports.ComputeFunc) (*completion.Completion, error) {
	fp := c.Fingerprint(prompt)
	ctx, span := c.tracer.StartCacheSpan(ctx, fp)

	if comp, ok := c.Lookup(ctx, fp); ok {
		span.SetHit(true)
		span.End()
		return comp, nil
	}
	span.SetHit(false)

	v, err, _ := c.flight.Do(fp, func() (any, error) {
		c.stats.computes.Add(1)
		comp, err := compute(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domainErrors.ErrComputeFailed, err)
		}
		if comp == nil {
			return nil, domainErrors.ErrNilCompletion
		}
		return flightResult{comp: comp, persistErr: c.Store(ctx, fp, comp)}, nil
	})
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	res := v.(flightResult)
	if res.persistErr != nil {
		logging.LogCacheStoreFailed(ctx, c.logger, fp, res.persistErr)
		span.SetStored(false)
		span.End()
		return res.comp.Clone(), res.persistErr
	}

	span.SetStored(true)
	span.End()
	return res.comp.Clone(), nil
}

// Enabled reports true.
func (c *Enabled) Enabled() bool { return true }

// Stats returns activity counters for this process.
func (c *Enabled) Stats() ports.CacheStats { return c.stats.snapshot() }

// Disabled never persists anything and always computes.
type Disabled struct {
	keyer fingerprint.Keyer
	stats counters
}

// NewDisabled creates a cache that always computes.
func NewDisabled(keyer fingerprint.Keyer) *Disabled {
	return &Disabled{keyer: keyer}
}

// Fingerprint returns the key the enabled cache would use for prompt.
func (c *Disabled) Fingerprint(prompt string) string {
	return c.keyer.Key(prompt)
}

// Lookup always misses.
func (c *Disabled) Lookup(context.Context, string) (*completion.Completion, bool) {
	c.stats.misses.Add(1)
	return nil, false
}

// Store does nothing.
func (c *Disabled) Store(context.Context, string, *completion.Completion) error {
	return nil
}

// GetOrCompute calls compute.
func (c *Disabled) GetOrCompute(ctx context.Context, _ string, compute ports.ComputeFunc) (*completion.Completion, error) {
	c.stats.misses.Add(1)
	c.stats.computes.Add(1)
	comp, err := compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrComputeFailed, err)
	}
	if comp == nil {
		return nil, domainErrors.ErrNilCompletion
	}
	return comp, nil
}

// Enabled reports false.
func (c *Disabled) Enabled() bool { return false }

// Stats returns activity counters for this process.
func (c *Disabled) Stats() ports.CacheStats { return c.stats.snapshot() }

var (
	_ ports.PromptCache = (*Enabled)(nil)
	_ ports.PromptCache = (*Disabled)(nil)
)
