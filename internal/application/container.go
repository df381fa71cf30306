// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jbctechsolutions/docsmith/internal/adapters/provider/openai"
	"github.com/jbctechsolutions/docsmith/internal/adapters/store"
	"github.com/jbctechsolutions/docsmith/internal/application/docs"
	"github.com/jbctechsolutions/docsmith/internal/application/model"
	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/application/promptcache"
	"github.com/jbctechsolutions/docsmith/internal/application/usage"
	"github.com/jbctechsolutions/docsmith/internal/domain/pricing"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/logging"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	// Configuration
	config  *config.Config
	verbose bool // Override log level to debug when true

	// Observability
	logger *logging.Logger
	tracer *tracing.Tracer

	// Cache
	store ports.EntryStore // nil when caching is disabled
	cache ports.PromptCache

	// Completion
	provider       ports.ProviderPort
	costCalculator *pricing.CostCalculator
	tracker        *usage.Tracker
	model          *model.Model

	prompts *docs.Prompts
}

// Option customizes a Container.
type Option func(*Container)

// WithProvider replaces the provider built from configuration.
func WithProvider(p ports.ProviderPort) Option {
	return func(c *Container) { c.provider = p }
}

// WithStore replaces the entry store opened from configuration. It is only
// used when caching is enabled.
func WithStore(s ports.EntryStore) Option {
	return func(c *Container) { c.store = s }
}

// WithVerbose lowers the log level to debug.
func WithVerbose(v bool) Option {
	return func(c *Container) { c.verbose = v }
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initObservability(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initCache(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability initializes logging and tracing.
func (c *Container) initObservability(ctx context.Context) error {
	logLevel, err := logging.ParseLevel(c.config.Logging.Level)
	if err != nil {
		return err
	}
	if c.verbose {
		logLevel = logging.LevelDebug
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	c.logger = logging.New(logging.Config{
		Level:  logLevel,
		Format: logFormat,
	})

	if c.config.Observability.Tracing.Enabled {
		tracer, err := tracing.New(ctx, tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
			OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Observability.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Observability.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	return nil
}

// initCache opens the entry store and builds the prompt cache. A disabled
// cache never opens a store, so nothing is written.
func (c *Container) initCache(ctx context.Context) error {
	cfg := c.config.Cache

	if cfg.Enabled && c.store == nil {
		s, err := store.Open(ctx, cfg)
		if err != nil {
			return err
		}
		c.store = s
	}
	if !cfg.Enabled {
		c.store = nil
	}

	c.cache = promptcache.New(cfg, c.config.Provider.Model, c.store,
		promptcache.WithLogger(c.logger),
		promptcache.WithTracer(c.tracer),
	)
	c.logger.Debug("prompt cache ready",
		"enabled", c.cache.Enabled(),
		"backend", cfg.Backend,
		"dir", cfg.Dir,
	)
	return nil
}

// initServices wires the provider, usage tracking and the model.
func (c *Container) initServices() error {
	if c.provider == nil {
		c.provider = openai.NewProvider(openai.FromConfig(c.config.Provider))
	}

	c.costCalculator = pricing.NewDefaultCostCalculator()
	c.tracker = usage.NewTracker(c.costCalculator)

	m, err := model.New(c.config.Provider, c.provider, c.cache,
		model.WithTracker(c.tracker),
		model.WithLogger(c.logger),
		model.WithTracer(c.tracer),
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	c.model = m

	prompts, err := docs.LoadPrompts(c.config.Docs.PromptsDir)
	if err != nil {
		return err
	}
	c.prompts = prompts

	return nil
}

// NewAgent creates a documentation agent for the project at target using the
// configured language, prompts and concurrency. opts are applied last.
func (c *Container) NewAgent(target string, opts ...docs.Option) (*docs.Agent, error) {
	base := []docs.Option{
		docs.WithPrompts(c.prompts),
		docs.WithConcurrency(c.config.Docs.Concurrency),
		docs.WithLogger(c.logger),
		docs.WithTracer(c.tracer),
		docs.WithCache(c.cache),
		docs.WithTracker(c.tracker),
	}
	return docs.NewAgent(c.model, target, c.config.Docs.Language, append(base, opts...)...)
}

// ReportPath returns where the documentation report is written.
func (c *Container) ReportPath() string {
	return filepath.Join(c.config.Docs.WorkingDir, c.config.Docs.ReportFile)
}

// UsagePath returns where the usage report is written.
func (c *Container) UsagePath() string {
	return filepath.Join(c.config.Docs.WorkingDir, c.config.Docs.UsageFile)
}

// QualityPath returns where the software quality report is written.
func (c *Container) QualityPath() string {
	return filepath.Join(c.config.Docs.WorkingDir, c.config.Docs.QualityFile)
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()
	var errs []error

	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the application tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Store returns the entry store behind the prompt cache, or nil when caching
// is disabled.
func (c *Container) Store() ports.EntryStore {
	return c.store
}

// PromptCache returns the prompt cache.
func (c *Container) PromptCache() ports.PromptCache {
	return c.cache
}

// Provider returns the completion provider.
func (c *Container) Provider() ports.ProviderPort {
	return c.provider
}

// Model returns the cached model every prompt goes through.
func (c *Container) Model() *model.Model {
	return c.model
}

// Tracker returns the usage tracker.
func (c *Container) Tracker() *usage.Tracker {
	return c.tracker
}

// CostCalculator returns the cost calculator.
func (c *Container) CostCalculator() *pricing.CostCalculator {
	return c.costCalculator
}
