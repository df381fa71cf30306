// Package config provides configuration structs and utilities for the docsmith application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config represents the root configuration for the docsmith application.
type Config struct {
	Provider      ProviderConfig      `yaml:"provider"`
	Docs          DocsConfig          `yaml:"docs"`
	Logging       LoggingConfig       `yaml:"logging"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ProviderConfig holds configuration for the completion backend.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"` // Optional custom endpoint (e.g., for proxies or Ollama)
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DocsConfig holds configuration for the documentation agent.
type DocsConfig struct {
	Language   string `yaml:"language"`    // python, java
	WorkingDir string `yaml:"working_dir"` // where reports are written
	ReportFile string `yaml:"report_file"`
	UsageFile  string `yaml:"usage_file"`

	// QualityFile receives the software quality assessments.
	QualityFile string `yaml:"quality_file"`

	// PromptsDir optionally overrides the built-in prompt templates with
	// same-named files from a directory.
	PromptsDir  string `yaml:"prompts_dir,omitempty"`
	Concurrency int    `yaml:"concurrency"` // files documented in parallel
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// CacheConfig holds configuration for the prompt response cache.
type CacheConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Backend           string `yaml:"backend"` // disk, sqlite, redis, memory
	Dir               string `yaml:"dir"`
	MemoryTier        bool   `yaml:"memory_tier"` // keep a hot in-memory copy in front of the backend
	KeyIncludesModel  bool   `yaml:"key_includes_model"`
	KeyVersion        string `yaml:"key_version,omitempty"`
	NormalizeWrappers bool   `yaml:"normalize_wrappers"`
	RedisURL          string `yaml:"redis_url,omitempty"`
	RedisPrefix       string `yaml:"redis_prefix,omitempty"`
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// Cache backends.
const (
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Default configuration values.
const (
	DefaultModel       = "gpt-4-turbo"
	DefaultTemperature = 0.0
	DefaultMaxTokens   = 4096
	DefaultTimeout     = 60 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	DefaultLanguage    = "python"
	DefaultWorkingDir  = "./.tmp"
	DefaultReportFile  = "docs.json"
	DefaultUsageFile   = "observer.json"
	DefaultQualityFile = "swq_output.json"
	DefaultConcurrency = 1

	// Cache defaults
	DefaultCacheEnabled     = true
	DefaultCacheBackend     = BackendDisk
	DefaultCacheDir         = "./.tmp/cache"
	DefaultCacheMemoryTier  = false
	DefaultKeyIncludesModel = true
	DefaultRedisPrefix      = "docsmith"

	// Observability defaults
	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "docsmith"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// Valid cache backends.
var validCacheBackends = map[string]bool{
	BackendDisk:   true,
	BackendSQLite: true,
	BackendRedis:  true,
	BackendMemory: true,
}

// Valid source languages.
var validLanguages = map[string]bool{
	"python": true,
	"java":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model:       DefaultModel,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			Timeout:     DefaultTimeout,
		},
		Docs: DocsConfig{
			Language:    DefaultLanguage,
			WorkingDir:  DefaultWorkingDir,
			ReportFile:  DefaultReportFile,
			UsageFile:   DefaultUsageFile,
			QualityFile: DefaultQualityFile,
			Concurrency: DefaultConcurrency,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Cache: CacheConfig{
			Enabled:          DefaultCacheEnabled,
			Backend:          DefaultCacheBackend,
			Dir:              DefaultCacheDir,
			MemoryTier:       DefaultCacheMemoryTier,
			KeyIncludesModel: DefaultKeyIncludesModel,
			RedisPrefix:      DefaultRedisPrefix,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Provider.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("provider: %w", err))
	}

	if err := c.Docs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("docs: %w", err))
	}

	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ProviderConfig is valid. A missing API key is not an
// error here: a fully cached run never reaches the provider.
func (p *ProviderConfig) Validate() error {
	var errs []error

	if p.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}

	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be between 0.0 and 2.0"))
	}

	if p.MaxTokens < 0 {
		errs = append(errs, errors.New("max_tokens must be non-negative"))
	}

	if p.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	if p.BaseURL != "" {
		parsedURL, err := url.Parse(p.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid base_url: %w", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, errors.New("base_url must use http or https scheme"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the DocsConfig is valid.
func (d *DocsConfig) Validate() error {
	var errs []error

	if !validLanguages[d.Language] {
		errs = append(errs, fmt.Errorf("unsupported language %q: must be one of python, java", d.Language))
	}
	if d.WorkingDir == "" {
		errs = append(errs, errors.New("working_dir is required"))
	}
	if d.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the CacheConfig is valid.
func (c *CacheConfig) Validate() error {
	var errs []error

	if c.Enabled {
		if !validCacheBackends[c.Backend] {
			errs = append(errs, fmt.Errorf("invalid backend %q: must be one of disk, sqlite, redis, memory", c.Backend))
		}
		if (c.Backend == BackendDisk || c.Backend == BackendSQLite) && c.Dir == "" {
			errs = append(errs, errors.New("dir is required for disk and sqlite backends"))
		}
		if c.Backend == BackendRedis && c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for the redis backend"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ObservabilityConfig is valid.
func (o *ObservabilityConfig) Validate() error {
	if err := o.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
