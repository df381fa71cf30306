// Package logging provides structured logging infrastructure for the docsmith application.
// It wraps Go's standard log/slog package with context-aware logging, run IDs,
// and domain-specific log attributes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// RunIDKey is the context key for the ID of one pipeline run.
	RunIDKey contextKey = "run_id"
	// FileKey is the context key for the source file being documented.
	FileKey contextKey = "file"
	// SymbolKey is the context key for the class or function being documented.
	SymbolKey contextKey = "symbol"
	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for docsmith.
type Logger struct {
	slogger *slog.Logger
}

// ParseLevel parses a configured level name. The empty string is info.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "warning":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Config{Output: io.Discard, Level: LevelError})
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{slogger: slog.New(handler)}
}

// parseLevel converts a Level to slog.Level.
func parseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogger: l.slogger.With(args...)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// DebugContext logs at debug level with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, l.enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func (l *Logger) enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+8)

	if v := ctx.Value(RunIDKey); v != nil {
		enriched = append(enriched, "run_id", v)
	}
	if v := ctx.Value(FileKey); v != nil {
		enriched = append(enriched, "file", v)
	}
	if v := ctx.Value(SymbolKey); v != nil {
		enriched = append(enriched, "symbol", v)
	}
	if v := ctx.Value(ProviderKey); v != nil {
		enriched = append(enriched, "provider", v)
	}

	enriched = append(enriched, args...)
	return enriched
}

// --- Context helpers ---

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// WithFile adds the file being documented to the context.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, FileKey, path)
}

// WithSymbol adds the symbol being documented to the context.
func WithSymbol(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, SymbolKey, name)
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ProviderKey, name)
}

// RunID extracts the run ID from context.
func RunID(ctx context.Context) string {
	if v := ctx.Value(RunIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// File extracts the file being documented from context.
func File(ctx context.Context) string {
	s, _ := ctx.Value(FileKey).(string)
	return s
}

// Symbol extracts the symbol being documented from context.
func Symbol(ctx context.Context) string {
	s, _ := ctx.Value(SymbolKey).(string)
	return s
}

// --- Domain-specific logging helpers ---

// LogRunStart logs the start of a documentation run.
func LogRunStart(ctx context.Context, logger *Logger, project, language string, cacheEnabled bool) {
	logger.InfoContext(ctx, "documentation run started",
		"project", project,
		"language", language,
		"cache_enabled", cacheEnabled,
	)
}

// LogRunComplete logs the completion of a documentation run.
func LogRunComplete(ctx context.Context, logger *Logger, files int, duration time.Duration, hits, misses int64) {
	logger.InfoContext(ctx, "documentation run completed",
		"files", files,
		"duration_ms", duration.Milliseconds(),
		"cache_hits", hits,
		"cache_misses", misses,
	)
}

// LogRunFailed logs a failed documentation run.
func LogRunFailed(ctx context.Context, logger *Logger, err error, duration time.Duration) {
	logger.ErrorContext(ctx, "documentation run failed",
		"error", err.Error(),
		"duration_ms", duration.Milliseconds(),
	)
}

// LogProviderRequest logs an outgoing provider request.
func LogProviderRequest(ctx context.Context, logger *Logger, provider, model string, inputTokens int) {
	logger.DebugContext(ctx, "provider request",
		"provider", provider,
		"model", model,
		"input_tokens", inputTokens,
	)
}

// LogProviderResponse logs a provider response.
func LogProviderResponse(ctx context.Context, logger *Logger, provider, model string, outputTokens int, latency time.Duration) {
	logger.DebugContext(ctx, "provider response",
		"provider", provider,
		"model", model,
		"output_tokens", outputTokens,
		"latency_ms", latency.Milliseconds(),
	)
}

// LogCacheHit logs a cache hit.
func LogCacheHit(ctx context.Context, logger *Logger, fp string, savedTokens int) {
	logger.DebugContext(ctx, "cache hit",
		"fingerprint", fp,
		"saved_tokens", savedTokens,
	)
}

// LogCacheMiss logs a cache miss.
func LogCacheMiss(ctx context.Context, logger *Logger, fp string) {
	logger.DebugContext(ctx, "cache miss",
		"fingerprint", fp,
	)
}

// LogCacheStoreFailed logs a completion that was computed but not persisted.
func LogCacheStoreFailed(ctx context.Context, logger *Logger, fp string, err error) {
	logger.WarnContext(ctx, "cache store failed; completion returned uncached",
		"fingerprint", fp,
		"error", err.Error(),
	)
}

// LogCorruptEntry logs an unreadable entry that is being treated as a miss.
func LogCorruptEntry(ctx context.Context, logger *Logger, fp string, err error) {
	logger.WarnContext(ctx, "cache entry unreadable; treating as miss",
		"fingerprint", fp,
		"error", err.Error(),
	)
}

// LogCostIncurred logs when cost is incurred.
func LogCostIncurred(ctx context.Context, logger *Logger, model string, cost float64, inputTokens, outputTokens int) {
	logger.DebugContext(ctx, "cost incurred",
		"model", model,
		"cost_usd", cost,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
	)
}
