package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvUseCache    = "USE_CACHE"
	EnvCacheDir    = "CACHE_DIR"
	EnvWorkingDir  = "WORKING_DIR"
	EnvModelName   = "LLM_MODEL_NAME"
	EnvTemperature = "LLM_TEMPERATURE"
	EnvMaxLength   = "LLM_MAX_LENGTH"
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvAPIBase     = "OPENAI_API_BASE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvRedisURL    = "REDIS_URL"
)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables from the process onto cfg.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvFrom(cfg, os.LookupEnv)
}

// ApplyEnvFrom overlays environment variables resolved by lookup onto cfg.
// Unset variables leave the file or default value in place.
func ApplyEnvFrom(cfg *Config, lookup LookupFunc) error {
	var errs []error

	if v, ok := lookup(EnvUseCache); ok {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		cfg.Cache.Dir = v
	}
	if v, ok := lookup(EnvWorkingDir); ok && v != "" {
		cfg.Docs.WorkingDir = v
	}
	if v, ok := lookup(EnvModelName); ok && v != "" {
		cfg.Provider.Model = v
	}
	if v, ok := lookup(EnvTemperature); ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTemperature, err))
		} else {
			cfg.Provider.Temperature = t
		}
	}
	if v, ok := lookup(EnvMaxLength); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxLength, err))
		} else {
			cfg.Provider.MaxTokens = n
		}
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.Provider.APIKey = v
	}
	if v, ok := lookup(EnvAPIBase); ok && v != "" {
		cfg.Provider.BaseURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		cfg.Cache.RedisURL = v
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// parseBool accepts "true" and "1" (any case) as true; everything else is false.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true
	default:
		return false
	}
}
