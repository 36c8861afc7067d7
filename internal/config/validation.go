package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError describes a single config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for a single validation error.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Validate checks the Config for completeness and consistency. It returns a
// slice of all discovered issues rather than stopping at the first one.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	// --- API ---
	if msg := checkURL(cfg.API.BaseURL); msg != "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: msg})
	}
	if cfg.API.Timeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout",
			Message: fmt.Sprintf("must be > 0, got %s", cfg.API.Timeout),
		})
	}
	if cfg.API.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.rate_limit",
			Message: fmt.Sprintf("must be >= 0, got %g", cfg.API.RateLimit),
		})
	}
	if cfg.API.RateLimit > 0 && cfg.API.Burst < 1 {
		errs = append(errs, ValidationError{
			Field:   "api.burst",
			Message: fmt.Sprintf("must be >= 1 when rate_limit is set, got %d", cfg.API.Burst),
		})
	}

	// --- Profiles ---
	if cfg.ActiveProfile != "" {
		if _, ok := cfg.Profiles[cfg.ActiveProfile]; !ok {
			errs = append(errs, ValidationError{
				Field:   "active_profile",
				Message: fmt.Sprintf("references undefined profile %q", cfg.ActiveProfile),
			})
		}
	}
	for _, name := range sortedProfileNames(cfg.Profiles) {
		if msg := checkURL(cfg.Profiles[name].BaseURL); msg != "" {
			errs = append(errs, ValidationError{Field: "profiles." + name + ".base_url", Message: msg})
		}
	}

	// --- Auth ---
	if cfg.Auth.Persistent && cfg.Auth.SessionFile == "" {
		errs = append(errs, ValidationError{Field: "auth.session_file", Message: "required when auth.persistent is true"})
	}

	// --- Draft ---
	switch cfg.Draft.Backend {
	case BackendFile:
		if cfg.Draft.Dir == "" {
			errs = append(errs, ValidationError{Field: "draft.dir", Message: "required for the file backend"})
		}
	case BackendRedis:
		if cfg.Draft.RedisAddr == "" {
			errs = append(errs, ValidationError{Field: "draft.redis_addr", Message: "required for the redis backend"})
		}
		if cfg.Draft.RedisDB < 0 {
			errs = append(errs, ValidationError{
				Field:   "draft.redis_db",
				Message: fmt.Sprintf("must be >= 0, got %d", cfg.Draft.RedisDB),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "draft.backend",
			Message: fmt.Sprintf("must be %q or %q, got %q", BackendFile, BackendRedis, cfg.Draft.Backend),
		})
	}
	if cfg.Draft.Debounce <= 0 || cfg.Draft.Debounce > time.Minute {
		errs = append(errs, ValidationError{
			Field:   "draft.debounce",
			Message: fmt.Sprintf("must be in (0, 1m], got %s", cfg.Draft.Debounce),
		})
	}
	if cfg.Draft.TTL < 0 {
		errs = append(errs, ValidationError{
			Field:   "draft.ttl",
			Message: fmt.Sprintf("must be >= 0, got %s", cfg.Draft.TTL),
		})
	}

	// --- Log ---
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Log.Level),
		})
	}
	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("must be console or json, got %q", cfg.Log.Format),
		})
	}

	return errs
}

func checkURL(raw string) string {
	if raw == "" {
		return "required field is empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}
