package config

import (
	"strings"
)

// Environment names accepted by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - backend.go: Storefront backend client configuration
//   - session.go: Session cookie and login rate limit configuration
//   - database.go: Redis configuration
//   - http.go: HTTP server configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// Env selects cookie security defaults. Anything other than "production"
	// is treated as development.
	Env string `env:"APP_ENV" envDefault:"development"`

	// IsDev is derived from Env by Sanitize.
	IsDev bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Storefront backend configuration
	Backend BackendConfig `envPrefix:"BACKEND_"`

	// Session cookie configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Login rate limiting
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Redis configuration (rate limiter storage)
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != EnvProduction {
		c.Env = EnvDevelopment
	}
	c.IsDev = c.Env == EnvDevelopment

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Session.Sanitize()
	c.Redis.Sanitize()
	c.RateLimit.Sanitize(c.Redis.Enabled())
	c.Observability.Sanitize()
}

// IsProduction reports whether the service runs with production defaults.
func (c *AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}
