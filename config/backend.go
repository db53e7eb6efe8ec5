package config

import (
	"strings"
	"time"
)

const (
	minBackendTimeout     = time.Second
	maxBackendTimeout     = 60 * time.Second
	defaultBackendTimeout = 10 * time.Second
	defaultBackendURL     = "http://localhost:8000"
	defaultUserVerifyPath = "/api/v1/auth/verify-token"
)

// BackendConfig describes how to reach the storefront REST backend.
type BackendConfig struct {
	// BaseURL is the backend origin, without a trailing slash.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	// Timeout bounds every outbound call. Clamped to [1s, 60s].
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// UserVerifyPath is the endpoint used to verify user session tokens.
	UserVerifyPath string `env:"USER_VERIFY_PATH" envDefault:"/api/v1/auth/verify-token"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.BaseURL == "" {
		b.BaseURL = defaultBackendURL
	}

	switch {
	case b.Timeout <= 0:
		b.Timeout = defaultBackendTimeout
	case b.Timeout < minBackendTimeout:
		b.Timeout = minBackendTimeout
	case b.Timeout > maxBackendTimeout:
		b.Timeout = maxBackendTimeout
	}

	b.UserVerifyPath = strings.TrimSpace(b.UserVerifyPath)
	if b.UserVerifyPath == "" {
		b.UserVerifyPath = defaultUserVerifyPath
	}
	if !strings.HasPrefix(b.UserVerifyPath, "/") {
		b.UserVerifyPath = "/" + b.UserVerifyPath
	}
}
