package config

import (
	"strings"
	"time"
)

// SessionConfig controls session cookie lifetimes and scope.
type SessionConfig struct {
	// UserMaxAge is the lifetime of the user "token" cookie.
	UserMaxAge time.Duration `env:"USER_MAX_AGE" envDefault:"168h"`

	// AdminMaxAge is the lifetime of the "admin_token" and "admin_permissions" cookies.
	AdminMaxAge time.Duration `env:"ADMIN_MAX_AGE" envDefault:"2h"`

	// AdminCookiePath scopes the admin cookies. Anything other than "/" hides
	// the admin session from the root and user zones.
	AdminCookiePath string `env:"ADMIN_COOKIE_PATH" envDefault:"/"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.UserMaxAge <= 0 {
		s.UserMaxAge = 7 * 24 * time.Hour
	}
	if s.AdminMaxAge <= 0 {
		s.AdminMaxAge = 2 * time.Hour
	}
	s.AdminCookiePath = strings.TrimSpace(s.AdminCookiePath)
	if !strings.HasPrefix(s.AdminCookiePath, "/") {
		s.AdminCookiePath = "/" + s.AdminCookiePath
	}
}

// AdminPathScoped reports whether admin cookies are limited to a sub-path.
func (s *SessionConfig) AdminPathScoped() bool {
	return s.AdminCookiePath != "/"
}

// RateLimitConfig controls the login attempt limiter.
type RateLimitConfig struct {
	Enabled       bool          `env:"ENABLED"        envDefault:"true"`
	LoginAttempts int           `env:"LOGIN_ATTEMPTS" envDefault:"10"`
	LoginWindow   time.Duration `env:"LOGIN_WINDOW"   envDefault:"1m"`
}

// Sanitize applies guardrails. The limiter needs Redis; without it the
// limiter is disabled.
func (r *RateLimitConfig) Sanitize(redisAvailable bool) {
	if r.LoginAttempts <= 0 {
		r.LoginAttempts = 10
	}
	if r.LoginWindow < time.Second {
		r.LoginWindow = time.Minute
	}
	if !redisAvailable {
		r.Enabled = false
	}
}
