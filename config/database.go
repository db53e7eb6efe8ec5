package config

import "strings"

// RedisConfig contains Redis configuration. An empty URI disables Redis.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// Sanitize trims connection values.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	if r.DB < 0 {
		r.DB = 0
	}
}

// Enabled reports whether a Redis endpoint was configured.
func (r *RedisConfig) Enabled() bool {
	return r.URI != ""
}
