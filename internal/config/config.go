// Package config loads server configuration from the environment and from
// the optional config/services.yaml feature-toggle file.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the full server configuration.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`
	Environment string `env:"ENVIRONMENT,default=development"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	SupabaseURL        string `env:"SUPABASE_URL,required"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY,required"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	// SupabaseJWTSecret enables local token verification. When empty,
	// sessions are resolved against the auth provider instead.
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// AuditDatabaseURL is the direct Postgres DSN for the webhook audit
	// store. The table is service-side only and not behind RLS.
	AuditDatabaseURL string `env:"AUDIT_DATABASE_URL"`

	PushVAPIDPublicKey  string `env:"PUSH_VAPID_PUBLIC_KEY"`
	PushVAPIDPrivateKey string `env:"PUSH_VAPID_PRIVATE_KEY"`
	PushContact         string `env:"PUSH_CONTACT,default=mailto:praxis@example.de"`
	PushSharedSecret    string `env:"PUSH_SHARED_SECRET"`

	WebhookSharedSecret string `env:"WEBHOOK_SHARED_SECRET"`

	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`

	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND,default=20"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default=40"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
}

// Load reads .env (if present) and decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the server runs in a development environment.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "test"
}

// AllowedOrigins returns the configured CORS origins.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
