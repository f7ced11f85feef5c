package ratelimit

import (
	"strings"

	"github.com/onelinediary/server/internal/config"
)

const defaultRedisPrefix = "diary:rl"

// SettingsConfig captures the limits and the optional Redis backend.
type SettingsConfig struct {
	AuthLimit     int
	WebhookLimit  int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig normalizes the application rate limit config.
func SettingsFromConfig(cfg config.RateLimitConfig) SettingsConfig {
	out := SettingsConfig{
		AuthLimit:     cfg.AuthLimit,
		WebhookLimit:  cfg.WebhookLimit,
		RedisEnabled:  cfg.RedisEnabled,
		RedisAddr:     strings.TrimSpace(cfg.RedisAddr),
		RedisPassword: strings.TrimSpace(cfg.RedisPassword),
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   strings.TrimSpace(cfg.RedisPrefix),
	}
	if out.RedisPrefix == "" {
		out.RedisPrefix = defaultRedisPrefix
	}
	if out.RedisDB < 0 {
		out.RedisDB = 0
	}
	if out.AuthLimit < 0 {
		out.AuthLimit = 0
	}
	if out.WebhookLimit < 0 {
		out.WebhookLimit = 0
	}
	return out
}

// StaticSettings returns a provider that always yields cfg.
func StaticSettings(cfg SettingsConfig) SettingsProvider {
	return func() SettingsConfig { return cfg }
}
