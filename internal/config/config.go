package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvPort         = "PORT"
	EnvBaseURL      = "APP_BASE_URL"
	EnvTimezone     = "APP_TIMEZONE"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvStripePriceID       = "STRIPE_PRICE_ID"

	EnvIamportAccessToken = "IMP_ACCESS_TOKEN"
	EnvIamportKey         = "IMP_KEY"
	EnvIamportSecret      = "IMP_SECRET"

	EnvTossSecretKey = "TOSS_SECRET_KEY"
	EnvTossClientKey = "TOSS_CLIENT_KEY"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"

	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

const (
	defaultPort           = 3000
	defaultTimezone       = "Asia/Seoul"
	defaultIamportAPIURL  = "https://api.iamport.kr"
	defaultTossAPIURL     = "https://api.tosspayments.com"
	defaultAuthRateLimit  = 5
	defaultHookRateLimit  = 20
	defaultRedisKeyPrefix = "diary:rl"
)

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

var (
	// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
	ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database.dsn` in config file or DB_CONNECTION)")
	// ErrMissingJWTSecret indicates no session signing secret was configured.
	ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string `yaml:"-"`

	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Timezone  string          `yaml:"timezone"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Iamport   IamportConfig   `yaml:"iamport"`
	Toss      TossConfig      `yaml:"toss"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	BaseURL     string   `yaml:"base-url"`
	CORSOrigins []string `yaml:"cors-origins"`
}

// DatabaseConfig holds the connection string.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// StripeConfig holds Stripe API credentials.
type StripeConfig struct {
	SecretKey     string `yaml:"secret-key"`
	WebhookSecret string `yaml:"webhook-secret"`
	PriceID       string `yaml:"price-id"`
}

// Enabled reports whether checkout and webhooks can be served.
func (c StripeConfig) Enabled() bool {
	return strings.TrimSpace(c.SecretKey) != "" && strings.TrimSpace(c.WebhookSecret) != ""
}

// IamportConfig holds Iamport REST API credentials.
type IamportConfig struct {
	APIURL      string `yaml:"api-url"`
	AccessToken string `yaml:"access-token"`
	APIKey      string `yaml:"api-key"`
	APISecret   string `yaml:"api-secret"`
}

// Enabled reports whether payment lookups can be authenticated.
func (c IamportConfig) Enabled() bool {
	if strings.TrimSpace(c.AccessToken) != "" {
		return true
	}
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.APISecret) != ""
}

// TossConfig holds Toss Payments credentials.
type TossConfig struct {
	APIURL    string `yaml:"api-url"`
	SecretKey string `yaml:"secret-key"`
	ClientKey string `yaml:"client-key"`
}

// Enabled reports whether payment lookups can be authenticated.
func (c TossConfig) Enabled() bool {
	return strings.TrimSpace(c.SecretKey) != ""
}

// RateLimitConfig holds per-second request limits and the optional Redis backend.
type RateLimitConfig struct {
	AuthLimit     int    `yaml:"auth-limit"`
	WebhookLimit  int    `yaml:"webhook-limit"`
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// LoggingConfig selects logrus level and formatter.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML file at configPath (a missing file is allowed), applies
// environment overrides and defaults, and validates required values.
func Load(configPath string) (AppConfig, error) {
	cfg := AppConfig{}
	data, errRead := os.ReadFile(configPath)
	if errRead != nil && !errors.Is(errRead, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("read config file: %w", errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	}
	cfg.ConfigPath = configPath

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return AppConfig{}, ErrMissingDatabaseDSN
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return AppConfig{}, ErrMissingJWTSecret
	}
	if _, errLoc := time.LoadLocation(cfg.Timezone); errLoc != nil {
		return AppConfig{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, errLoc)
	}
	return cfg, nil
}

// Location returns the calendar location used for day and month boundaries.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || c.Timezone == "" {
		loc, err = time.LoadLocation(defaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.Database.DSN, EnvDBConnection)
	setString(&cfg.JWT.Secret, EnvJWTSecret)
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			cfg.JWT.Expiry = expiry
		}
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvPort)); portRaw != "" {
		if port, errParse := strconv.Atoi(portRaw); errParse == nil {
			cfg.Server.Port = port
		}
	}
	setString(&cfg.Server.BaseURL, EnvBaseURL)
	setString(&cfg.Timezone, EnvTimezone)

	setString(&cfg.Stripe.SecretKey, EnvStripeSecretKey)
	setString(&cfg.Stripe.WebhookSecret, EnvStripeWebhookSecret)
	setString(&cfg.Stripe.PriceID, EnvStripePriceID)

	setString(&cfg.Iamport.AccessToken, EnvIamportAccessToken)
	setString(&cfg.Iamport.APIKey, EnvIamportKey)
	setString(&cfg.Iamport.APISecret, EnvIamportSecret)

	setString(&cfg.Toss.SecretKey, EnvTossSecretKey)
	setString(&cfg.Toss.ClientKey, EnvTossClientKey)

	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		cfg.RateLimit.RedisAddr = addr
		cfg.RateLimit.RedisEnabled = true
	}
	setString(&cfg.RateLimit.RedisPassword, EnvRedisPassword)

	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = defaultPort
	}
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = defaultJWTExpiry
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = defaultTimezone
	}
	if strings.TrimSpace(cfg.Iamport.APIURL) == "" {
		cfg.Iamport.APIURL = defaultIamportAPIURL
	}
	if strings.TrimSpace(cfg.Toss.APIURL) == "" {
		cfg.Toss.APIURL = defaultTossAPIURL
	}
	if cfg.RateLimit.AuthLimit == 0 {
		cfg.RateLimit.AuthLimit = defaultAuthRateLimit
	}
	if cfg.RateLimit.WebhookLimit == 0 {
		cfg.RateLimit.WebhookLimit = defaultHookRateLimit
	}
	if strings.TrimSpace(cfg.RateLimit.RedisPrefix) == "" {
		cfg.RateLimit.RedisPrefix = defaultRedisKeyPrefix
	}
	if cfg.RateLimit.RedisDB < 0 {
		cfg.RateLimit.RedisDB = 0
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = "text"
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}
