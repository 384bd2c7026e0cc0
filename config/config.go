package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the variable pointing at an optional YAML config file.
const FileEnv = "MATCHUPS_CONFIG_FILE"

var ErrInvalidConfig = errors.New("invalid config")

// Config holds every setting of the service. Keys match the environment
// variable names lowercased, so DATABASE_URL sets database_url.
type Config struct {
	DatabaseURL  string `koanf:"database_url"`
	JWTSecretKey string `koanf:"jwt_secret_key"`
	ServerPort   int    `koanf:"server_port"`
	LogLevel     string `koanf:"log_level"`
	PublicURL    string `koanf:"public_url"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	MatchupStrategy  string        `koanf:"matchup_strategy"`
	ReminderInterval time.Duration `koanf:"reminder_interval"`

	R2AccountID       string `koanf:"r2_account_id"`
	R2AccessKeyID     string `koanf:"r2_access_key_id"`
	R2SecretAccessKey string `koanf:"r2_secret_access_key"`
	R2BucketName      string `koanf:"r2_bucket_name"`
	R2PublicBaseURL   string `koanf:"r2_public_base_url"`

	SMTPHost         string `koanf:"smtp_host"`
	SMTPPort         int    `koanf:"smtp_port"`
	SMTPUser         string `koanf:"smtp_user"`
	SMTPPass         string `koanf:"smtp_pass"`
	SMTPFrom         string `koanf:"smtp_from"`
	BackupEmail      string `koanf:"backup_email"`
	EmailConcurrency int    `koanf:"email_concurrency"`
}

// Defaults returns the configuration used when nothing overrides a key.
func Defaults() *Config {
	return &Config{
		ServerPort:         8080,
		LogLevel:           "info",
		PublicURL:          "http://localhost:5173",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		MatchupStrategy:    "circulant",
		ReminderInterval:   5 * time.Minute,
		SMTPPort:           587,
		EmailConcurrency:   4,
	}
}

// Load layers defaults, an optional YAML file and the environment, in that
// order. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cfg := Defaults()
	known := make(map[string]bool)
	for _, key := range keys {
		known[key] = true
	}
	envProvider := env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !known[key] {
			return ""
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Environment values are plain strings; lists are comma separated.
	decoder := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:           cfg,
		WeaklyTypedInput: true,
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", DecoderConfig: decoder}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var keys = []string{
	"database_url", "jwt_secret_key", "server_port", "log_level", "public_url",
	"cors_allowed_origins", "matchup_strategy", "reminder_interval",
	"r2_account_id", "r2_access_key_id", "r2_secret_access_key", "r2_bucket_name", "r2_public_base_url",
	"smtp_host", "smtp_port", "smtp_user", "smtp_pass", "smtp_from", "backup_email", "email_concurrency",
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is not set", ErrInvalidConfig)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("%w: JWT_SECRET_KEY is not set", ErrInvalidConfig)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: SERVER_PORT must be between 1 and 65535, got %d", ErrInvalidConfig, c.ServerPort)
	}
	switch strings.ToLower(c.MatchupStrategy) {
	case "circulant", "greedy":
	default:
		return fmt.Errorf("%w: MATCHUP_STRATEGY must be circulant or greedy, got %q", ErrInvalidConfig, c.MatchupStrategy)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("%w: REMINDER_INTERVAL must be positive", ErrInvalidConfig)
	}
	origins := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
	if c.EmailConcurrency < 1 {
		c.EmailConcurrency = 1
	}
	return nil
}

// R2Enabled reports whether avatar uploads are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// SMTPEnabled reports whether outgoing email is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
