// Package config defines the top-level configuration for the tunemarket
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TUNEMARKET_* environment
// variables.
type Config struct {
	Marketplace MarketplaceConfig `toml:"marketplace"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Server      ServerConfig      `toml:"server"`
	Archive     ArchiveConfig     `toml:"archive"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// MarketplaceConfig holds the settlement parameters: who administers the
// fee, where fee proceeds go, and the fee itself in basis points.
type MarketplaceConfig struct {
	AdminAddress string `toml:"admin_address"`
	FeeRecipient string `toml:"fee_recipient"`
	FeeBps       int64  `toml:"fee_bps"`
}

// Admin returns the parsed admin address.
func (m MarketplaceConfig) Admin() common.Address {
	return common.HexToAddress(m.AdminAddress)
}

// Recipient returns the parsed fee recipient, defaulting to the admin
// address when unset.
func (m MarketplaceConfig) Recipient() common.Address {
	if strings.TrimSpace(m.FeeRecipient) == "" {
		return m.Admin()
	}
	return common.HexToAddress(m.FeeRecipient)
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// S3Config holds S3-compatible object storage parameters for the content
// store and the event archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP/WebSocket API parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey gates read endpoints when set; mutating endpoints always
	// require a caller signature regardless.
	APIKey string `toml:"api_key"`
	// RateLimitPerMinute is the per-caller sliding window limit. Zero
	// disables rate limiting.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
	// MaxClockSkew bounds the age of signed request timestamps.
	MaxClockSkew duration `toml:"max_clock_skew"`
	// MaxUploadBytes caps content uploads.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

// ArchiveConfig holds event-archival worker parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetentionDays int      `toml:"retention_days"`
	Prefix        string   `toml:"prefix"`
	BatchSize     int      `toml:"batch_size"`
}

// NotifyConfig holds notification channel credentials and the event-type
// filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML values like "30s" decode directly.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration used as the base layer before
// TOML and environment overrides are applied.
func Defaults() Config {
	return Config{
		Marketplace: MarketplaceConfig{
			FeeBps: 250,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "tunemarket",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			PoolSize:        10,
			MaxRetries:      3,
			CacheTTLMinutes: 10,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Server: ServerConfig{
			Port:               8080,
			RateLimitPerMinute: 120,
			MaxClockSkew:       duration{5 * time.Minute},
			MaxUploadBytes:     32 << 20,
		},
		Archive: ArchiveConfig{
			Interval:      duration{1 * time.Hour},
			RetentionDays: 30,
			Prefix:        "events",
			BatchSize:     1000,
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency. It should be
// called once after Load.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "serve", "migrate":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if strings.TrimSpace(c.Marketplace.AdminAddress) == "" {
		return fmt.Errorf("config: marketplace.admin_address is required")
	}
	if !common.IsHexAddress(c.Marketplace.AdminAddress) {
		return fmt.Errorf("config: marketplace.admin_address %q is not a hex address", c.Marketplace.AdminAddress)
	}
	if c.Marketplace.FeeRecipient != "" && !common.IsHexAddress(c.Marketplace.FeeRecipient) {
		return fmt.Errorf("config: marketplace.fee_recipient %q is not a hex address", c.Marketplace.FeeRecipient)
	}
	if c.Marketplace.FeeBps < 0 || c.Marketplace.FeeBps > 10000 {
		return fmt.Errorf("config: marketplace.fee_bps %d out of range [0,10000]", c.Marketplace.FeeBps)
	}

	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "") {
		return fmt.Errorf("config: postgres requires dsn or host/database/user")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: server.max_upload_bytes must be positive")
	}

	if c.Archive.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: archive requires s3.bucket")
		}
		if c.Archive.Interval.Duration <= 0 {
			return fmt.Errorf("config: archive.interval must be positive")
		}
		if c.Archive.RetentionDays <= 0 {
			return fmt.Errorf("config: archive.retention_days must be positive")
		}
	}

	return nil
}
