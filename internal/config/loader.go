package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TUNEMARKET_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TUNEMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Marketplace ──
	setStr(&cfg.Marketplace.AdminAddress, "TUNEMARKET_MARKETPLACE_ADMIN_ADDRESS")
	setStr(&cfg.Marketplace.FeeRecipient, "TUNEMARKET_MARKETPLACE_FEE_RECIPIENT")
	setInt64(&cfg.Marketplace.FeeBps, "TUNEMARKET_MARKETPLACE_FEE_BPS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TUNEMARKET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TUNEMARKET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TUNEMARKET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TUNEMARKET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TUNEMARKET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TUNEMARKET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TUNEMARKET_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TUNEMARKET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TUNEMARKET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TUNEMARKET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TUNEMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TUNEMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TUNEMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TUNEMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TUNEMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TUNEMARKET_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "TUNEMARKET_REDIS_CACHE_TTL_MINUTES")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TUNEMARKET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TUNEMARKET_S3_REGION")
	setStr(&cfg.S3.Bucket, "TUNEMARKET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TUNEMARKET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TUNEMARKET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TUNEMARKET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TUNEMARKET_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "TUNEMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TUNEMARKET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "TUNEMARKET_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitPerMinute, "TUNEMARKET_SERVER_RATE_LIMIT_PER_MINUTE")
	setDuration(&cfg.Server.MaxClockSkew, "TUNEMARKET_SERVER_MAX_CLOCK_SKEW")
	setInt64(&cfg.Server.MaxUploadBytes, "TUNEMARKET_SERVER_MAX_UPLOAD_BYTES")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "TUNEMARKET_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "TUNEMARKET_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "TUNEMARKET_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Prefix, "TUNEMARKET_ARCHIVE_PREFIX")
	setInt(&cfg.Archive.BatchSize, "TUNEMARKET_ARCHIVE_BATCH_SIZE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TUNEMARKET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TUNEMARKET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TUNEMARKET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TUNEMARKET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TUNEMARKET_MODE")
	setStr(&cfg.LogLevel, "TUNEMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
