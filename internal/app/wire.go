package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tunemarket/tunemarket/internal/cache/redis"
	"github.com/tunemarket/tunemarket/internal/config"
	s3content "github.com/tunemarket/tunemarket/internal/content/s3"
	"github.com/tunemarket/tunemarket/internal/domain"
	"github.com/tunemarket/tunemarket/internal/notify"
	"github.com/tunemarket/tunemarket/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Postgres client, kept for migrate mode.
	Postgres *postgres.Client

	// Stores
	AssetStore      domain.AssetStore
	ListingStore    domain.ListingStore
	ReceiptStore    domain.ReceiptStore
	EventStore      domain.EventStore
	BalanceStore    domain.BalanceStore
	SettlementStore domain.SettlementStore

	// Caches
	AssetCache   domain.AssetCache
	ListingCache domain.ListingCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Content storage. Nil when no S3 bucket is configured.
	ContentStore  domain.ContentStore
	ArchiveWriter domain.ArchiveWriter

	// Notifications. Nil when no sender is configured.
	Notifier *notify.Notifier
}

// needsRedis returns true for modes that require Redis.
func needsRedis(mode string) bool {
	return mode == "serve"
}

// needsS3 returns true when object storage should be wired. The content
// endpoints and the event archive both need a bucket.
func needsS3(cfg *config.Config) bool {
	return cfg.Mode == "serve" && strings.TrimSpace(cfg.S3.Bucket) != ""
}

// Wire constructs the concrete dependency implementations from the
// configuration and returns them with a cleanup function to be called on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.Postgres = pgClient

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.AssetStore = postgres.NewAssetStore(pool)
	deps.ListingStore = postgres.NewListingStore(pool)
	deps.ReceiptStore = postgres.NewReceiptStore(pool)
	deps.EventStore = postgres.NewEventStore(pool)
	deps.BalanceStore = postgres.NewBalanceStore(pool)
	deps.SettlementStore = postgres.NewSettlementStore(pool)

	// --- Redis ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cacheTTL := time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		deps.AssetCache = redis.NewAssetCache(redisClient, cacheTTL)
		deps.ListingCache = redis.NewListingCache(redisClient, time.Minute)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 content storage ---
	if needsS3(cfg) {
		s3Client, err := s3content.New(ctx, s3content.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.ContentStore = s3content.NewStore(s3Client)
		deps.ArchiveWriter = s3content.NewArchive(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
