package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tunemarket/tunemarket/internal/pipeline"
	"github.com/tunemarket/tunemarket/internal/server"
	"github.com/tunemarket/tunemarket/internal/server/handler"
	"github.com/tunemarket/tunemarket/internal/server/ws"
	"github.com/tunemarket/tunemarket/internal/service"
)

// ServeMode runs the marketplace API: the HTTP/WebSocket server plus the
// background workers (event archiver, notification bridge). It blocks
// until the context is cancelled or a worker fails.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	startedAt := time.Now().UTC()
	g, ctx := errgroup.WithContext(ctx)

	// Build services.
	events := service.NewEvents(deps.EventStore, deps.SignalBus, a.logger)
	assetSvc := service.NewAssetService(deps.AssetStore, deps.AssetCache, events, a.logger)
	listingSvc := service.NewListingService(deps.ListingStore, deps.AssetStore, deps.ListingCache, events, a.logger)
	settlementSvc := service.NewSettlementService(
		deps.AssetStore,
		deps.ListingStore,
		deps.SettlementStore,
		deps.LockManager,
		deps.AssetCache,
		deps.ListingCache,
		events,
		service.SettlementConfig{
			Admin:        a.cfg.Marketplace.Admin(),
			FeeRecipient: a.cfg.Marketplace.Recipient(),
			FeeBps:       a.cfg.Marketplace.FeeBps,
		},
		a.logger,
	)

	// Build handlers.
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(
			a.cfg.Mode,
			a.cfg.Marketplace.Admin().Hex(),
			startedAt,
			settlementSvc,
			assetSvc,
			a.logger,
		),
		Assets:    handler.NewAssetHandler(assetSvc, a.logger),
		Listings:  handler.NewListingHandler(listingSvc, a.logger),
		Purchases: handler.NewPurchaseHandler(settlementSvc, deps.ReceiptStore, a.logger),
		Fee:       handler.NewFeeHandler(settlementSvc, a.logger),
		Balances:  handler.NewBalanceHandler(deps.BalanceStore, a.logger),
		Events:    handler.NewEventHandler(deps.EventStore, a.logger),
	}
	if deps.ContentStore != nil {
		contentSvc := service.NewContentService(deps.ContentStore, a.logger)
		handlers.Content = handler.NewContentHandler(contentSvc, a.cfg.Server.MaxUploadBytes, a.logger)
	}

	// WebSocket hub.
	wsHub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: startedAt,
	})
	g.Go(func() error {
		return wsHub.Run(ctx)
	})

	// HTTP server.
	srv := server.NewServer(server.Config{
		Port:               a.cfg.Server.Port,
		CORSOrigins:        a.cfg.Server.CORSOrigins,
		APIKey:             a.cfg.Server.APIKey,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
		MaxClockSkew:       a.cfg.Server.MaxClockSkew.Duration,
	}, handlers, deps.RateLimiter, wsHub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Event archiver.
	if a.cfg.Archive.Enabled && deps.ArchiveWriter != nil {
		archiver := pipeline.NewArchiver(deps.EventStore, deps.ArchiveWriter, pipeline.ArchiverConfig{
			RetentionDays: a.cfg.Archive.RetentionDays,
			BatchSize:     a.cfg.Archive.BatchSize,
			Prefix:        a.cfg.Archive.Prefix,
		}, a.logger)
		g.Go(func() error {
			return archiver.RunPeriodic(ctx, a.cfg.Archive.Interval.Duration)
		})
	}

	// Notification bridge.
	if deps.Notifier != nil {
		bridge := pipeline.NewNotifyBridge(deps.SignalBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return bridge.Run(ctx)
		})
	}

	return g.Wait()
}

// MigrateMode applies pending database migrations and exits.
func (a *App) MigrateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting migrate mode")

	if err := deps.Postgres.RunMigrations(ctx); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "migrations complete")
	return nil
}
