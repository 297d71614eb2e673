// Package server assembles the HTTP and WebSocket API for the marketplace.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tunemarket/tunemarket/internal/domain"
	"github.com/tunemarket/tunemarket/internal/server/handler"
	"github.com/tunemarket/tunemarket/internal/server/middleware"
	"github.com/tunemarket/tunemarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey gates the whole API when set; empty disables the check.
	APIKey string
	// RateLimitPerMinute is the per-caller sliding window limit. Zero
	// disables rate limiting.
	RateLimitPerMinute int
	// MaxClockSkew bounds the age of signed request timestamps.
	MaxClockSkew time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Assets    *handler.AssetHandler
	Listings  *handler.ListingHandler
	Purchases *handler.PurchaseHandler
	Fee       *handler.FeeHandler
	Content   *handler.ContentHandler
	Balances  *handler.BalanceHandler
	Events    *handler.EventHandler
}

// Server is the marketplace HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain wired: CORS, caller identity, request logging, rate limiting, and
// API-key auth.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health and status.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Asset registry.
	mux.HandleFunc("POST /api/assets", handlers.Assets.Mint)
	mux.HandleFunc("GET /api/assets", handlers.Assets.List)
	mux.HandleFunc("GET /api/assets/{id}", handlers.Assets.Get)
	mux.HandleFunc("GET /api/assets/{id}/royalty", handlers.Assets.Royalty)

	// Listing ledger.
	mux.HandleFunc("POST /api/listings", handlers.Listings.Create)
	mux.HandleFunc("GET /api/listings", handlers.Listings.ListActive)
	mux.HandleFunc("GET /api/listings/{assetID}", handlers.Listings.Get)
	mux.HandleFunc("DELETE /api/listings/{assetID}", handlers.Listings.Cancel)

	// Settlement.
	mux.HandleFunc("POST /api/purchases", handlers.Purchases.Buy)
	mux.HandleFunc("GET /api/purchases", handlers.Purchases.List)
	mux.HandleFunc("GET /api/purchases/{id}", handlers.Purchases.Get)
	mux.HandleFunc("GET /api/marketplace/fee", handlers.Fee.Get)
	mux.HandleFunc("PUT /api/marketplace/fee", handlers.Fee.Update)

	// Content store. Registered only when object storage is configured.
	if handlers.Content != nil {
		mux.HandleFunc("POST /api/content", handlers.Content.Upload)
		mux.HandleFunc("POST /api/content/metadata", handlers.Content.UploadMetadata)
		mux.HandleFunc("GET /api/content/{cid}", handlers.Content.Fetch)
	}

	// Balances.
	mux.HandleFunc("GET /api/balances/{address}", handlers.Balances.Get)
	mux.HandleFunc("POST /api/balances/deposit", handlers.Balances.Deposit)

	// Event log.
	mux.HandleFunc("GET /api/events", handlers.Events.List)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first. Identity runs before
	// logging and rate limiting so both see the verified caller.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.RateLimit(limiter, cfg.RateLimitPerMinute, time.Minute)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Identity(cfg.MaxClockSkew)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
