// Package main is the entry point for the storefront catalog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/router"
	"storefront/internal/search"
	"storefront/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL — the canonical catalog store.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache for filter options).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	filterCache := cache.NewFilterOptions(valkeyClient, cache.DefaultFilterTTL)

	// Initialize data stores.
	itemStore := store.NewItemStore(db)
	attributeStore := store.NewAttributeStore(db)
	categoryStore := store.NewCategoryStore(db)
	brandStore := store.NewBrandStore(db)

	// Typesense search client. The index is a derived replica: if it is
	// unreachable at startup the server still comes up, and documents catch
	// up on the next write or reindex.
	searchClient := search.NewTypesense(cfg.TypesenseURL, cfg.TypesenseAPIKey, cfg.TypesenseTimeout)

	syncer := catalog.NewSynchronizer(searchClient, itemStore, categoryStore, brandStore)
	{
		ctx, cancel := context.WithTimeout(context.Background(), cfg.TypesenseTimeout)
		if err := syncer.EnsureCollections(ctx); err != nil {
			slog.Warn("search collections unavailable at startup", "error", err)
		}
		cancel()
	}

	// Start the sync queue worker and wire the mutation trigger.
	queue := catalog.NewQueue(syncer, cfg.SyncQueueSize)
	trigger := catalog.NewTrigger(queue)

	service := catalog.NewService(
		db, itemStore, attributeStore, categoryStore, brandStore,
		searchClient, syncer, trigger, filterCache,
	)

	// Set up the Chi router with all middleware and routes.
	r := router.New(handlers.NewCatalog(service))

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Drain pending index sync jobs after the last mutation has been served.
	queue.Close()

	slog.Info("server stopped gracefully")
}
