// Package main wires together the brand insights service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/api"
	gcsblob "github.com/Jadavivek/deepsolv/internal/blob/gcs"
	localblob "github.com/Jadavivek/deepsolv/internal/blob/local"
	memoryblob "github.com/Jadavivek/deepsolv/internal/blob/memory"
	"github.com/Jadavivek/deepsolv/internal/clock/system"
	"github.com/Jadavivek/deepsolv/internal/compare"
	"github.com/Jadavivek/deepsolv/internal/config"
	"github.com/Jadavivek/deepsolv/internal/enrich"
	"github.com/Jadavivek/deepsolv/internal/fetcher"
	"github.com/Jadavivek/deepsolv/internal/hash/sha256"
	"github.com/Jadavivek/deepsolv/internal/id/uuid"
	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/logging"
	"github.com/Jadavivek/deepsolv/internal/metrics"
	memorypublisher "github.com/Jadavivek/deepsolv/internal/publisher/memory"
	gcppublisher "github.com/Jadavivek/deepsolv/internal/publisher/pubsub"
	"github.com/Jadavivek/deepsolv/internal/scraper"
	memorystorage "github.com/Jadavivek/deepsolv/internal/storage/memory"
	"github.com/Jadavivek/deepsolv/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.ENOTTY) {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer store.Close()

	blobStore, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build blob store: %w", err)
	}

	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	var enricher insights.Enricher
	if client := enrich.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger); client != nil {
		enricher = client
		logger.Info("enrichment enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		logger.Info("enrichment disabled, no API key configured")
	}

	fetchClient := fetcher.New(fetcher.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		Timeout:        cfg.FetchTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffBase:    cfg.BackoffBase(),
		MaxConnections: cfg.HTTP.MaxConnections,
		MaxPerHost:     cfg.HTTP.MaxPerHost,
		PerHostRPS:     cfg.HTTP.PerHostRPS,
		PerHostBurst:   cfg.HTTP.PerHostBurst,
	}, logger)

	pipeline := scraper.New(scraper.Options{
		Fetcher:        fetchClient,
		Enricher:       enricher,
		BlobStore:      blobStore,
		Publisher:      publisher,
		Topic:          cfg.PubSub.TopicName,
		SnapshotPrefix: cfg.Blob.Prefix,
		Hasher:         sha256.New(),
		Clock:          system.New(),
		IDs:            uuid.NewUUIDGenerator(),
		Logger:         logger,
	})
	analyzer := compare.NewAnalyzer(pipeline, enricher, logger)

	server := api.NewServer(pipeline, analyzer, store, cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (insights.InsightStore, error) {
	switch cfg.DB.Provider {
	case "postgres":
		store, err := postgres.NewInsightStore(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return memorystorage.NewInsightStore(), nil
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (insights.BlobStore, error) {
	switch cfg.Blob.Provider {
	case "memory":
		return memoryblob.NewBlobStore(), nil
	case "local":
		return localblob.New(localblob.Config{BaseDir: cfg.Blob.BaseDir})
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w", err)
		}
		return gcsblob.New(client, gcsblob.Config{Bucket: cfg.Blob.GCSBucket})
	default:
		// Snapshot archiving disabled.
		return nil, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (insights.Publisher, error) {
	switch cfg.PubSub.Provider {
	case "memory":
		return memorypublisher.New(), nil
	case "gcp":
		client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		return gcppublisher.New(client)
	default:
		// Completion events disabled.
		return nil, nil
	}
}
