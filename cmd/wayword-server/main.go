// Package main provides the entry point for the wayword server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/client"
	"github.com/raphaelgruber/wayword-go/internal/config"
	"github.com/raphaelgruber/wayword-go/internal/embedding"
	"github.com/raphaelgruber/wayword-go/internal/history"
	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/recommend"
	"github.com/raphaelgruber/wayword-go/internal/server"
	"github.com/raphaelgruber/wayword-go/internal/service"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	wipe := flag.Bool("wipe", false, "wipe all timeline data on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("wayword-server starting",
		"version", version,
		"addr", cfg.ListenAddr,
		"surrealdb_url", cfg.SurrealDBURL,
		"embedding_model", cfg.EmbeddingModel,
		"fallback_mode", cfg.FallbackMode,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the timeline store
	store, err := history.NewStore(ctx, history.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to timeline store", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing timeline store")
		_ = store.Close(ctx)
	}()

	if err := store.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipe {
		if err := store.Wipe(ctx); err != nil {
			logger.Error("failed to wipe timeline", "error", err)
			os.Exit(1)
		}
	}

	collector := metrics.NewCollector()

	// Embedding provider: contextual model first, lexicon fallback second
	sources := []embedding.Source{
		embedding.NewContextual(cfg.OllamaHost, cfg.EmbeddingModel, cfg.LanguageModels),
	}
	if cfg.LexiconDir != "" {
		sources = append(sources, embedding.NewStatic(cfg.LexiconDir))
	}
	provider := embedding.NewProvider(nil, logger, sources...).WithCollector(collector)

	engine, err := recommend.NewEngine(cfg.Recommend, provider, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	engine.WithCollector(collector)

	var fallback client.Predictor
	switch cfg.FallbackMode {
	case "http":
		fallback, err = client.NewHTTPPredictor(cfg.FallbackURL)
	case "bedrock":
		fallback, err = client.NewBedrockPredictor(ctx, cfg.FallbackBedrock)
	}
	if err != nil {
		logger.Error("failed to init fallback predictor", "mode", cfg.FallbackMode, "error", err)
		os.Exit(1)
	}

	recall := service.NewRecallService(store, engine, fallback, collector, cfg.HistoryLimit, logger)

	srv := server.New(cfg.ListenAddr, recall, provider, store, collector, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
