package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unalkalkan/la5asni/internal/analysis"
	"github.com/unalkalkan/la5asni/internal/api"
	"github.com/unalkalkan/la5asni/internal/config"
	"github.com/unalkalkan/la5asni/internal/export"
	"github.com/unalkalkan/la5asni/internal/extraction"
	"github.com/unalkalkan/la5asni/internal/health"
	"github.com/unalkalkan/la5asni/internal/packaging"
	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/internal/repository"
	"github.com/unalkalkan/la5asni/internal/retrieval"
	"github.com/unalkalkan/la5asni/internal/storage"
	"github.com/unalkalkan/la5asni/internal/telemetry"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Logging, os.Stderr)
	logger.Info("starting la5asni server", "version", version, "config", *configPath)

	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewMetrics()

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		fatal("failed to create storage adapter", err)
	}
	defer storageAdapter.Close()
	logger.Info("storage adapter initialized", "adapter", cfg.Storage.Adapter)

	providerRegistry := provider.NewRegistry()
	providerRegistry.SetObserver(metrics.ObserveLLMCall)
	if err := providerRegistry.InitializeProviders(cfg.Providers); err != nil {
		fatal("failed to initialize providers", err)
	}
	defer providerRegistry.Close()
	logger.Info("providers initialized", "llm", providerRegistry.ListLLM())

	retriever, err := retrieval.New(cfg.Retrieval, providerRegistry)
	if err != nil {
		fatal("failed to initialize retrieval", err)
	}
	logger.Info("retrieval initialized", "backend", cfg.Retrieval.Backend)

	repo := repository.NewRepository(storageAdapter)
	extractors := extraction.NewFactory()

	service := analysis.NewService(analysis.Options{
		Providers:  providerRegistry,
		Extractors: extractors,
		Retriever:  retriever,
		Store:      repo,
		Config:     cfg.Analysis,
		TopK:       cfg.Retrieval.TopK,
		Logger:     logger.With("component", "analysis"),
		Metrics:    metrics,
	})

	renderer, err := export.NewRenderer(cfg.Export)
	if err != nil {
		fatal("failed to initialize report renderer", err)
	}
	if !renderer.UnicodeCapable() {
		logger.Warn("export.font_path not set, reports cannot render Arabic text")
	}

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.StorageCheck(storageAdapter, ".healthcheck"))
	healthHandler.Register("providers", health.ProvidersCheck(providerRegistry.ListLLM, cfg.Analysis.DefaultProvider))

	handler := api.NewHandler(api.Deps{
		Service:    service,
		Repository: repo,
		Renderer:   renderer,
		Packager:   packaging.NewService(repo, renderer),
		Providers:  providerRegistry,
		Extractors: extractors,
		Config:     cfg,
		Version:    version,
		Metrics:    metrics,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, healthHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           api.CORS(cfg.Server.CORSOrigins)(mux),
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
