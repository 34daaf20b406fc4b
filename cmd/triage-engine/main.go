package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/incidentops/triage-engine/internal/anomaly"
	"github.com/incidentops/triage-engine/internal/api"
	"github.com/incidentops/triage-engine/internal/cache"
	"github.com/incidentops/triage-engine/internal/config"
	"github.com/incidentops/triage-engine/internal/engine"
	"github.com/incidentops/triage-engine/internal/index"
	"github.com/incidentops/triage-engine/internal/metrics"
	"github.com/incidentops/triage-engine/internal/reasoning"
	"github.com/incidentops/triage-engine/internal/remediation"
	"github.com/incidentops/triage-engine/internal/repo"
	"github.com/incidentops/triage-engine/internal/services"
	"github.com/incidentops/triage-engine/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "triage-engine: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	slog.SetDefault(logger)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	cacheProvider := newCacheProvider(cfg, logger)
	defer cacheProvider.Close()

	scorer := anomaly.NewScorer(nil)
	if model, err := anomaly.LoadModel(cfg.Model.Path); err != nil {
		logger.Warn("anomaly model unavailable, predictions disabled until reload",
			slog.String("path", cfg.Model.Path), slog.Any("error", err))
	} else {
		if err := scorer.Reload(model); err != nil {
			return fmt.Errorf("load anomaly model: %w", err)
		}
		logger.Info("anomaly model loaded",
			slog.String("path", cfg.Model.Path), slog.Int("dimension", model.Dimension()))
	}

	similarityIndex, err := index.LoadOrNew(cfg.Index.Dir, cfg.Index.Dimension)
	if err != nil {
		return fmt.Errorf("load similarity index: %w", err)
	}
	logger.Info("similarity index ready",
		slog.String("dir", cfg.Index.Dir), slog.Int("entries", similarityIndex.Len()))

	telemetry := repo.NewTelemetryClient(
		cfg.Telemetry.BaseURL, cfg.Telemetry.MetricsPath, cfg.Telemetry.Timeout,
		cacheProvider, cfg.Cache.TelemetryTTL,
	)
	embedder := repo.NewEmbeddingClient(
		cfg.Embedding.BaseURL, cfg.Embedding.EmbedPath, cfg.Index.Dimension, cfg.Embedding.Timeout,
	)
	sink := repo.NewIncidentSink(cfg.Sink.BaseURL, cfg.Sink.UpsertPath, cfg.Sink.Timeout)

	reasoner := reasoning.NewClient(reasoning.Config{
		APIKey:    cfg.Reasoning.APIKey,
		Model:     cfg.Reasoning.Model,
		MaxTokens: cfg.Reasoning.MaxTokens,
		Timeout:   cfg.Reasoning.Timeout,
	}, logger)

	templates, err := remediation.LoadTemplates(cfg.Remediation.TemplatesPath)
	if err != nil {
		return fmt.Errorf("load remediation templates: %w", err)
	}
	generator, err := remediation.NewGenerator(templates, nil, logger)
	if err != nil {
		return fmt.Errorf("init remediation generator: %w", err)
	}

	orchestrator := engine.NewOrchestrator(logger, similarityIndex, embedder, reasoner, generator, sink)
	service := services.NewAnalysisService(logger, orchestrator, telemetry, scorer, cfg.Telemetry.DefaultWindow)

	components := func() map[string]any {
		return map[string]any{
			"anomaly_model":    scorer.Ready(),
			"similarity_index": similarityIndex.Len(),
			"cache":            cfg.Cache.Enabled,
		}
	}
	handlers := api.NewHandlers(logger, service, generator, cfg.Telemetry.DefaultWindow, components)
	server := api.NewServer(cfg.Server.Address, logger, handlers)

	metricsSrv := &http.Server{
		Addr:              cfg.Server.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start() }()
	go func() {
		logger.Info("metrics server listening", slog.String("addr", cfg.Server.MetricsAddress))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.Any("error", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", slog.Any("error", err))
	}
	if err := orchestrator.Close(shutdownCtx); err != nil {
		logger.Warn("background persistence not fully flushed", slog.Any("error", err))
	}
	if err := similarityIndex.Save(cfg.Index.Dir); err != nil {
		logger.Error("index snapshot failed", slog.Any("error", err))
	} else {
		logger.Info("index snapshot written", slog.Int("entries", similarityIndex.Len()))
	}

	logger.Info("shutdown complete")
	return nil
}

func newCacheProvider(cfg *config.Config, logger *slog.Logger) cache.Provider {
	if !cfg.Cache.Enabled {
		return cache.NoopProvider{}
	}
	provider, err := cache.NewRedisProvider(cache.RedisConfig{
		Addr:         cfg.Cache.Addr,
		Username:     cfg.Cache.Username,
		Password:     cfg.Cache.Password,
		DB:           cfg.Cache.DB,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
		MaxRetries:   cfg.Cache.MaxRetries,
		TLS:          cfg.Cache.TLS,
	})
	if err != nil {
		logger.Warn("cache unavailable, continuing without caching", slog.Any("error", err))
		return cache.NoopProvider{}
	}
	logger.Info("cache connected", slog.String("addr", cfg.Cache.Addr))
	return provider
}
