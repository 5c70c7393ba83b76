package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/MRAT/internal/api"
	"github.com/MikeSquared-Agency/MRAT/internal/config"
	"github.com/MikeSquared-Agency/MRAT/internal/export"
	"github.com/MikeSquared-Agency/MRAT/internal/hermes"
	"github.com/MikeSquared-Agency/MRAT/internal/refresh"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ranking API, refresher and export scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	sessions := session.NewManager(session.Options{
		DefaultID:      cfg.Sessions.DefaultID,
		DefaultWeights: cfg.DefaultWeights(),
		TTL:            cfg.SessionTTL(),
		MaxSessions:    cfg.Sessions.MaxSessions,
		Hermes:         hermesClient,
		Logger:         logger,
	})

	// Refresher
	refresher := refresh.New(db, sessions, hermesClient, cfg, logger)
	if err := refresher.Reload(ctx); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}
	if err := refresher.SetupSubscriptions(); err != nil {
		logger.Warn("failed to subscribe to score batches", "error", err)
	}
	refresher.Start(ctx)
	defer refresher.Stop()
	logger.Info("refresher started", "interval", cfg.RefreshInterval(), "reload", cfg.Refresh.Enabled)

	// Export
	blobs, err := export.NewBlobStore(ctx, cfg.Export)
	if err != nil {
		return fmt.Errorf("open export backend: %w", err)
	}
	exporter := export.NewExporter(blobs, cfg.Export.Backend, cfg.Export.Prefix, hermesClient, logger)

	if cfg.Export.Schedule != "" {
		scheduler, err := export.NewScheduler(cfg.Export.Timezone)
		if err != nil {
			return err
		}
		err = scheduler.Schedule(cfg.Export.Schedule, func() {
			snap, err := sessions.Snapshot("")
			if err != nil {
				logger.Error("scheduled export failed", "error", err)
				return
			}
			if _, err := exporter.Export(ctx, snap); err != nil {
				logger.Error("scheduled export failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("export scheduler started", "schedule", cfg.Export.Schedule, "next", scheduler.Next())
	}

	// API server
	router := api.NewRouter(sessions, db, refresher, exporter, api.RouterOptions{
		AdminToken: cfg.Server.AdminToken,
		RateLimit:  cfg.Server.RateLimit,
	}, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}
