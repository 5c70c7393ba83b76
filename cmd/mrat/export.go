package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
	"github.com/MikeSquared-Agency/MRAT/internal/export"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Rank the stored catalog with the default weights and export the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			key, err := runExport(ctx, configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall deadline")
	return cmd
}

func runExport(ctx context.Context, configPath string) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	logger := newLogger(cfg)

	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListCountries(ctx)
	if err != nil {
		return "", fmt.Errorf("list countries: %w", err)
	}

	sessions := session.NewManager(session.Options{
		DefaultID:      cfg.Sessions.DefaultID,
		DefaultWeights: cfg.DefaultWeights(),
		Logger:         logger,
	})
	sessions.LoadRecords(ctx, records)
	snap, err := sessions.Snapshot("")
	if err != nil {
		return "", err
	}

	blobs, err := export.NewBlobStore(ctx, cfg.Export)
	if err != nil {
		return "", fmt.Errorf("open export backend: %w", err)
	}
	return export.NewExporter(blobs, cfg.Export.Backend, cfg.Export.Prefix, nil, logger).Export(ctx, snap)
}
