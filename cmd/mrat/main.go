// Package main provides the mrat entry point: the ranking service and its
// offline tools.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mrat",
		Short: "Market readiness assessment for industrial expansion",
		Long: `mrat scores countries on weighted readiness factors, ranks them and
classifies their investment risk. Weights are rebalanced interactively so
they always total 100.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newRankCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
