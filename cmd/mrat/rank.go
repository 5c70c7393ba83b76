package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
	"github.com/MikeSquared-Agency/MRAT/internal/surface"
)

func newRankCmd() *cobra.Command {
	var opts rankOpts

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a country file offline",
		Long: `Reads a country batch (a JSON array or {"countries": [...]}), applies the
weights and any edits in order, and prints the ranking.`,
		Example: `  mrat rank --input countries.json
  mrat rank --input countries.json --edit stability=40 --output json
  mrat rank --input - --weights infrastructure=20,regulation=20,market_demand=20,stability=20,partnerships=20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Country batch file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.weights, "weights", "", "Full weight vector as factor=value pairs (default: built-in weights)")
	cmd.Flags().StringArrayVar(&opts.edits, "edit", nil, "Rebalancing edit factor=value, repeatable")
	cmd.Flags().Float64Var(&opts.scale, "scale", 10, "Source score scale: 10 or 100")
	cmd.Flags().StringVar(&opts.output, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

type rankOpts struct {
	input   string
	weights string
	edits   []string
	scale   float64
	output  string
}

func runRank(stdin io.Reader, stdout, stderr io.Writer, opts rankOpts) error {
	renderer, ok := surface.ForFormat(opts.output)
	if !ok {
		return fmt.Errorf("unknown output format %q (expected text or json)", opts.output)
	}
	if opts.scale != 10 && opts.scale != 100 {
		return fmt.Errorf("scale must be 10 or 100")
	}

	var data []byte
	var err error
	if opts.input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(opts.input)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	raw, err := ingest.DecodeBatch(data)
	if err != nil {
		return err
	}
	records, report := ingest.NewNormalizer(opts.scale).Normalize(raw)
	for _, issue := range report.Issues {
		fmt.Fprintf(stderr, "warning: %s\n", issue.Error())
	}

	weights := scoring.DefaultWeights()
	if opts.weights != "" {
		weights, err = parseWeights(opts.weights)
		if err != nil {
			return err
		}
	}
	for _, e := range opts.edits {
		f, v, err := parseAssignment(e)
		if err != nil {
			return fmt.Errorf("invalid edit %q: %w", e, err)
		}
		weights = scoring.Rebalance(weights, f, v)
	}

	scorer := scoring.NewScorer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return renderer.Render(stdout, &surface.Ranking{
		Weights:   weights,
		Countries: scorer.Evaluate(records, weights),
	})
}

// parseWeights reads "factor=value,factor=value" into a validated vector.
// Factors keep the order given.
func parseWeights(s string) (scoring.WeightVector, error) {
	var w scoring.WeightVector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, v, err := parseAssignment(part)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		w = append(w, scoring.Weight{Factor: f, Value: v})
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return w, nil
}

func parseAssignment(s string) (scoring.Factor, float64, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected factor=value")
	}
	f, ok := ingest.ParseFactor(name)
	if !ok {
		return "", 0, fmt.Errorf("unknown factor %q", strings.TrimSpace(name))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value %q", value)
	}
	return f, v, nil
}
