package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// TerminalRenderer renders a Ranking as a coloured table.
type TerminalRenderer struct{}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func riskColor(level scoring.RiskLevel) string {
	switch level {
	case scoring.RiskLow:
		return colorGreen
	case scoring.RiskMedium:
		return colorYellow
	case scoring.RiskHigh:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	return colored(s, colorBold)
}

func dim(s string) string {
	return colored(s, colorDim)
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, ranking *Ranking) error {
	fmt.Fprintf(w, "%s\n", bold("Market Readiness Rankings"))

	parts := make([]string, 0, len(ranking.Weights))
	for _, wt := range ranking.Weights {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", wt.Factor, wt.Value))
	}
	fmt.Fprintf(w, "%s\n\n", dim("Weights: "+strings.Join(parts, ", ")))

	if len(ranking.Countries) == 0 {
		fmt.Fprintln(w, "No countries.")
		return nil
	}

	nameWidth := len("Country")
	for _, c := range ranking.Countries {
		if len(c.Name) > nameWidth {
			nameWidth = len(c.Name)
		}
	}

	fmt.Fprintf(w, "%4s  %-*s  %6s  %s\n", "Rank", nameWidth, "Country", "Score", "Risk")
	for _, c := range ranking.Countries {
		rank, score, risk := "-", "-", "unscored"
		if c.Rank != nil {
			rank = fmt.Sprintf("%d", *c.Rank)
		}
		if c.TotalScore != nil {
			score = fmt.Sprintf("%.2f", *c.TotalScore)
		}
		if c.RiskLevel != nil {
			risk = colored(c.RiskLevel.Label(), riskColor(*c.RiskLevel))
		}
		fmt.Fprintf(w, "%4s  %-*s  %6s  %s\n", rank, nameWidth, c.Name, score, risk)
	}
	fmt.Fprintln(w)
	return nil
}
