// Package surface renders ranked results for terminals and machine readers.
package surface

import (
	"io"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// Ranking is the output of one evaluation: the weights used and the ranked
// records.
type Ranking struct {
	Weights   scoring.WeightVector    `json:"weights"`
	Countries []scoring.CountryRecord `json:"countries"`
}

// Renderer produces formatted output from a Ranking.
type Renderer interface {
	Render(w io.Writer, r *Ranking) error
}

// ForFormat returns the renderer for "text" or "json".
func ForFormat(format string) (Renderer, bool) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, true
	case "json":
		return &JSONRenderer{}, true
	default:
		return nil, false
	}
}
