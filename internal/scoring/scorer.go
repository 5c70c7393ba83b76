package scoring

import (
	"log/slog"
)

// Scorer runs the aggregate, classify and rank pipeline over a country set.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Evaluate scores every record against weights and returns them ranked.
// Records are cloned so the caller's slice and score maps are left untouched.
func (s *Scorer) Evaluate(records []CountryRecord, weights WeightVector) []CountryRecord {
	scored := make([]CountryRecord, len(records))
	for i, rec := range records {
		out := rec.Clone()
		total := Aggregate(out.Scores, weights)
		risk := Classify(total)
		out.TotalScore = &total
		out.RiskLevel = &risk
		out.Rank = nil
		scored[i] = out
	}

	ranked := Rank(scored)
	if s.logger != nil {
		s.logger.Debug("evaluated countries", "count", len(ranked), "weight_sum", weights.Sum())
	}
	return ranked
}

// ScoreOne evaluates a single record without ranking it.
func (s *Scorer) ScoreOne(rec CountryRecord, weights WeightVector) CountryRecord {
	out := rec.Clone()
	total := Aggregate(out.Scores, weights)
	risk := Classify(total)
	out.TotalScore = &total
	out.RiskLevel = &risk
	out.Rank = nil
	return out
}
