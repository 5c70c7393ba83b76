package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// ScorePlaces is the number of decimal places totals are rounded to.
const ScorePlaces = 2

// Aggregate combines factor scores with weights into a total on the score
// scale, rounded half away from zero to ScorePlaces.
//
// Only factors present in both scores and weights contribute. The weighted sum
// is divided by the weight actually used, so a country missing a factor is
// scored on the rest renormalized; with full coverage that divisor is
// TotalWeight. If no weight is used the total is 0.
func Aggregate(scores map[Factor]float64, weights WeightVector) float64 {
	return aggregate(scores, weights).InexactFloat64()
}

func aggregate(scores map[Factor]float64, weights WeightVector) decimal.Decimal {
	sum, used := decimal.Zero, decimal.Zero
	for _, w := range weights {
		s, ok := scores[w.Factor]
		if !ok || !usable(s) || !usable(w.Value) || w.Value < 0 {
			continue
		}
		wd := decimal.NewFromFloat(w.Value)
		sum = sum.Add(decimal.NewFromFloat(s).Mul(wd))
		used = used.Add(wd)
	}
	if !used.IsPositive() {
		return decimal.Zero
	}
	return sum.Div(used).Round(ScorePlaces)
}

// Explain returns the per-factor breakdown behind Aggregate, one entry per
// weighted factor in weight order. Weighted is the factor's share of the
// total, so the Weighted values of available factors add up to the total
// before rounding.
func Explain(scores map[Factor]float64, weights WeightVector) []FactorResult {
	used := decimal.Zero
	for _, w := range weights {
		if s, ok := scores[w.Factor]; ok && usable(s) && usable(w.Value) && w.Value >= 0 {
			used = used.Add(decimal.NewFromFloat(w.Value))
		}
	}

	results := make([]FactorResult, 0, len(weights))
	for _, w := range weights {
		r := FactorResult{Name: w.Factor, Weight: w.Value}
		s, ok := scores[w.Factor]
		switch {
		case !ok:
			r.Reason = "no score reported"
		case !usable(s):
			r.Reason = "score is not a finite number"
		case !usable(w.Value) || w.Value < 0:
			r.Score = s
			r.Reason = "weight is not usable"
		default:
			r.Score = s
			r.Available = true
			if used.IsPositive() {
				r.Weighted = decimal.NewFromFloat(s).
					Mul(decimal.NewFromFloat(w.Value)).
					Div(used).
					Round(4).
					InexactFloat64()
			}
		}
		results = append(results, r)
	}
	return results
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
