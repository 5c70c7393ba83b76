package scoring

import (
	"math"
	"time"
)

// CountryRecord is one country with its factor scores and the fields derived
// from them. TotalScore, Rank and RiskLevel are nil until the record has been
// evaluated against a weight vector.
type CountryRecord struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Code       string             `json:"code,omitempty"`
	Scores     map[Factor]float64 `json:"scores"`
	TotalScore *float64           `json:"total_score"`
	Rank       *int               `json:"rank"`
	RiskLevel  *RiskLevel         `json:"risk_level"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Clone returns a deep copy of r.
func (r CountryRecord) Clone() CountryRecord {
	out := r
	if r.Scores != nil {
		out.Scores = make(map[Factor]float64, len(r.Scores))
		for f, v := range r.Scores {
			out.Scores[f] = v
		}
	}
	if r.TotalScore != nil {
		v := *r.TotalScore
		out.TotalScore = &v
	}
	if r.Rank != nil {
		v := *r.Rank
		out.Rank = &v
	}
	if r.RiskLevel != nil {
		v := *r.RiskLevel
		out.RiskLevel = &v
	}
	return out
}

// Stripped returns a copy with the derived fields cleared.
func (r CountryRecord) Stripped() CountryRecord {
	out := r.Clone()
	out.TotalScore = nil
	out.Rank = nil
	out.RiskLevel = nil
	return out
}

// RiskLevel is the investment risk tier derived from a total score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Lower bounds (inclusive) of the low and medium tiers.
const (
	LowRiskThreshold    = 7.5
	MediumRiskThreshold = 6.0
)

// Classify maps a total score to a risk tier. NaN is treated as high risk.
func Classify(total float64) RiskLevel {
	switch {
	case math.IsNaN(total):
		return RiskHigh
	case total >= LowRiskThreshold:
		return RiskLow
	case total >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Label returns the human readable tier name.
func (r RiskLevel) Label() string {
	switch r {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown"
	}
}
