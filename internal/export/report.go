package export

import (
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
)

// Report is the exported form of one session's rankings.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	SessionID   string               `json:"session_id"`
	Version     uint64               `json:"version"`
	Weights     scoring.WeightVector `json:"weights"`
	Countries   []ReportEntry        `json:"countries"`
}

type ReportEntry struct {
	Rank       int                        `json:"rank"`
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Code       string                     `json:"code,omitempty"`
	TotalScore float64                    `json:"total_score"`
	RiskLevel  scoring.RiskLevel          `json:"risk_level"`
	RiskLabel  string                     `json:"risk_label"`
	Scores     map[scoring.Factor]float64 `json:"scores"`
}

// BuildReport flattens a snapshot. Records that were never evaluated are
// left out.
func BuildReport(snap *session.Snapshot, now time.Time) Report {
	r := Report{
		GeneratedAt: now.UTC(),
		SessionID:   snap.SessionID,
		Version:     snap.Version,
		Weights:     snap.Weights.Clone(),
		Countries:   make([]ReportEntry, 0, len(snap.Countries)),
	}
	for _, c := range snap.Countries {
		if c.Rank == nil || c.TotalScore == nil || c.RiskLevel == nil {
			continue
		}
		r.Countries = append(r.Countries, ReportEntry{
			Rank:       *c.Rank,
			ID:         c.ID,
			Name:       c.Name,
			Code:       c.Code,
			TotalScore: *c.TotalScore,
			RiskLevel:  *c.RiskLevel,
			RiskLabel:  c.RiskLevel.Label(),
			Scores:     c.Clone().Scores,
		})
	}
	return r
}
