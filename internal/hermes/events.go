package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// ScoresBatchEvent carries fresh factor scores from an external fetcher.
// Scale is the maximum of the source scale; zero means 10.
type ScoresBatchEvent struct {
	Source    string              `json:"source"`
	Scale     float64             `json:"scale,omitempty"`
	Countries []ingest.RawCountry `json:"countries"`
	SentAt    time.Time           `json:"sent_at"`
}

type WeightsRebalancedEvent struct {
	SessionID string               `json:"session_id"`
	Factor    scoring.Factor       `json:"factor"`
	Requested float64              `json:"requested"`
	Applied   float64              `json:"applied"`
	Weights   scoring.WeightVector `json:"weights"`
	Version   uint64               `json:"version"`
}

type WeightsReplacedEvent struct {
	SessionID string               `json:"session_id"`
	Weights   scoring.WeightVector `json:"weights"`
	Version   uint64               `json:"version"`
}

type RankingEntry struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Rank       int               `json:"rank"`
	TotalScore float64           `json:"total_score"`
	RiskLevel  scoring.RiskLevel `json:"risk_level"`
}

type RankingsUpdatedEvent struct {
	SessionID string         `json:"session_id"`
	Reason    string         `json:"reason"`
	Version   uint64         `json:"version"`
	Rankings  []RankingEntry `json:"rankings"`
	Timestamp time.Time      `json:"timestamp"`
}

type ExportCompletedEvent struct {
	Key       string    `json:"key"`
	Countries int       `json:"countries"`
	Backend   string    `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}

// RankingEntries flattens evaluated records for publishing. Records that
// have not been evaluated are skipped.
func RankingEntries(records []scoring.CountryRecord) []RankingEntry {
	entries := make([]RankingEntry, 0, len(records))
	for _, r := range records {
		if r.Rank == nil || r.TotalScore == nil || r.RiskLevel == nil {
			continue
		}
		entries = append(entries, RankingEntry{
			ID:         r.ID,
			Name:       r.Name,
			Rank:       *r.Rank,
			TotalScore: *r.TotalScore,
			RiskLevel:  *r.RiskLevel,
		})
	}
	return entries
}
