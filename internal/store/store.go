package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// ScoreHistory is one snapshot of a country's factor scores, written whenever
// an upsert changes them.
type ScoreHistory struct {
	ID         uuid.UUID                  `json:"id"`
	CountryID  string                     `json:"country_id"`
	Scores     map[scoring.Factor]float64 `json:"scores"`
	Source     string                     `json:"source"`
	RecordedAt time.Time                  `json:"recorded_at"`
}

// WeightPreset is a named weight vector users can save and re-apply.
type WeightPreset struct {
	Name      string               `json:"name"`
	Weights   scoring.WeightVector `json:"weights"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Store persists the country catalog, score history and weight presets.
// Lookups of missing rows return nil, nil.
type Store interface {
	// ListCountries returns the catalog in first-insertion order. Later
	// upserts of an existing country keep its position.
	ListCountries(ctx context.Context) ([]scoring.CountryRecord, error)
	GetCountry(ctx context.Context, id string) (*scoring.CountryRecord, error)
	// UpsertCountries writes records and appends a history row for each
	// country whose scores changed. It returns how many rows were written.
	UpsertCountries(ctx context.Context, records []scoring.CountryRecord, source string) (int, error)
	GetScoreHistory(ctx context.Context, countryID string, limit int) ([]*ScoreHistory, error)

	// AddNews attaches an item to an existing country, filling in its id
	// and timestamps.
	AddNews(ctx context.Context, n *NewsItem) error
	// ListNews returns a country's news, newest publication first.
	ListNews(ctx context.Context, countryID string, limit int) ([]*NewsItem, error)

	SaveWeightPreset(ctx context.Context, p *WeightPreset) error
	GetWeightPreset(ctx context.Context, name string) (*WeightPreset, error)
	ListWeightPresets(ctx context.Context) ([]*WeightPreset, error)

	Close() error
}

const defaultHistoryLimit = 50

func historyLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultHistoryLimit
	}
	return limit
}

func scoresEqual(a, b map[scoring.Factor]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for f, v := range a {
		if w, ok := b[f]; !ok || w != v {
			return false
		}
	}
	return true
}

func encodeScores(scores map[scoring.Factor]float64) ([]byte, error) {
	if scores == nil {
		scores = map[scoring.Factor]float64{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("encode scores: %w", err)
	}
	return data, nil
}

func decodeScores(data []byte) (map[scoring.Factor]float64, error) {
	scores := map[scoring.Factor]float64{}
	if len(data) == 0 {
		return scores, nil
	}
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return scores, nil
}

func recordTime(r scoring.CountryRecord, now time.Time) time.Time {
	if r.UpdatedAt.IsZero() {
		return now.UTC()
	}
	return r.UpdatedAt.UTC()
}

func encodeWeights(w scoring.WeightVector) ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode weights: %w", err)
	}
	return data, nil
}

func decodeWeights(data []byte) (scoring.WeightVector, error) {
	var w scoring.WeightVector
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return w, nil
}
