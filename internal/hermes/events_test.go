package hermes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "mrat.session.abc.weights.rebalanced", SubjectWeightsRebalanced("abc"))
	assert.Equal(t, "mrat.session.abc.weights.replaced", SubjectWeightsReplaced("abc"))
}

func TestScoresBatchEventDecodesMixedScores(t *testing.T) {
	payload := `{
		"source": "worldbank-fetcher",
		"scale": 100,
		"countries": [
			{"id": "kenya", "name": "Kenya", "scores": {"infrastructure": 65, "market": {"total": 74}, "stability": "66"}}
		]
	}`
	var evt ScoresBatchEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &evt))
	require.Len(t, evt.Countries, 1)
	assert.Equal(t, 100.0, evt.Scale)
	assert.Equal(t, 74.0, float64(evt.Countries[0].Scores["market"]))
	assert.Equal(t, 66.0, float64(evt.Countries[0].Scores["stability"]))
}

func TestRankingEntriesSkipsUnevaluated(t *testing.T) {
	s := scoring.NewScorer(nil)
	ranked := s.Evaluate([]scoring.CountryRecord{
		{ID: "a", Name: "A", Scores: map[scoring.Factor]float64{scoring.FactorStability: 8}},
		{ID: "b", Name: "B", Scores: map[scoring.Factor]float64{scoring.FactorStability: 5}},
	}, scoring.DefaultWeights())
	ranked = append(ranked, scoring.CountryRecord{ID: "raw"})

	entries := RankingEntries(ranked)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 8.0, entries[0].TotalScore)
	assert.Equal(t, scoring.RiskLow, entries[0].RiskLevel)
}
