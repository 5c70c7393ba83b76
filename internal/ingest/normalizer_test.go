package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer(scale float64) *Normalizer {
	n := NewNormalizer(scale)
	n.Now = func() time.Time { return fixedNow }
	return n
}

func fullScores(v float64) map[string]ScoreValue {
	return map[string]ScoreValue{
		"infrastructure": ScoreValue(v),
		"regulation":     ScoreValue(v),
		"market_demand":  ScoreValue(v),
		"stability":      ScoreValue(v),
		"partnerships":   ScoreValue(v),
	}
}

func TestNormalizeCleanBatch(t *testing.T) {
	n := newTestNormalizer(10)
	records, report := n.Normalize([]RawCountry{
		{ID: "nigeria", Name: "Nigeria", Code: "ng", Scores: map[string]ScoreValue{
			"infrastructure": 6.2, "regulation": 5.8, "marketDemand": 8.5, "stability": 5.4, "partnerships": 7.2,
		}},
	})

	require.Len(t, records, 1)
	assert.Empty(t, report.Issues)
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, report.Accepted)

	rec := records[0]
	assert.Equal(t, "NG", rec.Code)
	assert.Equal(t, 8.5, rec.Scores[scoring.FactorMarketDemand])
	assert.Equal(t, fixedNow, rec.UpdatedAt)
	assert.Nil(t, rec.TotalScore)
	assert.Equal(t, 6.73, scoring.Aggregate(rec.Scores, scoring.DefaultWeights()))
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	n := newTestNormalizer(10)
	scores := fullScores(5)
	scores["infrastructure"] = 12
	scores["stability"] = -3

	records, report := n.Normalize([]RawCountry{{ID: "x", Scores: scores}})
	require.Len(t, records, 1)
	assert.Equal(t, 10.0, records[0].Scores[scoring.FactorInfrastructure])
	assert.Equal(t, 0.0, records[0].Scores[scoring.FactorStability])
	assert.Equal(t, 2, report.Count(IssueClamped))
	assert.Error(t, report.Err())
}

func TestNormalizeDropsNonFiniteAndUnknown(t *testing.T) {
	n := newTestNormalizer(10)
	scores := fullScores(5)
	scores["stability"] = ScoreValue(math.NaN())
	scores["partnerships"] = ScoreValue(math.Inf(1))
	scores["weather"] = 9

	records, report := n.Normalize([]RawCountry{{ID: "x", Scores: scores}})
	require.Len(t, records, 1)

	_, hasStab := records[0].Scores[scoring.FactorStability]
	assert.False(t, hasStab)
	assert.Len(t, records[0].Scores, 3)
	assert.Equal(t, 2, report.Count(IssueNotFinite))
	assert.Equal(t, 1, report.Count(IssueUnknownFactor))
	assert.Equal(t, 2, report.Count(IssueMissingFactor))
}

func TestNormalizeUnreadableScoreDropsOnlyThatFactor(t *testing.T) {
	raw, err := DecodeBatch([]byte(`[
		{"id":"kenya","scores":{"infrastructure":6.5,"regulation":null,"market":7.4,"stability":"high","partners":7.0}},
		{"id":"ghana","scores":{"infrastructure":6.8,"regulation":7.0,"market_demand":6.9,"stability":7.8,"partnerships":7.1}},
		{"id":["not","a","string"]}
	]`))
	require.NoError(t, err)

	n := newTestNormalizer(10)
	records, report := n.Normalize(raw)
	require.Len(t, records, 2)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 1, report.Rejected)

	kenya := records[0]
	assert.Equal(t, "kenya", kenya.ID)
	assert.Len(t, kenya.Scores, 3)
	_, hasReg := kenya.Scores[scoring.FactorRegulation]
	assert.False(t, hasReg)
	assert.Equal(t, 2, report.Count(IssueInvalidScore))
	assert.Equal(t, 2, report.Count(IssueMissingFactor))

	assert.Equal(t, "ghana", records[1].ID)
	assert.Len(t, records[1].Scores, 5)

	require.Equal(t, 1, report.Count(IssueMalformed))
	for _, issue := range report.Issues {
		if issue.Kind == IssueMalformed {
			assert.Equal(t, 2, issue.Index)
			assert.True(t, issue.Fatal)
		}
	}
}

func TestNormalizeHundredScale(t *testing.T) {
	n := newTestNormalizer(100)
	records, report := n.Normalize([]RawCountry{{ID: "x", Scores: fullScores(72)}})
	require.Len(t, records, 1)
	assert.Empty(t, report.Issues)
	assert.InDelta(t, 7.2, records[0].Scores[scoring.FactorRegulation], 1e-9)
}

func TestNormalizeMissingID(t *testing.T) {
	n := newTestNormalizer(10)
	records, report := n.Normalize([]RawCountry{
		{ID: "  ", Name: "Nowhere", Scores: fullScores(5)},
		{ID: "kenya", Scores: fullScores(6)},
	})
	require.Len(t, records, 1)
	assert.Equal(t, "kenya", records[0].ID)
	assert.Equal(t, "kenya", records[0].Name, "name falls back to id")
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Accepted)
	require.Equal(t, 1, report.Count(IssueMissingID))
	assert.True(t, report.Issues[0].Fatal)
	assert.Contains(t, report.Err().Error(), "country #0")
}

func TestNormalizeDuplicateIDLaterWins(t *testing.T) {
	n := newTestNormalizer(10)
	records, report := n.Normalize([]RawCountry{
		{ID: "ghana", Scores: fullScores(5)},
		{ID: "egypt", Scores: fullScores(6)},
		{ID: "ghana", Scores: fullScores(7)},
	})
	require.Len(t, records, 2)
	assert.Equal(t, "ghana", records[0].ID)
	assert.Equal(t, 7.0, records[0].Scores[scoring.FactorInfrastructure])
	assert.Equal(t, "egypt", records[1].ID)
	assert.Equal(t, 1, report.Count(IssueDuplicateID))
}

func TestNormalizeAliasCollision(t *testing.T) {
	n := newTestNormalizer(10)
	scores := fullScores(5)
	scores["market"] = 9

	records, report := n.Normalize([]RawCountry{{ID: "x", Scores: scores}})
	require.Len(t, records, 1)
	// keys are processed in sorted order: "market" then "market_demand"
	assert.Equal(t, 5.0, records[0].Scores[scoring.FactorMarketDemand])
	assert.Equal(t, 1, report.Count(IssueDuplicateScore))
}
