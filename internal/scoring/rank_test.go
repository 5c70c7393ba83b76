package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTotal(id string, total *float64) CountryRecord {
	return CountryRecord{ID: id, Name: id, TotalScore: total}
}

func ids(records []CountryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRankOrdersDescending(t *testing.T) {
	in := []CountryRecord{
		withTotal("a", float64Ptr(6.1)),
		withTotal("b", float64Ptr(8.2)),
		withTotal("c", float64Ptr(7.0)),
	}
	got := Rank(in)
	assert.Equal(t, []string{"b", "c", "a"}, ids(got))
	for i, r := range got {
		require.NotNil(t, r.Rank)
		assert.Equal(t, i+1, *r.Rank)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(in), "input must keep its order")
	assert.Nil(t, in[0].Rank)
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	in := []CountryRecord{
		withTotal("first", float64Ptr(7)),
		withTotal("top", float64Ptr(9)),
		withTotal("second", float64Ptr(7)),
		withTotal("third", float64Ptr(7)),
	}
	got := Rank(in)
	assert.Equal(t, []string{"top", "first", "second", "third"}, ids(got))
	assert.Equal(t, 2, *got[1].Rank)
	assert.Equal(t, 3, *got[2].Rank)
	assert.Equal(t, 4, *got[3].Rank)
}

func TestRankUnscoredLast(t *testing.T) {
	in := []CountryRecord{
		withTotal("none", nil),
		withTotal("low", float64Ptr(1)),
		withTotal("nan", float64Ptr(math.NaN())),
		withTotal("high", float64Ptr(9)),
	}
	got := Rank(in)
	assert.Equal(t, []string{"high", "low", "none", "nan"}, ids(got))
}

func TestRankIdempotent(t *testing.T) {
	in := []CountryRecord{
		withTotal("a", float64Ptr(5)),
		withTotal("b", float64Ptr(5)),
		withTotal("c", float64Ptr(9)),
	}
	once := Rank(in)
	twice := Rank(once)
	assert.Equal(t, ids(once), ids(twice))
	for i := range once {
		assert.Equal(t, *once[i].Rank, *twice[i].Rank)
	}
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		total float64
		want  RiskLevel
	}{
		{10, RiskLow},
		{7.5, RiskLow},
		{7.49999, RiskMedium},
		{7.49, RiskMedium},
		{6.73, RiskMedium},
		{6.0, RiskMedium},
		{5.9999, RiskHigh},
		{5.99, RiskHigh},
		{0, RiskHigh},
		{-1, RiskHigh},
		{math.NaN(), RiskHigh},
	}
	for _, tt := range tests {
		if got := Classify(tt.total); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestRiskLevelLabel(t *testing.T) {
	assert.Equal(t, "Low Risk", RiskLow.Label())
	assert.Equal(t, "Medium Risk", RiskMedium.Label())
	assert.Equal(t, "High Risk", RiskHigh.Label())
	assert.Equal(t, "Unknown", RiskLevel("").Label())
}
