package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToTotal(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}
	if w.Sum() != TotalWeight {
		t.Errorf("default weights sum to %f, expected %f", w.Sum(), TotalWeight)
	}
	for i, f := range Factors() {
		if w[i].Factor != f {
			t.Errorf("weight %d is %s, expected %s", i, w[i].Factor, f)
		}
	}
}

func TestEqualWeights(t *testing.T) {
	assert.Equal(t, []float64{20, 20, 20, 20, 20}, values(EqualWeights(Factors())))
	assert.Equal(t, []float64{35, 35, 30}, values(EqualWeights([]Factor{FactorInfrastructure, FactorRegulation, FactorStability})))
	assert.Empty(t, EqualWeights(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights WeightVector
		wantErr string
	}{
		{"default", DefaultWeights(), ""},
		{"empty", WeightVector{}, "empty"},
		{"unknown factor", WeightVector{{Factor: "weather", Value: 100}}, "unknown factor"},
		{"duplicate", WeightVector{{Factor: FactorStability, Value: 50}, {Factor: FactorStability, Value: 50}}, "duplicate factor"},
		{"negative", WeightVector{{Factor: FactorStability, Value: 110}, {Factor: FactorRegulation, Value: -10}}, "negative weight"},
		{"short sum", WeightVector{{Factor: FactorStability, Value: 60}, {Factor: FactorRegulation, Value: 30}}, "must sum to 100"},
		{"off step", WeightVector{{Factor: FactorStability, Value: 33}, {Factor: FactorRegulation, Value: 67}}, "multiple of 5"},
		{"fractional off step", WeightVector{{Factor: FactorStability, Value: 52.5}, {Factor: FactorRegulation, Value: 47.5}}, "multiple of 5"},
		{"float noise on step", WeightVector{{Factor: FactorStability, Value: 60.0000001}, {Factor: FactorRegulation, Value: 39.9999999}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRebalance(t *testing.T) {
	tests := []struct {
		name    string
		current WeightVector
		factor  Factor
		value   float64
		want    []float64
	}{
		{
			name:    "proportional redistribution",
			current: equalFive(),
			factor:  FactorInfrastructure,
			value:   40,
			want:    []float64{40, 15, 15, 15, 15},
		},
		{
			name:    "edit keeps sum, nothing else moves",
			current: WeightVector{{Factor: FactorInfrastructure, Value: 95}, {Factor: FactorRegulation, Value: 0}, {Factor: FactorStability, Value: 0}},
			factor:  FactorInfrastructure,
			value:   100,
			want:    []float64{100, 0, 0},
		},
		{
			name:    "others all zero gives edited the whole budget",
			current: WeightVector{{Factor: FactorInfrastructure, Value: 100}, {Factor: FactorRegulation, Value: 0}, {Factor: FactorStability, Value: 0}},
			factor:  FactorInfrastructure,
			value:   40,
			want:    []float64{100, 0, 0},
		},
		{
			name:    "clamped above total",
			current: equalFive(),
			factor:  FactorStability,
			value:   250,
			want:    []float64{0, 0, 0, 100, 0},
		},
		{
			name:    "clamped below zero",
			current: equalFive(),
			factor:  FactorPartnerships,
			value:   -30,
			want:    []float64{25, 25, 25, 25, 0},
		},
		{
			name:    "snapped to step",
			current: equalFive(),
			factor:  FactorRegulation,
			value:   42.5,
			want:    []float64{15, 45, 15, 15, 10},
		},
		{
			name:    "small remainder capped so nothing goes negative",
			current: equalFive(),
			factor:  FactorInfrastructure,
			value:   90,
			want:    []float64{90, 5, 5, 0, 0},
		},
		{
			name:    "last factor edited, previous one absorbs",
			current: equalFive(),
			factor:  FactorPartnerships,
			value:   60,
			want:    []float64{10, 10, 10, 10, 60},
		},
		{
			name:    "zero weights scale only the nonzero ones",
			current: WeightVector{{Factor: FactorInfrastructure, Value: 100}, {Factor: FactorRegulation, Value: 0}, {Factor: FactorMarketDemand, Value: 0}, {Factor: FactorStability, Value: 0}, {Factor: FactorPartnerships, Value: 0}},
			factor:  FactorRegulation,
			value:   40,
			want:    []float64{60, 40, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rebalance(tt.current, tt.factor, tt.value)
			assert.Equal(t, tt.want, values(got))
			assert.Equal(t, TotalWeight, got.Sum())
		})
	}
}

func TestRebalanceDoesNotMutateInput(t *testing.T) {
	current := DefaultWeights()
	before := values(current)
	_ = Rebalance(current, FactorMarketDemand, 70)
	assert.Equal(t, before, values(current))
}

func TestRebalanceUnknownFactor(t *testing.T) {
	current := DefaultWeights()
	got := Rebalance(current, Factor("weather"), 50)
	assert.Equal(t, values(current), values(got))

	got[0].Value = 0
	assert.Equal(t, 25.0, current[0].Value, "result must be a copy")
}

func TestRebalanceIdempotent(t *testing.T) {
	for _, w := range []WeightVector{DefaultWeights(), equalFive()} {
		for _, f := range Factors() {
			v, _ := w.Get(f)
			assert.Equal(t, values(w), values(Rebalance(w, f, v)), "factor %s", f)
		}
	}
}

func TestRebalanceAlwaysSumsToTotal(t *testing.T) {
	starts := []WeightVector{
		DefaultWeights(),
		equalFive(),
		{{Factor: FactorInfrastructure, Value: 100}, {Factor: FactorRegulation, Value: 0}, {Factor: FactorMarketDemand, Value: 0}, {Factor: FactorStability, Value: 0}, {Factor: FactorPartnerships, Value: 0}},
		{{Factor: FactorInfrastructure, Value: 5}, {Factor: FactorRegulation, Value: 5}, {Factor: FactorMarketDemand, Value: 5}, {Factor: FactorStability, Value: 5}, {Factor: FactorPartnerships, Value: 80}},
		{{Factor: FactorInfrastructure, Value: 35}, {Factor: FactorRegulation, Value: 25}, {Factor: FactorMarketDemand, Value: 15}, {Factor: FactorStability, Value: 15}, {Factor: FactorPartnerships, Value: 10}},
	}

	for _, start := range starts {
		for _, f := range Factors() {
			for v := -20.0; v <= 120; v += 2.5 {
				got := Rebalance(start, f, v)
				require.Equal(t, TotalWeight, got.Sum(), "start=%v factor=%s value=%v", values(start), f, v)
				for _, w := range got {
					require.GreaterOrEqual(t, w.Value, 0.0, "start=%v factor=%s value=%v", values(start), f, v)
					require.Zero(t, math.Mod(w.Value, WeightStep), "start=%v factor=%s value=%v", values(start), f, v)
				}
				require.NoError(t, got.Validate())
			}
		}
	}
}

func TestRebalanceChainKeepsInvariant(t *testing.T) {
	w := DefaultWeights()
	edits := []struct {
		f Factor
		v float64
	}{
		{FactorInfrastructure, 50},
		{FactorStability, 5},
		{FactorPartnerships, 100},
		{FactorRegulation, 35},
		{FactorMarketDemand, 0},
		{FactorInfrastructure, 12},
	}
	for _, e := range edits {
		w = Rebalance(w, e.f, e.v)
		require.NoError(t, w.Validate(), "after %s=%v", e.f, e.v)
	}
}
