package scoring

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func float64Ptr(v float64) *float64 { return &v }

func scores(infra, reg, market, stab, partners float64) map[Factor]float64 {
	return map[Factor]float64{
		FactorInfrastructure: infra,
		FactorRegulation:     reg,
		FactorMarketDemand:   market,
		FactorStability:      stab,
		FactorPartnerships:   partners,
	}
}

func sampleCountries() []CountryRecord {
	return []CountryRecord{
		{ID: "nigeria", Name: "Nigeria", Code: "NG", Scores: scores(6.2, 5.8, 8.5, 5.4, 7.2)},
		{ID: "ghana", Name: "Ghana", Code: "GH", Scores: scores(6.8, 7.2, 6.5, 7.8, 6.7)},
		{ID: "south-africa", Name: "South Africa", Code: "ZA", Scores: scores(8.5, 7.5, 7.2, 6.2, 8.3)},
		{ID: "kenya", Name: "Kenya", Code: "KE", Scores: scores(6.5, 6.8, 7.4, 6.6, 7.5)},
		{ID: "egypt", Name: "Egypt", Code: "EG", Scores: scores(7.4, 5.5, 7.8, 5.2, 6.9)},
		{ID: "morocco", Name: "Morocco", Code: "MA", Scores: scores(7.8, 6.9, 6.7, 7.5, 7.2)},
	}
}

func equalFive() WeightVector {
	return WeightVector{
		{Factor: FactorInfrastructure, Value: 20},
		{Factor: FactorRegulation, Value: 20},
		{Factor: FactorMarketDemand, Value: 20},
		{Factor: FactorStability, Value: 20},
		{Factor: FactorPartnerships, Value: 20},
	}
}

func values(w WeightVector) []float64 {
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v.Value
	}
	return out
}
