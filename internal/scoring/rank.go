package scoring

import (
	"math"
	"sort"
)

// Rank returns a copy of records ordered by TotalScore descending with Rank
// set to 1..N. Ties keep their input order and records without a total sort
// last. The input slice is not reordered.
func Rank(records []CountryRecord) []CountryRecord {
	out := make([]CountryRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) > sortKey(out[j])
	})
	for i := range out {
		rank := i + 1
		out[i].Rank = &rank
	}
	return out
}

func sortKey(r CountryRecord) float64 {
	if r.TotalScore == nil || math.IsNaN(*r.TotalScore) {
		return math.Inf(-1)
	}
	return *r.TotalScore
}
