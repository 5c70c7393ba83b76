package scoring

// ComputeFrontier returns the countries no other country beats on every
// factor. A country is dominated if another scores >= on all catalog factors
// and strictly higher on at least one. A missing factor counts as MinScore.
// Input order is preserved.
// O(n^2) dominance check, fine for a country list.
func ComputeFrontier(records []CountryRecord) []CountryRecord {
	if len(records) <= 1 {
		return records
	}

	factors := Factors()
	var frontier []CountryRecord
	for i := range records {
		dominated := false
		for j := range records {
			if i == j {
				continue
			}
			if dominates(records[j], records[i], factors) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, records[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b.
func dominates(a, b CountryRecord, factors []Factor) bool {
	strictly := false
	for _, f := range factors {
		av, bv := scoreOf(a, f), scoreOf(b, f)
		if av < bv {
			return false
		}
		if av > bv {
			strictly = true
		}
	}
	return strictly
}

func scoreOf(r CountryRecord, f Factor) float64 {
	if v, ok := r.Scores[f]; ok && usable(v) {
		return v
	}
	return MinScore
}
