package scoring

import (
	"testing"
)

func TestComputeFrontier(t *testing.T) {
	records := []CountryRecord{
		{ID: "strong", Scores: scores(8, 8, 8, 8, 8)},
		{ID: "weaker", Scores: scores(7, 7, 7, 7, 7)},
		{ID: "specialist", Scores: scores(9, 1, 1, 1, 1)},
		{ID: "partial", Scores: map[Factor]float64{FactorInfrastructure: 8}},
	}

	frontier := ComputeFrontier(records)
	if len(frontier) != 2 {
		t.Fatalf("expected 2 on frontier, got %d: %v", len(frontier), ids(frontier))
	}
	if frontier[0].ID != "strong" || frontier[1].ID != "specialist" {
		t.Errorf("unexpected frontier %v", ids(frontier))
	}
}

func TestComputeFrontierEqualRecords(t *testing.T) {
	records := []CountryRecord{
		{ID: "a", Scores: scores(5, 5, 5, 5, 5)},
		{ID: "b", Scores: scores(5, 5, 5, 5, 5)},
	}
	if got := ComputeFrontier(records); len(got) != 2 {
		t.Errorf("identical records do not dominate each other, got %v", ids(got))
	}
}

func TestComputeFrontierSampleCountries(t *testing.T) {
	frontier := ComputeFrontier(sampleCountries())
	for _, r := range frontier {
		if r.ID == "kenya" {
			return
		}
	}
	t.Errorf("kenya is not dominated and should be on the frontier, got %v", ids(frontier))
}

func TestComputeFrontierSmallInput(t *testing.T) {
	if got := ComputeFrontier(nil); len(got) != 0 {
		t.Errorf("expected empty frontier, got %d", len(got))
	}
	one := []CountryRecord{{ID: "only"}}
	if got := ComputeFrontier(one); len(got) != 1 {
		t.Errorf("expected single record, got %d", len(got))
	}
}
