package ingest

import (
	"strings"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

var aliases = map[string]scoring.Factor{
	"infrastructure": scoring.FactorInfrastructure,
	"infra":          scoring.FactorInfrastructure,
	"regulation":     scoring.FactorRegulation,
	"regulations":    scoring.FactorRegulation,
	"regulatory":     scoring.FactorRegulation,
	"market_demand":  scoring.FactorMarketDemand,
	"marketdemand":   scoring.FactorMarketDemand,
	"market":         scoring.FactorMarketDemand,
	"demand":         scoring.FactorMarketDemand,
	"stability":      scoring.FactorStability,
	"partnerships":   scoring.FactorPartnerships,
	"partnership":    scoring.FactorPartnerships,
	"partners":       scoring.FactorPartnerships,
}

// ParseFactor resolves a source field name to a catalog factor. Matching is
// case-insensitive and treats '-' and ' ' like '_', so "marketDemand",
// "market-demand" and "Market Demand" all resolve.
func ParseFactor(name string) (scoring.Factor, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	f, ok := aliases[key]
	return f, ok
}
