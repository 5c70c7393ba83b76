package scoring

// Factor is a named dimension of the country assessment.
type Factor string

const (
	FactorInfrastructure Factor = "infrastructure"
	FactorRegulation     Factor = "regulation"
	FactorMarketDemand   Factor = "market_demand"
	FactorStability      Factor = "stability"
	FactorPartnerships   Factor = "partnerships"
)

// Factor scores live on a 0–10 scale. Ingestion clamps into this range.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// FactorInfo describes a factor for display.
type FactorInfo struct {
	Factor      Factor `json:"factor"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

var catalog = []FactorInfo{
	{
		Factor:      FactorInfrastructure,
		DisplayName: "Infrastructure",
		Description: "Quality and availability of physical infrastructure including power, transport, and telecommunications",
	},
	{
		Factor:      FactorRegulation,
		DisplayName: "Regulation",
		Description: "Regulatory environment, ease of doing business, and legal frameworks",
	},
	{
		Factor:      FactorMarketDemand,
		DisplayName: "Market Demand",
		Description: "Size of market, growth potential, and consumer purchasing power",
	},
	{
		Factor:      FactorStability,
		DisplayName: "Stability",
		Description: "Political stability, economic stability, and security situation",
	},
	{
		Factor:      FactorPartnerships,
		DisplayName: "Partnerships",
		Description: "Availability of local partners, trade agreements, and international relations",
	},
}

// Catalog returns the factor descriptions in canonical order.
func Catalog() []FactorInfo {
	out := make([]FactorInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Factors returns the factors in canonical order. This order is the
// iteration order used by Rebalance.
func Factors() []Factor {
	out := make([]Factor, len(catalog))
	for i, info := range catalog {
		out[i] = info.Factor
	}
	return out
}

// Valid reports whether f is part of the catalog.
func (f Factor) Valid() bool {
	for _, info := range catalog {
		if info.Factor == f {
			return true
		}
	}
	return false
}

// FactorResult captures one factor's contribution to a country's total score.
type FactorResult struct {
	Name      Factor  `json:"name"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Weighted  float64 `json:"weighted"`
	Available bool    `json:"available"`
	Reason    string  `json:"reason"`
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
