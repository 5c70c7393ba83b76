package scoring

import (
	"fmt"
	"math"
)

// Weights are expressed in percentage points.
const (
	TotalWeight = 100.0
	WeightStep  = 5.0

	weightSumTolerance = 0.001
)

// Weight is the share of the total assigned to one factor.
type Weight struct {
	Factor Factor  `json:"factor" yaml:"factor"`
	Value  float64 `json:"weight" yaml:"weight"`
}

// WeightVector is an ordered set of factor weights that must sum to
// TotalWeight. Treat it as immutable: every edit produces a new vector.
type WeightVector []Weight

// DefaultWeights returns the default distribution across the catalog.
func DefaultWeights() WeightVector {
	return WeightVector{
		{Factor: FactorInfrastructure, Value: 25},
		{Factor: FactorRegulation, Value: 20},
		{Factor: FactorMarketDemand, Value: 25},
		{Factor: FactorStability, Value: 15},
		{Factor: FactorPartnerships, Value: 15},
	}
}

// EqualWeights splits TotalWeight across factors in WeightStep increments.
// The last factor takes whatever the others leave over.
func EqualWeights(factors []Factor) WeightVector {
	if len(factors) == 0 {
		return WeightVector{}
	}
	share := snapToStep(TotalWeight / float64(len(factors)))
	out := make(WeightVector, len(factors))
	var assigned float64
	for i, f := range factors {
		v := math.Min(share, TotalWeight-assigned)
		if i == len(factors)-1 {
			v = TotalWeight - assigned
		}
		out[i] = Weight{Factor: f, Value: v}
		assigned += v
	}
	return out
}

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v.Value
	}
	return sum
}

// Get returns the weight of f.
func (w WeightVector) Get(f Factor) (float64, bool) {
	if i := w.index(f); i >= 0 {
		return w[i].Value, true
	}
	return 0, false
}

// Clone returns an independent copy.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	copy(out, w)
	return out
}

// Map returns the weights keyed by factor.
func (w WeightVector) Map() map[Factor]float64 {
	m := make(map[Factor]float64, len(w))
	for _, v := range w {
		m[v.Factor] = v.Value
	}
	return m
}

// Scale multiplies every weight by k.
func (w WeightVector) Scale(k float64) WeightVector {
	out := w.Clone()
	for i := range out {
		out[i].Value *= k
	}
	return out
}

// Validate checks that weights cover known factors once each, none are
// negative and they sum to TotalWeight.
func (w WeightVector) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weight vector is empty")
	}
	seen := make(map[Factor]bool, len(w))
	for _, v := range w {
		if !v.Factor.Valid() {
			return fmt.Errorf("unknown factor: %q", v.Factor)
		}
		if seen[v.Factor] {
			return fmt.Errorf("duplicate factor: %q", v.Factor)
		}
		seen[v.Factor] = true
		if v.Value < 0 || math.IsNaN(v.Value) {
			return fmt.Errorf("negative weight for %s: %f", v.Factor, v.Value)
		}
		if !onStep(v.Value) {
			return fmt.Errorf("weight for %s is %g, must be a multiple of %.0f", v.Factor, v.Value, WeightStep)
		}
	}
	if math.Abs(w.Sum()-TotalWeight) > weightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, must sum to %.0f", w.Sum(), TotalWeight)
	}
	return nil
}

func (w WeightVector) index(f Factor) int {
	for i, v := range w {
		if v.Factor == f {
			return i
		}
	}
	return -1
}

// Rebalance sets edited to newValue and redistributes the rest of the
// budget over the other factors in proportion to their previous weights.
//
// newValue is clamped to [0, TotalWeight] and snapped to WeightStep. When the
// edit alone keeps the sum at TotalWeight nothing else moves. When every other
// factor is at zero there is nothing to scale, so edited takes the whole
// budget. Otherwise each other factor gets its proportional share snapped to
// WeightStep, capped by what is left, and the last one in order takes the
// residual. The result always sums to exactly TotalWeight.
//
// current is never modified. An unknown factor yields an unchanged copy.
func Rebalance(current WeightVector, edited Factor, newValue float64) WeightVector {
	next := current.Clone()
	idx := next.index(edited)
	if idx < 0 {
		return next
	}

	if math.IsNaN(newValue) {
		newValue = current[idx].Value
	}
	value := snapToStep(clamp(newValue, 0, TotalWeight))
	next[idx].Value = value
	if next.Sum() == TotalWeight {
		return next
	}

	var othersTotal float64
	for i, w := range current {
		if i != idx && w.Value > 0 {
			othersTotal += w.Value
		}
	}

	if othersTotal <= 0 {
		for i := range next {
			next[i].Value = 0
		}
		next[idx].Value = TotalWeight
		return next
	}

	remainder := TotalWeight - value
	last := len(current) - 1
	if last == idx {
		last--
	}

	var assigned float64
	for i, w := range current {
		if i == idx {
			continue
		}
		if i == last {
			next[i].Value = remainder - assigned
			break
		}
		portion := snapToStep(math.Max(w.Value, 0) / othersTotal * remainder)
		portion = math.Min(portion, remainder-assigned)
		next[i].Value = portion
		assigned += portion
	}
	return next
}

func onStep(v float64) bool {
	return math.Abs(v-snapToStep(v)) <= weightSumTolerance
}

func snapToStep(v float64) float64 {
	return math.Round(v/WeightStep) * WeightStep
}
