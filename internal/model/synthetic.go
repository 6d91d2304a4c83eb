package model

import (
	"fmt"
	"math/rand"
)

// CategorySpec describes one stratification category for RandomInstance: a
// name and the list of feature values it can take.
type CategorySpec struct {
	Name   FeatureCategory
	Values []FeatureValue
}

// RandomInstance synthesizes a feasible selection problem for benchmarking,
// mirroring the teacher's flowshop.RandomInstance: deterministic given rng,
// panics on malformed parameters rather than threading an error back (the
// same choice the teacher made for its own generator, since callers only
// ever invoke it with caller-controlled constants).
func RandomInstance(poolSize, k int, categories []CategorySpec, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("model: rng is nil")
	}
	if poolSize <= 0 || k <= 0 || k > poolSize {
		panic("model: invalid poolSize/k")
	}
	if len(categories) == 0 {
		panic("model: at least one category required")
	}

	agents := make([]Agent, poolSize)
	counts := map[FeatureKey]int{}
	for i := 0; i < poolSize; i++ {
		features := make(map[FeatureCategory]FeatureValue, len(categories))
		for _, cat := range categories {
			v := cat.Values[rng.Intn(len(cat.Values))]
			features[cat.Name] = v
			counts[FeatureKey{Category: cat.Name, Value: v}]++
		}
		agents[i] = Agent{ID: AgentID(fmt.Sprintf("a%04d", i)), Features: features}
	}

	var quotas []Quota
	for _, cat := range categories {
		// Distribute k proportionally to each value's share of the pool, then
		// give every value a slack window so the instance stays feasible
		// regardless of rounding; widen the last value's window to absorb
		// whatever rounding slack the rest of the category leaves behind.
		catQuotas := make([]Quota, len(cat.Values))
		minSum, maxSum := 0, 0
		for i, v := range cat.Values {
			key := FeatureKey{Category: cat.Name, Value: v}
			share := float64(counts[key]) / float64(poolSize) * float64(k)
			target := int(share + 0.5)
			min := target - 1
			if min < 0 {
				min = 0
			}
			max := target + 1
			if max > counts[key] {
				max = counts[key]
			}
			if max < min {
				max = min
			}
			catQuotas[i] = Quota{Key: key, Min: min, Max: max}
			minSum += min
			maxSum += max
		}
		if last := len(catQuotas) - 1; minSum > k {
			catQuotas[last].Min -= minSum - k
			if catQuotas[last].Min < 0 {
				catQuotas[last].Min = 0
			}
		} else if last := len(catQuotas) - 1; maxSum < k {
			key := catQuotas[last].Key
			catQuotas[last].Max += k - maxSum
			if catQuotas[last].Max > counts[key] {
				catQuotas[last].Max = counts[key]
			}
		}
		quotas = append(quotas, catQuotas...)
	}

	inst, err := NewInstance(k, agents, quotas)
	if err != nil {
		panic(err)
	}
	return inst
}
