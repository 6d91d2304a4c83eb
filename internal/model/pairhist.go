package model

// PairKey is a canonical ordered pair (i,j) with i < j, used so that the
// histogram can be looked up by either ordering of two agent ids (§6, §9).
type PairKey struct {
	Lo AgentID
	Hi AgentID
}

func NewPairKey(a, b AgentID) PairKey {
	if a < b {
		return PairKey{Lo: a, Hi: b}
	}
	return PairKey{Lo: b, Hi: a}
}

// PairHistogram accumulates co-occurrence mass for every pair of agents that
// ever appeared together in a sampled panel.
type PairHistogram map[PairKey]float64

// Add accumulates delta onto the (a,b) pair, canonicalizing the key
// regardless of the order a,b are passed in.
func (h PairHistogram) Add(a, b AgentID, delta float64) {
	if a == b {
		return
	}
	h[NewPairKey(a, b)] += delta
}

// Get returns the accumulated value for (a,b), canonicalizing the lookup.
func (h PairHistogram) Get(a, b AgentID) float64 {
	return h[NewPairKey(a, b)]
}

// AddPanel records every pairwise co-occurrence within a sampled panel,
// weighted by weight (a count of 1 for a single LEGACY draw, or a portfolio
// weight for LEXIMIN/XMIN panels).
func (h PairHistogram) AddPanel(members []AgentID, weight float64) {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			h.Add(members[i], members[j], weight)
		}
	}
}
