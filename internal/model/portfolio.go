package model

// Eps is the numeric tolerance used throughout the system for equality and
// dominance comparisons (§9).
const Eps = 5e-4

// Portfolio is an ordered list of (Panel, probability) pairs with
// non-negative probabilities summing to 1 within Eps.
type Portfolio struct {
	Panels  []Panel
	Weights []float64
}

// Add appends a panel/weight pair, growing the portfolio monotonically as
// column generation requires.
func (p *Portfolio) Add(panel Panel, weight float64) {
	p.Panels = append(p.Panels, panel)
	p.Weights = append(p.Weights, weight)
}

// Index returns the position of panel in the portfolio, or -1 if absent.
func (p *Portfolio) Index(panel Panel) int {
	for i, existing := range p.Panels {
		if existing.Key() == panel.Key() {
			return i
		}
	}
	return -1
}

// Contains reports whether panel is already part of the portfolio.
func (p *Portfolio) Contains(panel Panel) bool { return p.Index(panel) >= 0 }

// WeightSum returns the sum of all weights.
func (p *Portfolio) WeightSum() float64 {
	sum := 0.0
	for _, w := range p.Weights {
		sum += w
	}
	return sum
}

// Marginals computes, for each agent appearing in any panel, the sum of the
// weights of panels containing it — i.e. Σ_{P ∋ i} weight(P).
func (p *Portfolio) Marginals() map[AgentID]float64 {
	out := map[AgentID]float64{}
	for i, panel := range p.Panels {
		w := p.Weights[i]
		for _, id := range panel.Members() {
			out[id] += w
		}
	}
	return out
}

// FixedProbabilities is the agent-id -> finalized marginal probability
// mapping built up by the LEXIMIN engine's outer loop (§4.5). It only grows;
// the one exception (bounded downward relaxation under numeric infeasibility)
// is handled explicitly by the engine, not by this type.
type FixedProbabilities map[AgentID]float64

// Unfixed returns the agent ids in pool that are not yet keys of f.
func (f FixedProbabilities) Unfixed(pool []AgentID) []AgentID {
	out := make([]AgentID, 0, len(pool))
	for _, id := range pool {
		if _, ok := f[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns an independent copy.
func (f FixedProbabilities) Clone() FixedProbabilities {
	out := make(FixedProbabilities, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
