// Package legacy implements the randomized greedy sampler (§4.2): draws one
// feasible panel at a time using most-constrained-feature-first tie-breaking,
// restarting on failure.
package legacy

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"sortition/internal/model"
)

// Config controls the sampler's restart behavior.
type Config struct {
	// MaxAttempts bounds the number of panel-construction attempts for a
	// single Sample call. Zero means unbounded (caller relies on ctx instead).
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 0}
}

func (c Config) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("legacy: MaxAttempts must be >= 0 (got %d)", c.MaxAttempts)
	}
	return nil
}

// Sampler draws feasible panels via restartable randomized greedy
// construction.
type Sampler struct {
	Cfg Config
	Rng *rand.Rand
}

// New returns a sampler bound to an externally-seeded random generator.
// Two consecutive runs with seeds 0 and 1 must be reproducible; callers own
// seeding, mirroring the teacher's pattern of passing a *rand.Rand into every
// solver rather than touching the global generator.
func New(cfg Config, rng *rand.Rand) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("legacy: rng is nil")
	}
	return &Sampler{Cfg: cfg, Rng: rng}, nil
}

// featureCounter tracks selected/remaining for one feature value across a
// single sampling attempt.
type featureCounter struct {
	key       model.FeatureKey
	min, max  int
	selected  int
	remaining int
}

// scratch is the per-attempt mutable state (§9 "cyclic references / mutable
// deep copy"): an immutable *model.Instance plus a small live-counter
// structure rebuilt every attempt instead of deep-cloning the whole instance.
type scratch struct {
	inst *model.Instance

	counters   map[model.FeatureKey]*featureCounter
	order      []model.FeatureKey // first-seen order, for stable tie-breaking
	remaining  map[model.AgentID]bool
	households map[string]bool // households already used by a selected agent
}

func newScratch(inst *model.Instance) *scratch {
	s := &scratch{
		inst:       inst,
		counters:   make(map[model.FeatureKey]*featureCounter),
		remaining:  make(map[model.AgentID]bool),
		households: make(map[string]bool),
	}
	for _, key := range inst.CategoryKeys() {
		q, _ := inst.Quota(key)
		s.counters[key] = &featureCounter{
			key: key, min: q.Min, max: q.Max, remaining: len(inst.HoldersOf(key)),
		}
		s.order = append(s.order, key)
	}
	for _, id := range inst.AgentIDs() {
		s.remaining[id] = true
	}
	return s
}

// pickFeature implements step 1-2: the feature value with the largest
// deficit ratio among those with remaining>0 and max>0, ties broken by
// first-seen order. Returns ok=false with a failure if any feature is
// already impossible to satisfy.
func (s *scratch) pickFeature() (model.FeatureKey, bool, error) {
	bestIdx := -1
	bestRatio := -1.0
	for i, key := range s.order {
		c := s.counters[key]
		if c.max <= 0 {
			continue
		}
		deficit := c.min - c.selected
		if c.remaining < deficit {
			return model.FeatureKey{}, false, fmt.Errorf("legacy: feature %s unreachable (remaining %d < deficit %d)", key, c.remaining, deficit)
		}
		if c.remaining == 0 {
			continue
		}
		ratio := float64(deficit) / float64(c.remaining)
		if ratio > bestRatio {
			bestRatio = ratio
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		// Nothing left to constrain on; any remaining agent will do, signaled
		// by the caller falling back to a uniform pick over all remaining ids.
		return model.FeatureKey{}, false, nil
	}
	if bestRatio > 1 {
		return model.FeatureKey{}, false, fmt.Errorf("legacy: feature %s over deficit (ratio %.4f)", s.order[bestIdx], bestRatio)
	}
	return s.order[bestIdx], true, nil
}

func (s *scratch) remainingHoldersOf(key model.FeatureKey) []model.AgentID {
	var out []model.AgentID
	for _, id := range s.inst.HoldersOf(key) {
		if s.remaining[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *scratch) remainingAgents() []model.AgentID {
	var out []model.AgentID
	for _, id := range s.inst.AgentIDs() {
		if s.remaining[id] {
			out = append(out, id)
		}
	}
	return out
}

// removeAgent deletes id from the live set and updates every feature
// counter it holds. Returns an error if a feature becomes unreachable as a
// result.
func (s *scratch) removeAgent(id model.AgentID) error {
	if !s.remaining[id] {
		return nil
	}
	s.remaining[id] = false
	agent, ok := s.inst.Agent(id)
	if !ok {
		return fmt.Errorf("legacy: unknown agent %s", id)
	}
	for _, key := range s.inst.CategoryKeys() {
		if agent.Features[key.Category] != key.Value {
			continue
		}
		c := s.counters[key]
		c.remaining--
		if c.remaining == 0 && c.selected < c.min {
			return fmt.Errorf("legacy: feature %s exhausted below min (selected %d < min %d)", key, c.selected, c.min)
		}
	}
	return nil
}

// selectAgent implements steps 4-6 for a chosen agent.
func (s *scratch) selectAgent(id model.AgentID) error {
	agent, ok := s.inst.Agent(id)
	if !ok {
		return fmt.Errorf("legacy: unknown agent %s", id)
	}
	// Count the agent as selected before removing it from the live set, so
	// removeAgent's exhausted-below-min check sees the updated count.
	for _, key := range s.inst.CategoryKeys() {
		if agent.Features[key.Category] == key.Value {
			s.counters[key].selected++
		}
	}
	if err := s.removeAgent(id); err != nil {
		return err
	}
	for _, key := range s.inst.CategoryKeys() {
		if agent.Features[key.Category] != key.Value {
			continue
		}
		c := s.counters[key]
		if c.selected == c.max {
			for _, other := range s.remainingHoldersOf(key) {
				if err := s.removeAgent(other); err != nil {
					return err
				}
			}
		}
	}
	if s.inst.Households {
		h := s.inst.Household(id)
		if h != "" {
			s.households[h] = true
			for _, other := range s.remainingAgents() {
				if s.inst.Household(other) == h {
					if err := s.removeAgent(other); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (s *scratch) satisfiesQuotas() bool {
	for _, c := range s.counters {
		if c.selected < c.min {
			return false
		}
	}
	return true
}

// SampleFor draws one feasible panel for inst, restarting on attempt failure
// until success, ctx cancellation, or Cfg.MaxAttempts is exhausted.
func (sam *Sampler) SampleFor(ctx context.Context, inst *model.Instance) (model.Panel, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return model.Panel{}, err
		}
		attempts++
		panel, err := sam.attemptFor(inst)
		if err == nil {
			return panel, nil
		}
		if sam.Cfg.MaxAttempts > 0 && attempts >= sam.Cfg.MaxAttempts {
			return model.Panel{}, fmt.Errorf("legacy: exhausted %d attempts: %w", attempts, err)
		}
	}
}

func (sam *Sampler) attemptFor(inst *model.Instance) (model.Panel, error) {
	s := newScratch(inst)
	var chosen []model.AgentID

	for len(chosen) < inst.K {
		key, ok, err := s.pickFeature()
		if err != nil {
			return model.Panel{}, err
		}

		var pool []model.AgentID
		if ok {
			pool = s.remainingHoldersOf(key)
		} else {
			pool = s.remainingAgents()
		}
		if len(pool) == 0 {
			return model.Panel{}, fmt.Errorf("legacy: no remaining agents to select")
		}

		id := pool[sam.Rng.Intn(len(pool))]
		if err := s.selectAgent(id); err != nil {
			return model.Panel{}, err
		}
		chosen = append(chosen, id)
	}

	if !s.satisfiesQuotas() {
		return model.Panel{}, fmt.Errorf("legacy: panel failed quota check after %d selections", len(chosen))
	}

	return model.NewPanel(chosen), nil
}

// MonteCarlo runs n independent Sample attempts (restarting internally on
// failure, per Sampler.SampleFor) and accumulates marginal probabilities, the
// set of unique panels seen, and their pairwise co-occurrence histogram —
// the exact result shape §6 assigns to LEGACY.
func (sam *Sampler) MonteCarlo(ctx context.Context, inst *model.Instance, n int) (map[model.AgentID]float64, []model.Panel, model.PairHistogram, error) {
	marginals := make(map[model.AgentID]float64, len(inst.Agents))
	seen := make(map[string]model.Panel)
	hist := make(model.PairHistogram)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		panel, err := sam.SampleFor(ctx, inst)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("legacy: monte carlo iteration %d: %w", i, err)
		}
		seen[panel.Key()] = panel
		for _, id := range panel.Members() {
			marginals[id]++
		}
		hist.AddPanel(panel.Members(), 1)
	}

	for id := range marginals {
		marginals[id] /= float64(n)
	}
	for k := range hist {
		hist[k] /= float64(n)
	}

	panels := make([]model.Panel, 0, len(seen))
	for _, p := range seen {
		panels = append(panels, p)
	}
	sort.Slice(panels, func(i, j int) bool { return panels[i].Key() < panels[j].Key() })

	return marginals, panels, hist, nil
}
