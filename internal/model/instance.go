// Package model holds the immutable description of a selection problem: the
// agent pool, per-feature-value quotas, the target panel size, and optional
// household grouping.
package model

import (
	"fmt"
	"sort"
)

// AgentID identifies a pool member. Supplied by the (out-of-scope) instance
// loader; this package never mints one.
type AgentID string

// FeatureCategory is the name of a stratification category, e.g. "age".
type FeatureCategory string

// FeatureValue is one value within a category, e.g. "18-30".
type FeatureValue string

// FeatureKey identifies a (category, value) pair uniquely across the whole
// instance.
type FeatureKey struct {
	Category FeatureCategory
	Value    FeatureValue
}

func (k FeatureKey) String() string {
	return fmt.Sprintf("%s:%s", k.Category, k.Value)
}

// Agent is one pool member: a mapping from category to the feature value they
// hold, plus an optional household key.
type Agent struct {
	ID        AgentID
	Features  map[FeatureCategory]FeatureValue
	Household string // empty means "no household constraint for this agent"
}

// Quota is the (min, max) bound on how many panel members may hold a given
// feature value.
type Quota struct {
	Key FeatureKey
	Min int
	Max int
}

// Instance is the immutable description of one selection problem. Build it
// once per run with NewInstance; LEGACY works against per-attempt scratch
// copies of the dynamic counters only (see internal/legacy), never against a
// mutated Instance.
type Instance struct {
	K          int
	Agents     []Agent
	Quotas     []Quota
	Households bool // true if at least one household has >=2 members

	byID        map[AgentID]*Agent
	quotaByKey  map[FeatureKey]Quota
	holdersOf   map[FeatureKey][]AgentID
	householdOf map[AgentID]string
}

// NewInstance validates and indexes a raw instance description.
func NewInstance(k int, agents []Agent, quotas []Quota) (*Instance, error) {
	inst := &Instance{K: k, Agents: agents, Quotas: quotas}
	inst.reindex()
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) reindex() {
	inst.byID = make(map[AgentID]*Agent, len(inst.Agents))
	inst.quotaByKey = make(map[FeatureKey]Quota, len(inst.Quotas))
	inst.holdersOf = make(map[FeatureKey][]AgentID)
	inst.householdOf = make(map[AgentID]string)

	householdCounts := map[string]int{}

	for i := range inst.Agents {
		a := &inst.Agents[i]
		inst.byID[a.ID] = a
		if a.Household != "" {
			inst.householdOf[a.ID] = a.Household
			householdCounts[a.Household]++
		}
		for cat, val := range a.Features {
			key := FeatureKey{Category: cat, Value: val}
			inst.holdersOf[key] = append(inst.holdersOf[key], a.ID)
		}
	}
	for _, q := range inst.Quotas {
		inst.quotaByKey[q.Key] = q
	}
	for _, c := range householdCounts {
		if c >= 2 {
			inst.Households = true
			break
		}
	}
}

// Validate checks the preconditions from §6: every category's quota sum
// bounds k, and every agent's feature appears as a quota row.
func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("instance is nil")
	}
	if inst.K <= 0 {
		return fmt.Errorf("k must be > 0 (got %d)", inst.K)
	}
	if len(inst.Agents) == 0 {
		return fmt.Errorf("pool must not be empty")
	}
	if inst.K > len(inst.Agents) {
		return fmt.Errorf("k (%d) exceeds pool size (%d)", inst.K, len(inst.Agents))
	}

	byCategory := map[FeatureCategory][]Quota{}
	for _, q := range inst.Quotas {
		if q.Min < 0 {
			return fmt.Errorf("quota %s: min must be >= 0 (got %d)", q.Key, q.Min)
		}
		if q.Min > q.Max {
			return fmt.Errorf("quota %s: min (%d) must be <= max (%d)", q.Key, q.Min, q.Max)
		}
		byCategory[q.Key.Category] = append(byCategory[q.Key.Category], q)
	}

	for cat, quotas := range byCategory {
		minSum, maxSum := 0, 0
		for _, q := range quotas {
			minSum += q.Min
			maxSum += q.Max
		}
		if minSum > inst.K || inst.K > maxSum {
			return fmt.Errorf("category %s: quota sums [%d,%d] do not bracket k=%d", cat, minSum, maxSum, inst.K)
		}
	}

	for _, a := range inst.Agents {
		for cat, val := range a.Features {
			if _, ok := inst.quotaByKey[FeatureKey{Category: cat, Value: val}]; !ok {
				return fmt.Errorf("agent %s: feature %s:%s has no matching quota row", a.ID, cat, val)
			}
		}
	}
	return nil
}

// Agent looks up a pool member by id.
func (inst *Instance) Agent(id AgentID) (*Agent, bool) {
	a, ok := inst.byID[id]
	return a, ok
}

// Quota looks up the (min,max) bound for a feature key.
func (inst *Instance) Quota(key FeatureKey) (Quota, bool) {
	q, ok := inst.quotaByKey[key]
	return q, ok
}

// HoldersOf returns the agent ids holding a given feature key, in a stable
// (sorted) order so callers get deterministic iteration.
func (inst *Instance) HoldersOf(key FeatureKey) []AgentID {
	ids := inst.holdersOf[key]
	out := make([]AgentID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Household returns the household key for an agent, or "" if the agent has
// none.
func (inst *Instance) Household(id AgentID) string {
	return inst.householdOf[id]
}

// AgentIDs returns every pool member id in a stable order.
func (inst *Instance) AgentIDs() []AgentID {
	out := make([]AgentID, len(inst.Agents))
	for i, a := range inst.Agents {
		out[i] = a.ID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CategoryKeys returns every FeatureKey appearing in the quota table, in a
// stable order grouped by category.
func (inst *Instance) CategoryKeys() []FeatureKey {
	out := make([]FeatureKey, len(inst.Quotas))
	for i, q := range inst.Quotas {
		out[i] = q.Key
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Value < out[j].Value
	})
	return out
}
