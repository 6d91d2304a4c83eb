package model

import "sort"

// Panel is an unordered set of exactly K agent ids satisfying every quota and
// the household constraint. Immutable after construction; always construct
// through NewPanel so the canonical (sorted) key is available for set
// membership checks.
type Panel struct {
	ids []AgentID
	key string
}

// NewPanel builds a Panel from a set of agent ids. It does not itself verify
// feasibility against an Instance — callers (the feasibility IP, LEGACY) are
// the ones that know the constraints were respected during construction.
func NewPanel(ids []AgentID) Panel {
	sorted := make([]AgentID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return Panel{ids: sorted, key: joinIDs(sorted)}
}

// Members returns the panel's agent ids in canonical (sorted) order. The
// returned slice must not be mutated.
func (p Panel) Members() []AgentID { return p.ids }

// Len reports the panel size.
func (p Panel) Len() int { return len(p.ids) }

// Contains reports whether the given agent is a panel member.
func (p Panel) Contains(id AgentID) bool {
	i := sort.Search(len(p.ids), func(i int) bool { return p.ids[i] >= id })
	return i < len(p.ids) && p.ids[i] == id
}

// Key returns a canonical string key suitable for use as a map key or set
// membership test (e.g. "has LEGACY already found this panel?").
func (p Panel) Key() string { return p.key }

func joinIDs(ids []AgentID) string {
	// Each id is written with its length prefix so "ab","c" cannot collide
	// with "a","bc".
	buf := make([]byte, 0, 16*len(ids))
	for _, id := range ids {
		buf = append(buf, byte(len(id)>>8), byte(len(id)))
		buf = append(buf, id...)
	}
	return string(buf)
}

// Validate checks a panel against an instance's quotas and household rule.
// Used by tests; no production caller runs it after a solve or a sample.
func Validate(inst *Instance, p Panel) error {
	if p.Len() != inst.K {
		return &SelectionError{Reason: "panel size mismatch", Detail: p.Len()}
	}

	counts := map[FeatureKey]int{}
	for _, id := range p.ids {
		agent, ok := inst.Agent(id)
		if !ok {
			return &SelectionError{Reason: "unknown agent in panel", Detail: id}
		}
		for cat, val := range agent.Features {
			counts[FeatureKey{Category: cat, Value: val}]++
		}
	}
	for _, q := range inst.Quotas {
		c := counts[q.Key]
		if c < q.Min || c > q.Max {
			return &SelectionError{Reason: "quota violated", Detail: q.Key.String()}
		}
	}

	if inst.Households {
		seen := map[string]bool{}
		for _, id := range p.ids {
			h := inst.Household(id)
			if h == "" {
				continue
			}
			if seen[h] {
				return &SelectionError{Reason: "household constraint violated", Detail: h}
			}
			seen[h] = true
		}
	}
	return nil
}
