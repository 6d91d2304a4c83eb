// Package panelip builds the shared linear-constraint skeleton that both the
// feasibility IP (internal/feasibility) and the relaxation diagnoser
// (internal/diagnose) need: "exactly k members", "quota bounds per feature
// value", "at most one per household" (§4.1). Keeping it here, rather than in
// either of those packages, lets the diagnoser build its own (slack-relaxed)
// copy without importing the feasibility package, and the feasibility
// package delegates *to* the diagnoser on infeasibility without a cycle.
package panelip

import (
	"fmt"

	"sortition/internal/model"
	"sortition/internal/solver"
)

// AgentVarName is the IP variable name standing for "agent id is on the
// panel".
func AgentVarName(id model.AgentID) string {
	return "x:" + string(id)
}

// Households returns, for every household with >=2 members, the list of
// member ids. Households with a single member impose no constraint.
func Households(inst *model.Instance) map[string][]model.AgentID {
	out := map[string][]model.AgentID{}
	for _, id := range inst.AgentIDs() {
		h := inst.Household(id)
		if h == "" {
			continue
		}
		out[h] = append(out[h], id)
	}
	for h, members := range out {
		if len(members) < 2 {
			delete(out, h)
		}
	}
	return out
}

// AgentVars returns one Binary variable per pool member.
func AgentVars(inst *model.Instance) []solver.Var {
	ids := inst.AgentIDs()
	vars := make([]solver.Var, len(ids))
	for i, id := range ids {
		vars[i] = solver.Var{Name: AgentVarName(id), Kind: solver.Binary}
	}
	return vars
}

// SizeConstraint returns the "Σ_i x_i = k" row.
func SizeConstraint(inst *model.Instance) solver.Constraint {
	expr := solver.LinExpr{}
	for _, id := range inst.AgentIDs() {
		expr[AgentVarName(id)] = 1
	}
	return solver.Constraint{Name: "panel_size", Expr: expr, Op: solver.Equal, RHS: float64(inst.K)}
}

// QuotaConstraints returns the lower- and upper-bound rows for every feature
// value, as reported by quotaOf. The feasibility IP passes DefaultQuotaOf;
// the diagnoser does not call this function and builds its own quota rows
// with slack variables.
func QuotaConstraints(inst *model.Instance, quotaOf func(model.FeatureKey) (min, max int)) []solver.Constraint {
	var out []solver.Constraint
	for _, key := range inst.CategoryKeys() {
		min, max := quotaOf(key)
		expr := solver.LinExpr{}
		for _, id := range inst.HoldersOf(key) {
			expr[AgentVarName(id)] = 1
		}
		out = append(out,
			solver.Constraint{
				Name: fmt.Sprintf("quota_min:%s", key),
				Expr: expr, Op: solver.GreaterEq, RHS: float64(min),
			},
			solver.Constraint{
				Name: fmt.Sprintf("quota_max:%s", key),
				Expr: expr, Op: solver.LessEq, RHS: float64(max),
			},
		)
	}
	return out
}

// DefaultQuotaOf looks up an instance's own (unrelaxed) quota bounds.
func DefaultQuotaOf(inst *model.Instance) func(model.FeatureKey) (int, int) {
	return func(key model.FeatureKey) (int, int) {
		q, _ := inst.Quota(key)
		return q.Min, q.Max
	}
}

// HouseholdConstraints returns the "at most one per household" rows. Added
// exactly once per household (§4.3's Open Question (a): the original source
// added this inside the feature-value loop, a bug; this builds the row set
// once, independent of any per-feature-value loop the caller may run).
func HouseholdConstraints(inst *model.Instance) []solver.Constraint {
	if !inst.Households {
		return nil
	}
	var out []solver.Constraint
	for h, members := range Households(inst) {
		expr := solver.LinExpr{}
		for _, id := range members {
			expr[AgentVarName(id)] = 1
		}
		out = append(out, solver.Constraint{
			Name: "household:" + h,
			Expr: expr, Op: solver.LessEq, RHS: 1,
		})
	}
	return out
}

// FixedInclusionConstraints returns "x_i = 1" rows for a required inclusion
// set.
func FixedInclusionConstraints(required []model.AgentID) []solver.Constraint {
	out := make([]solver.Constraint, len(required))
	for i, id := range required {
		out[i] = solver.Constraint{
			Name: "require:" + string(id),
			Expr: solver.LinExpr{AgentVarName(id): 1},
			Op:   solver.Equal,
			RHS:  1,
		}
	}
	return out
}

// ToPanel converts a solved IP's variable assignment back into a model.Panel.
func ToPanel(inst *model.Instance, values map[string]float64) model.Panel {
	var members []model.AgentID
	for _, id := range inst.AgentIDs() {
		if values[AgentVarName(id)] > 0.5 {
			members = append(members, id)
		}
	}
	return model.NewPanel(members)
}
