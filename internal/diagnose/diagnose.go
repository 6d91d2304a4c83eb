// Package diagnose implements the relaxation diagnoser (§4.3): when the
// feasibility IP is infeasible, it finds the cheapest integer widening of the
// quotas that admits a panel, weighting lower-quota relaxations more heavily
// the smaller the original quota was.
package diagnose

import (
	"fmt"

	"sortition/internal/model"
	"sortition/internal/panelip"
	"sortition/internal/solver"
)

func minVarName(key model.FeatureKey) string { return "relax_min:" + key.String() }
func maxVarName(key model.FeatureKey) string { return "relax_max:" + key.String() }

// reductionWeight implements §4.3's penalty: relaxing an already-small lower
// quota to zero is disproportionately undesirable.
func reductionWeight(min int) float64 {
	if min == 0 {
		return 0
	}
	return 1 + 2/float64(min)
}

// InclusionSet is a required-inclusion constraint: some feasible panel must
// contain every agent in the set. The empty set just requires "some panel
// exists".
type InclusionSet []model.AgentID

// Diagnose finds the minimal quota relaxation across all of inclusionSets,
// sharing slack variables between sets so a single widened quota table
// satisfies every one of them (§4.3).
func Diagnose(env *solver.Environment, inst *model.Instance, inclusionSets []InclusionSet) (*model.InfeasibleQuotasError, error) {
	if len(inclusionSets) == 0 {
		inclusionSets = []InclusionSet{{}}
	}

	keys := inst.CategoryKeys()

	m := solver.IPModel{Maximize: false}
	m.Objective = solver.LinExpr{}

	for _, key := range keys {
		q, _ := inst.Quota(key)
		m.Vars = append(m.Vars,
			solver.Var{Name: minVarName(key), Kind: solver.NonNegativeInt, UB: float64(q.Min)},
			solver.Var{Name: maxVarName(key), Kind: solver.NonNegativeInt, UB: float64(len(inst.Agents))},
		)
		m.Objective[minVarName(key)] = reductionWeight(q.Min)
		m.Objective[maxVarName(key)] = 1
	}

	for setIdx, required := range inclusionSets {
		suffix := fmt.Sprintf("#%d", setIdx)

		agentVarName := func(id model.AgentID) string {
			return fmt.Sprintf("%s%s", panelip.AgentVarName(id), suffix)
		}

		for _, id := range inst.AgentIDs() {
			m.Vars = append(m.Vars, solver.Var{Name: agentVarName(id), Kind: solver.Binary})
		}

		sizeExpr := solver.LinExpr{}
		for _, id := range inst.AgentIDs() {
			sizeExpr[agentVarName(id)] = 1
		}
		m.Constraints = append(m.Constraints, solver.Constraint{
			Name: fmt.Sprintf("panel_size%s", suffix),
			Expr: sizeExpr, Op: solver.Equal, RHS: float64(inst.K),
		})

		for _, id := range required {
			m.Constraints = append(m.Constraints, solver.Constraint{
				Name: fmt.Sprintf("require:%s%s", id, suffix),
				Expr: solver.LinExpr{agentVarName(id): 1}, Op: solver.Equal, RHS: 1,
			})
		}

		for _, key := range keys {
			q, _ := inst.Quota(key)
			expr := solver.LinExpr{}
			for _, id := range inst.HoldersOf(key) {
				expr[agentVarName(id)] = 1
			}
			// lower: Σ x_i + relax_min >= min
			lowerExpr := cloneExpr(expr)
			lowerExpr[minVarName(key)] = 1
			m.Constraints = append(m.Constraints, solver.Constraint{
				Name: fmt.Sprintf("quota_min:%s%s", key, suffix),
				Expr: lowerExpr, Op: solver.GreaterEq, RHS: float64(q.Min),
			})
			// upper: Σ x_i - relax_max <= max
			upperExpr := cloneExpr(expr)
			upperExpr[maxVarName(key)] = -1
			m.Constraints = append(m.Constraints, solver.Constraint{
				Name: fmt.Sprintf("quota_max:%s%s", key, suffix),
				Expr: upperExpr, Op: solver.LessEq, RHS: float64(q.Max),
			})
		}

		// Household constraint added once per household per inclusion set —
		// §9's Open Question (a): the source added this inside the
		// feature-value loop, which in Go terms would mean re-adding the same
		// row |keys| times per household. panelip.Households is consulted
		// exactly once here, outside any feature-value loop.
		if inst.Households {
			for h, members := range panelip.Households(inst) {
				expr := solver.LinExpr{}
				for _, id := range members {
					expr[agentVarName(id)] = 1
				}
				m.Constraints = append(m.Constraints, solver.Constraint{
					Name: fmt.Sprintf("household:%s%s", h, suffix),
					Expr: expr, Op: solver.LessEq, RHS: 1,
				})
			}
		}
	}

	result, err := env.SolveIP(m)
	if err != nil {
		return nil, fmt.Errorf("diagnose: solve: %w", err)
	}
	if result.Status != solver.StatusOptimal {
		return nil, &model.SelectionError{Reason: "relaxation diagnoser found no relaxation", Detail: result.Status}
	}

	var relaxed []model.RelaxedQuota
	var notes []string
	for _, key := range keys {
		q, _ := inst.Quota(key)
		lowerDelta := int(round(result.Values[minVarName(key)]))
		upperDelta := int(round(result.Values[maxVarName(key)]))

		newMin := q.Min - lowerDelta
		newMax := q.Max + upperDelta

		if newMin == q.Min && newMax == q.Max {
			continue
		}
		relaxed = append(relaxed, model.RelaxedQuota{
			Key: key, NewMin: newMin, NewMax: newMax, OldMin: q.Min, OldMax: q.Max,
		})
		if newMin < q.Min {
			notes = append(notes, fmt.Sprintf("recommend lowering lower quota of %s to %d", key, newMin))
		}
		if newMax > q.Max {
			notes = append(notes, fmt.Sprintf("recommend raising upper quota of %s to %d", key, newMax))
		}
	}

	return &model.InfeasibleQuotasError{Relaxed: relaxed, Notes: notes}, nil
}

func cloneExpr(e solver.LinExpr) solver.LinExpr {
	out := make(solver.LinExpr, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	return out
}

func round(f float64) float64 {
	if f < 0 {
		return -round(-f)
	}
	return float64(int(f + 0.5))
}
