// Package feasibility implements the feasibility IP (§4.1): the integer
// program whose feasible solutions are exactly the panels satisfying the
// instance's quotas and household constraint.
package feasibility

import (
	"errors"
	"fmt"

	"sortition/internal/diagnose"
	"sortition/internal/model"
	"sortition/internal/panelip"
	"sortition/internal/solver"
)

// IP is a reusable handle over one instance's feasibility model. Building it
// once and calling Optimize repeatedly (with different objectives) avoids
// rebuilding the constant quota/household/size rows on every call — the same
// pattern as the original source's `_setup_committee_generation`, which
// builds one ILP model and only swaps the objective between solves.
type IP struct {
	env  *solver.Environment
	inst *model.Instance

	vars            []solver.Var
	baseConstraints []solver.Constraint
}

// New builds the feasibility IP's constant rows (panel size, quotas,
// household) for inst. It does not solve anything yet.
func New(env *solver.Environment, inst *model.Instance) *IP {
	ip := &IP{env: env, inst: inst}
	ip.vars = panelip.AgentVars(inst)
	ip.baseConstraints = append(ip.baseConstraints, panelip.SizeConstraint(inst))
	ip.baseConstraints = append(ip.baseConstraints, panelip.QuotaConstraints(inst, panelip.DefaultQuotaOf(inst))...)
	ip.baseConstraints = append(ip.baseConstraints, panelip.HouseholdConstraints(inst)...)
	return ip
}

// Optimize solves "maximize Σ w_i x_i" (or minimize, if maximize is false)
// over feasible panels, optionally with some agents fixed to be included.
// On infeasibility it invokes the relaxation diagnoser and returns its
// result wrapped in *model.InfeasibleQuotasError.
func (ip *IP) Optimize(weights map[model.AgentID]float64, required []model.AgentID, maximize bool) (model.Panel, float64, error) {
	m := solver.IPModel{
		Vars:        ip.vars,
		Constraints: append(append([]solver.Constraint{}, ip.baseConstraints...), panelip.FixedInclusionConstraints(required)...),
		Objective:   solver.LinExpr{},
		Maximize:    maximize,
	}
	for id, w := range weights {
		m.Objective[panelip.AgentVarName(id)] = w
	}

	result, err := ip.env.SolveIP(m)
	if err != nil {
		return model.Panel{}, 0, fmt.Errorf("feasibility: solve: %w", err)
	}

	switch result.Status {
	case solver.StatusOptimal:
		return panelip.ToPanel(ip.inst, result.Values), result.Objective, nil
	case solver.StatusInfeasible:
		sets := []diagnose.InclusionSet{diagnose.InclusionSet(required)}
		diag, derr := diagnose.Diagnose(ip.env, ip.inst, sets)
		if derr != nil {
			return model.Panel{}, 0, fmt.Errorf("feasibility: diagnose: %w", derr)
		}
		return model.Panel{}, 0, diag
	default:
		return model.Panel{}, 0, &model.SelectionError{Reason: "unexpected IP solver status", Detail: result.Status}
	}
}

// MaximizeWeighted is a convenience wrapper used throughout column generation
// (§4.5): maximize Σ w_i x_i with no fixed-inclusion requirement.
func (ip *IP) MaximizeWeighted(weights map[model.AgentID]float64) (model.Panel, float64, error) {
	return ip.Optimize(weights, nil, true)
}

// Probe reports whether any feasible panel exists at all, diagnosing the
// infeasibility if not.
func (ip *IP) Probe() (bool, error) {
	_, _, err := ip.Optimize(nil, nil, true)
	if err == nil {
		return true, nil
	}
	var infeasible *model.InfeasibleQuotasError
	if errors.As(err, &infeasible) {
		return false, infeasible
	}
	return false, err
}
