// Package leximin implements the column-generation engine at the core of
// LEXIMIN (§4.5): it alternates dual LP solves over the current panel set
// with IP pricing calls, fixing agent probabilities to the current min-level
// whenever strict complementarity holds, until every agent is fixed.
package leximin

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"sortition/internal/feasibility"
	"sortition/internal/model"
	"sortition/internal/solver"
)

const (
	yVarName       = "y:"
	yHatVar        = "yhat"
	maxDualShrinks = 50
	shrinkStep     = 1e-4
)

func yVar(id model.AgentID) string { return yVarName + string(id) }

// Engine runs the outer/inner column-generation loop over a shared panel
// pool, mutating Portfolio and Fixed in place as it progresses.
type Engine struct {
	Env *solver.Environment
	IP  *feasibility.IP

	Portfolio model.Portfolio
	Fixed     model.FixedProbabilities

	// Logger receives a structured trace of each outer iteration and
	// reconstruction round, the way aristath-sentinel's pkg/logger is
	// threaded explicitly into its solvers. Defaults to a no-op logger;
	// callers wire a real one via internal/obslog.
	Logger zerolog.Logger
	// Log accumulates the same trace as human-readable lines, satisfying the
	// "log lines" element of the engine's (portfolio, weights, log lines)
	// result contract independent of whatever Logger is wired to.
	Log []string
}

// New starts an engine from an initial portfolio with no fixed
// probabilities.
func New(env *solver.Environment, ip *feasibility.IP, initial []model.Panel) *Engine {
	portfolio := model.Portfolio{}
	for _, p := range initial {
		portfolio.Add(p, 0)
	}
	return &Engine{
		Env: env, IP: ip,
		Portfolio: portfolio,
		Fixed:     model.FixedProbabilities{},
		Logger:    zerolog.Nop(),
	}
}

// Run drives the outer loop to completion: every agent in pool ends up with
// a fixed leximin-optimal marginal probability.
func (e *Engine) Run(ctx context.Context, pool []model.AgentID) error {
	outer := 0
	for len(e.Fixed) < len(pool) {
		if err := ctx.Err(); err != nil {
			return err
		}
		outer++
		fixedBefore := len(e.Fixed)
		if err := e.outerIteration(ctx, pool, outer); err != nil {
			return err
		}
		if len(e.Fixed) == fixedBefore {
			return &model.SelectionError{Reason: "leximin outer loop fixed no agent", Detail: fixedBefore}
		}
	}
	return nil
}

// outerIteration runs one inner column-generation loop to convergence, then
// fixes every agent with positive dual weight (§4.5 step 3).
func (e *Engine) outerIteration(ctx context.Context, pool []model.AgentID, outer int) error {
	unfixed := e.Fixed.Unfixed(pool)

	perturb := 0.0
	shrinks := 0
	retried := false

	for {
		dual, err := e.solveDualWithGuards(pool, unfixed, perturb, &shrinks)
		if err != nil {
			return err
		}

		weights := make(map[model.AgentID]float64, len(pool))
		for _, id := range pool {
			weights[id] = dual.Values[yVar(id)]
		}

		panel, priced, err := e.IP.MaximizeWeighted(weights)
		if err != nil {
			return fmt.Errorf("leximin: pricing: %w", err)
		}

		yHat := dual.Values[yHatVar]
		if priced <= yHat+model.Eps {
			err := e.fixFrom(dual, unfixed, perturb, outer)
			if err != nil && !retried {
				// No agent fixed: perturb the objective and re-solve once.
				retried = true
				perturb += shrinkStep
				continue
			}
			return err
		}

		if !e.Portfolio.Contains(panel) {
			e.Portfolio.Add(panel, 0)
		} else {
			// already priced in this round; perturb to avoid looping forever
			perturb += shrinkStep
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// solveDualWithGuards solves the dual LP, applying the infeasibility guard
// (shrinking fixed probabilities) if the LP comes back infeasible.
func (e *Engine) solveDualWithGuards(pool, unfixed []model.AgentID, perturb float64, shrinks *int) (solver.LPResult, error) {
	for {
		m := e.buildDual(pool, unfixed, perturb)
		result, err := e.Env.SolveLP(m)
		if err != nil {
			return solver.LPResult{}, fmt.Errorf("leximin: dual solve: %w", err)
		}
		if result.Status == solver.StatusOptimal {
			return result, nil
		}
		if *shrinks >= maxDualShrinks {
			return solver.LPResult{}, &model.SelectionError{Reason: "leximin dual infeasible after max shrinks", Detail: *shrinks}
		}
		*shrinks++
		for id, p := range e.Fixed {
			e.Fixed[id] = math.Max(0, p-shrinkStep)
		}
	}
}

// buildDual builds the dual LP (§4.5 step 1): y_i >= 0 for every pool agent
// (fixed or not), yhat >= 0, one constraint per portfolio panel summing y_i
// over the panel's full membership, a normalization row restricted to the
// unfixed set U, and the perturbed objective. Fixed agents still need a y_i
// term in every panel constraint and in VarNames — only the normalization
// row is U-only — or SolveLP rejects the objective's reference to them.
func (e *Engine) buildDual(pool, unfixed []model.AgentID, perturb float64) solver.LPModel {
	varNames := make([]string, 0, len(pool)+1)
	for _, id := range pool {
		varNames = append(varNames, yVar(id))
	}
	varNames = append(varNames, yHatVar)

	var constraints []solver.Constraint
	for _, p := range e.Portfolio.Panels {
		expr := solver.LinExpr{}
		for _, id := range p.Members() {
			expr[yVar(id)] = 1
		}
		if len(expr) == 0 {
			continue
		}
		expr[yHatVar] = -1
		constraints = append(constraints, solver.Constraint{
			Name: "panel:" + p.Key(), Expr: expr, Op: solver.LessEq, RHS: 0,
		})
	}

	norm := solver.LinExpr{}
	for _, id := range unfixed {
		norm[yVar(id)] = 1
	}
	constraints = append(constraints, solver.Constraint{
		Name: "normalize", Expr: norm, Op: solver.Equal, RHS: 1,
	})

	objective := solver.LinExpr{yHatVar: 1}
	for id, prob := range e.Fixed {
		coef := -prob
		if perturb != 0 {
			coef -= perturb
		}
		objective[yVar(id)] = coef
	}

	return solver.LPModel{
		VarNames:    varNames,
		Constraints: constraints,
		Objective:   objective,
		Maximize:    false,
	}
}

// fixFrom implements §4.5 step 3 and the strict-complementarity defense: fix
// every agent whose dual weight is positive at the dual objective value d*;
// if none qualifies (a vertex solver returning a degenerate solution), it
// returns a SelectionError, and outerIteration perturbs the objective and
// retries once, per §9.
func (e *Engine) fixFrom(dual solver.LPResult, unfixed []model.AgentID, perturb float64, outer int) error {
	dStar := dual.Objective
	var newlyFixed []model.AgentID
	for _, id := range unfixed {
		if dual.Values[yVar(id)] > model.Eps {
			e.Fixed[id] = math.Max(0, dStar)
			newlyFixed = append(newlyFixed, id)
		}
	}
	if len(newlyFixed) == 0 {
		return &model.SelectionError{Reason: "leximin strict complementarity violated: no agent fixed", Detail: perturb}
	}

	line := fmt.Sprintf("outer iteration %d: fixed %d agent(s) at level %.6f (total fixed %d)",
		outer, len(newlyFixed), dStar, len(e.Fixed))
	e.Log = append(e.Log, line)
	e.Logger.Info().
		Int("outer", outer).
		Int("newly_fixed", len(newlyFixed)).
		Int("total_fixed", len(e.Fixed)).
		Float64("level", dStar).
		Msg("leximin outer iteration")

	return nil
}

// Reconstruct builds the final randomization LP (§4.7): non-negative
// portfolio weights realizing the fixed probability vector, approximated via
// a short sequential-linear-programming loop around the quadratic
// regularizer (no QP solver exists in the dependency corpus; see DESIGN.md).
func (e *Engine) Reconstruct(ctx context.Context, pool []model.AgentID) error {
	panels := e.Portfolio.Panels
	n := len(panels)
	if n == 0 {
		return &model.SelectionError{Reason: "leximin reconstruction: empty portfolio"}
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}

	const rounds = 8
	const slackVar = "slack"

	panelVar := func(i int) string { return fmt.Sprintf("panel:%d", i) }

	prevObj := math.Inf(1)
	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		varNames := make([]string, 0, n+1)
		for i := range panels {
			varNames = append(varNames, panelVar(i))
		}
		varNames = append(varNames, slackVar)

		var constraints []solver.Constraint
		sumExpr := solver.LinExpr{}
		for i := range panels {
			sumExpr[panelVar(i)] = 1
		}
		constraints = append(constraints, solver.Constraint{Name: "sum_to_one", Expr: sumExpr, Op: solver.Equal, RHS: 1})

		for _, id := range pool {
			expr := solver.LinExpr{slackVar: 1}
			for i, p := range panels {
				if p.Contains(id) {
					expr[panelVar(i)] = 1
				}
			}
			constraints = append(constraints, solver.Constraint{
				Name: "cover:" + string(id), Expr: expr, Op: solver.GreaterEq, RHS: e.Fixed[id],
			})
		}

		objective := solver.LinExpr{slackVar: 1}
		for i := range panels {
			// Linearize x^2 around the current iterate: gradient 2x.
			objective[panelVar(i)] = 2 * weights[i]
		}

		m := solver.LPModel{VarNames: varNames, Constraints: constraints, Objective: objective, Maximize: false}
		result, err := e.Env.SolveLP(m)
		if err != nil {
			return fmt.Errorf("leximin: reconstruction solve: %w", err)
		}
		if result.Status != solver.StatusOptimal {
			return &model.SelectionError{Reason: "leximin reconstruction infeasible", Detail: result.Status}
		}

		obj := 0.0
		for i := range panels {
			v := math.Max(0, result.Values[panelVar(i)])
			weights[i] = v
			obj += v * v
		}
		obj += result.Values[slackVar]

		line := fmt.Sprintf("reconstruction round %d: objective=%.6f", round, obj)
		e.Log = append(e.Log, line)
		e.Logger.Debug().Int("round", round).Float64("objective", obj).Msg("leximin reconstruction round")

		if prevObj-obj < model.Eps {
			break
		}
		prevObj = obj
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return &model.SelectionError{Reason: "leximin reconstruction: zero weight mass"}
	}
	for i, p := range panels {
		e.Portfolio.Weights[e.Portfolio.Index(p)] = weights[i] / sum
	}
	return nil
}
