package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// lpTolerance is passed to gonum's simplex as the feasibility/optimality
// tolerance. Independent from model.Eps (that one governs comparisons the
// algorithms make on solver *output*; this one is an internal solver knob).
const lpTolerance = 1e-9

// SolveLP converts m's mixed </=/> rows into the equality-only standard form
// gonum's simplex wants (one slack/surplus column per inequality row, mirrors
// the convertToEqualities idiom of a branch-and-bound MILP built on this same
// package) and solves it.
func (e *Environment) SolveLP(m LPModel) (LPResult, error) {
	n := len(m.VarNames)
	colOf := make(map[string]int, n)
	for i, name := range m.VarNames {
		colOf[name] = i
	}

	// Count extra slack/surplus columns needed, one per inequality row.
	extra := 0
	for _, c := range m.Constraints {
		if c.Op != Equal {
			extra++
		}
	}

	totalCols := n + extra
	rows := len(m.Constraints)

	a := mat.NewDense(rows, totalCols, nil)
	b := make([]float64, rows)
	slackCol := n

	for r, c := range m.Constraints {
		for name, coef := range c.Expr {
			col, ok := colOf[name]
			if !ok {
				return LPResult{}, fmt.Errorf("solver: constraint %q references unknown var %q", c.Name, name)
			}
			a.Set(r, col, a.At(r, col)+coef)
		}
		b[r] = c.RHS

		switch c.Op {
		case LessEq:
			a.Set(r, slackCol, 1)
			slackCol++
		case GreaterEq:
			a.Set(r, slackCol, -1)
			slackCol++
		case Equal:
			// no slack column
		default:
			return LPResult{}, fmt.Errorf("solver: unknown constraint op in %q", c.Name)
		}
	}

	c := make([]float64, totalCols)
	for name, coef := range m.Objective {
		col, ok := colOf[name]
		if !ok {
			return LPResult{}, fmt.Errorf("solver: objective references unknown var %q", name)
		}
		if m.Maximize {
			c[col] = -coef
		} else {
			c[col] = coef
		}
	}

	optF, optX, err := lp.Simplex(c, a, b, lpTolerance, nil)
	if err != nil {
		if err == lp.ErrInfeasible || err == lp.ErrSingular {
			return LPResult{Status: StatusInfeasible}, nil
		}
		return LPResult{Status: StatusError}, fmt.Errorf("solver: simplex: %w", err)
	}

	values := make(map[string]float64, n)
	for i, name := range m.VarNames {
		values[name] = optX[i]
	}
	objective := optF
	if m.Maximize {
		objective = -optF
	}

	return LPResult{
		Status:    StatusOptimal,
		Values:    values,
		Objective: objective,
	}, nil
}
