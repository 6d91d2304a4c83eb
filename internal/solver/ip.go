package solver

import (
	"fmt"
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// Environment is the process-wide solver handle (§5: "the only shared-process
// resource is an underlying LP/IP solver environment, which must be
// initialized once per process and torn down at exit"). It is safe to reuse
// across many sequential SolveIP/SolveLP calls; concurrent calls are not
// supported, matching §5's serial-solves assumption.
type Environment struct {
	// TimeLimit bounds a single IP solve; zero means no limit. A host wanting
	// to time-box a run sets this and must treat a returned StatusSuboptimal
	// as an abort, per §5's cancellation note.
	TimeLimit time.Duration
}

// NewEnvironment constructs a solver environment with no time limit.
func NewEnvironment() *Environment {
	return &Environment{}
}

// Close tears down the environment. The HiGHS provider used here has no
// process-level handle to release, but the method exists so callers can
// `defer env.Close()` uniformly regardless of backend.
func (e *Environment) Close() {}

// SolveIP builds a nextmv MIP model from m and solves it with the HiGHS
// provider.
func (e *Environment) SolveIP(m IPModel) (IPResult, error) {
	model := mip.NewModel()
	if m.Maximize {
		model.Objective().SetMaximize()
	}

	vars := make(map[string]mip.Var, len(m.Vars))
	for _, v := range m.Vars {
		switch v.Kind {
		case Binary:
			vars[v.Name] = model.NewBool()
		case NonNegativeInt:
			vars[v.Name] = model.NewInt(0, v.UB)
		default:
			return IPResult{}, fmt.Errorf("solver: unknown var kind for %q", v.Name)
		}
	}

	for name, coef := range m.Objective {
		v, ok := vars[name]
		if !ok {
			return IPResult{}, fmt.Errorf("solver: objective references unknown var %q", name)
		}
		model.Objective().NewTerm(coef, v)
	}

	for _, c := range m.Constraints {
		var dir mip.ConstraintSense
		switch c.Op {
		case LessEq:
			dir = mip.LessThanOrEqual
		case GreaterEq:
			dir = mip.GreaterThanOrEqual
		case Equal:
			dir = mip.Equal
		default:
			return IPResult{}, fmt.Errorf("solver: unknown constraint op in %q", c.Name)
		}
		constr := model.NewConstraint(dir, c.RHS)
		for name, coef := range c.Expr {
			v, ok := vars[name]
			if !ok {
				return IPResult{}, fmt.Errorf("solver: constraint %q references unknown var %q", c.Name, name)
			}
			constr.NewTerm(coef, v)
		}
	}

	mipSolver, err := mip.NewSolver("highs", model)
	if err != nil {
		return IPResult{}, fmt.Errorf("solver: create highs solver: %w", err)
	}

	opts := mip.NewSolveOptions()
	if e.TimeLimit > 0 {
		if err := opts.SetMaximumDuration(e.TimeLimit); err != nil {
			return IPResult{}, fmt.Errorf("solver: set time limit: %w", err)
		}
	}
	opts.SetVerbosity(mip.Off)

	solution, err := mipSolver.Solve(opts)
	if err != nil {
		return IPResult{}, fmt.Errorf("solver: solve: %w", err)
	}

	switch {
	case solution.IsOptimal():
		return ipResultFromSolution(solution, vars, StatusOptimal)
	case solution.IsSubOptimal():
		return ipResultFromSolution(solution, vars, StatusSuboptimal)
	case solution.HasValues() == false:
		return IPResult{Status: StatusInfeasible}, nil
	default:
		return IPResult{Status: StatusError}, fmt.Errorf("solver: unexpected solver status")
	}
}

func ipResultFromSolution(solution mip.Solution, vars map[string]mip.Var, status Status) (IPResult, error) {
	values := make(map[string]float64, len(vars))
	for name, v := range vars {
		values[name] = solution.Value(v)
	}
	return IPResult{
		Status:    status,
		Values:    values,
		Objective: solution.ObjectiveValue(),
	}, nil
}
