// Package solver is the narrow solve_ip/solve_lp boundary named in §9: every
// other package builds a model out of plain Go values (variables,
// constraints, a linear objective) and this package is the only place that
// imports an actual LP/IP backend. Swapping backends means touching only
// this package.
package solver

// Status reports how a solve terminated.
type Status int

const (
	StatusOptimal Status = iota
	StatusSuboptimal
	StatusInfeasible
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "error"
	}
}

// CompareOp is the relational operator of a linear constraint.
type CompareOp int

const (
	LessEq CompareOp = iota
	GreaterEq
	Equal
)

// LinExpr is a sparse linear expression: variable name -> coefficient.
type LinExpr map[string]float64

// VarKind distinguishes the domain of an IP variable.
type VarKind int

const (
	Binary VarKind = iota
	NonNegativeInt
)

// Var is one decision variable in an IP model.
type Var struct {
	Name string
	Kind VarKind
	// UB bounds a NonNegativeInt variable; ignored for Binary.
	UB float64
}

// Constraint is one row of an IP or LP model.
type Constraint struct {
	Name string
	Expr LinExpr
	Op   CompareOp
	RHS  float64
}

// IPModel is a 0/1 (optionally mixed with bounded non-negative integers)
// linear program: the feasibility IP (§4.1), the relaxation diagnoser (§4.3),
// and every pricing/coverage call in the portfolio builder and LEXIMIN engine
// build one of these.
type IPModel struct {
	Vars        []Var
	Constraints []Constraint
	Objective   LinExpr
	Maximize    bool
}

// IPResult is the outcome of an IP solve.
type IPResult struct {
	Status    Status
	Values    map[string]float64
	Objective float64
}

// LPModel is a pure continuous linear program in mixed inequality/equality
// form: Expr <=/>=/= RHS for each row, all variables implicitly >= 0. Used for
// the leximin engine's dual LP (§4.5) and the randomization reconstruction
// (§4.7).
type LPModel struct {
	VarNames    []string
	Constraints []Constraint
	Objective   LinExpr
	Maximize    bool
}

// LPResult is the outcome of an LP solve.
type LPResult struct {
	Status    Status
	Values    map[string]float64
	Objective float64
}
