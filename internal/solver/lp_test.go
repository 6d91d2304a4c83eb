package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimize x + y subject to x + 2y >= 4, x >= 0, y >= 0 -> optimal (0,2), obj=2
func TestSolveLP_SimpleMinimize(t *testing.T) {
	env := NewEnvironment()
	defer env.Close()

	m := LPModel{
		VarNames: []string{"x", "y"},
		Constraints: []Constraint{
			{Name: "c1", Expr: LinExpr{"x": 1, "y": 2}, Op: GreaterEq, RHS: 4},
		},
		Objective: LinExpr{"x": 1, "y": 1},
		Maximize:  false,
	}

	result, err := env.SolveLP(m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, result.Status)
	assert.InDelta(t, 2.0, result.Objective, 1e-6)
}

func TestSolveLP_InfeasibleReportsStatus(t *testing.T) {
	env := NewEnvironment()
	defer env.Close()

	m := LPModel{
		VarNames: []string{"x"},
		Constraints: []Constraint{
			{Name: "c1", Expr: LinExpr{"x": 1}, Op: GreaterEq, RHS: 5},
			{Name: "c2", Expr: LinExpr{"x": 1}, Op: LessEq, RHS: 1},
		},
		Objective: LinExpr{"x": 1},
		Maximize:  false,
	}

	result, err := env.SolveLP(m)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)
}
