package mip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEngine hands out offset handles and answers Solve with a fixed
// status and value table keyed by handle.
type scriptedEngine struct {
	base    Var
	names   []string
	cons    []string
	sense   Sense
	limitMs int64
	status  Status
	values  map[Var]float64
}

func (e *scriptedEngine) NewBoolVar(name string) Var {
	e.names = append(e.names, name)
	return e.base + Var(len(e.names)-1)
}

func (e *scriptedEngine) NewIntVar(lo, hi int64, name string) Var { return e.NewBoolVar(name) }

func (e *scriptedEngine) AddConstraint(expr *LinearExpr, rel Relation, rhs float64) error {
	for _, t := range expr.Terms() {
		if t.Var < e.base {
			return errors.New("model handle leaked into engine")
		}
	}
	e.cons = append(e.cons, rel.String())
	return nil
}

func (e *scriptedEngine) SetObjective(expr *LinearExpr, sense Sense) error {
	e.sense = sense
	return nil
}

func (e *scriptedEngine) SetTimeLimit(ms int64) { e.limitMs = ms }

func (e *scriptedEngine) Solve(context.Context) (Status, error) { return e.status, nil }

func (e *scriptedEngine) Value(v Var) float64 { return e.values[v] }

func TestAddConstraintFoldsOffset(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	m.AddConstraint(NewLinearExpr().Add(x).AddConstant(2), LessOrEqual, 3, "c")

	c := m.Constraint(0)
	assert.Equal(t, 1.0, c.RHS)
	assert.Equal(t, 0.0, c.Expr.Offset())
	require.NoError(t, m.Check([]float64{1}, 1e-9))
}

func TestCheckReportsViolations(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	u := m.NewIntVar(0, 3, "u")
	m.AddConstraint(NewLinearExpr().Add(u).AddTerm(x, -3), LessOrEqual, 0, "u<=3x")

	require.NoError(t, m.Check([]float64{1, 2}, 1e-9))
	assert.Error(t, m.Check([]float64{0, 2}, 1e-9))
	assert.Error(t, m.Check([]float64{0.5, 0}, 1e-9))
	assert.Error(t, m.Check([]float64{1, 4}, 1e-9))
	assert.Error(t, m.Check([]float64{1}, 1e-9))
}

func TestRunRemapsHandlesAndReadsValues(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	y := m.NewIntVar(0, 5, "y")
	m.AddConstraint(NewLinearExpr().AddSum(x, y), LessOrEqual, 4, "sum")
	m.SetObjective(NewLinearExpr().AddTerm(x, 2).AddTerm(y, 1), Maximize)

	eng := &scriptedEngine{base: 100, status: StatusOptimal, values: map[Var]float64{100: 1, 101: 3}}
	out, err := Run(context.Background(), func() (Engine, error) { return eng, nil }, m, 1500_000_000)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, out.Status)
	assert.Equal(t, []string{"x", "y"}, eng.names)
	assert.Equal(t, []string{"<="}, eng.cons)
	assert.Equal(t, int64(1500), eng.limitMs)
	assert.Equal(t, 1.0, out.Value(x))
	assert.Equal(t, 3.0, out.Value(y))
	assert.InDelta(t, 5.0, out.Objective, 1e-12)
}

func TestRunWithoutSolutionLeavesValuesEmpty(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	eng := &scriptedEngine{status: StatusInfeasible}
	out, err := Run(context.Background(), func() (Engine, error) { return eng, nil }, m, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, out.Status)
	assert.Nil(t, out.Values)
	assert.Equal(t, 0.0, out.Value(x))
}

func TestRunFactoryFailure(t *testing.T) {
	_, err := Run(context.Background(), func() (Engine, error) { return nil, errors.New("no license") }, NewModel(), 0)
	require.ErrorIs(t, err, ErrEngineUnavailable)

	_, err = Run(context.Background(), nil, NewModel(), 0)
	require.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestStatusHasSolution(t *testing.T) {
	assert.True(t, StatusOptimal.HasSolution())
	assert.True(t, StatusFeasible.HasSolution())
	assert.False(t, StatusInfeasible.HasSolution())
	assert.False(t, StatusUnknown.HasSolution())
	assert.Equal(t, "FEASIBLE", StatusFeasible.String())
}

type hintingEngine struct {
	scriptedEngine
	hints map[Var]float64
}

func (e *hintingEngine) AddHint(v Var, value float64) {
	if e.hints == nil {
		e.hints = map[Var]float64{}
	}
	e.hints[v] = value
}

func TestRunForwardsHints(t *testing.T) {
	m := NewModel()
	x := m.NewBoolVar("x")
	y := m.NewIntVar(0, 5, "y")
	m.AddHint(y, 3)

	vals, complete := m.Hints()
	assert.Equal(t, []float64{0, 3}, vals)
	assert.False(t, complete)
	m.AddHint(x, 1)
	_, complete = m.Hints()
	assert.True(t, complete)

	eng := &hintingEngine{scriptedEngine: scriptedEngine{base: 10, status: StatusInfeasible}}
	_, err := Run(context.Background(), func() (Engine, error) { return eng, nil }, m, 0)
	require.NoError(t, err)
	assert.Equal(t, map[Var]float64{10: 1, 11: 3}, eng.hints)

	m.ClearHints()
	vals, complete = m.Hints()
	assert.Nil(t, vals)
	assert.False(t, complete)
}
