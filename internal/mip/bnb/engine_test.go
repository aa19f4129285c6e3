package bnb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/mip"
)

func TestKnapsack(t *testing.T) {
	m := mip.NewModel()
	a, b, c := m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")
	m.AddConstraint(mip.NewLinearExpr().AddTerm(a, 2).AddTerm(b, 3).AddTerm(c, 1), mip.LessOrEqual, 5, "weight")
	m.SetObjective(mip.NewLinearExpr().AddTerm(a, 5).AddTerm(b, 4).AddTerm(c, 3), mip.Maximize)

	out, err := mip.Run(context.Background(), Factory(), m, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, mip.StatusOptimal, out.Status)
	assert.InDelta(t, 9.0, out.Objective, 1e-6)
	assert.Equal(t, []float64{1, 1, 0}, out.Values)
	require.NoError(t, m.Check(out.Values, 1e-6))
}

func TestIntegerBranching(t *testing.T) {
	m := mip.NewModel()
	x := m.NewIntVar(0, 3, "x")
	y := m.NewIntVar(1, 3, "y")
	m.AddConstraint(mip.NewLinearExpr().AddTerm(x, 2).AddTerm(y, 2), mip.LessOrEqual, 5, "cap")
	m.SetObjective(mip.NewLinearExpr().AddTerm(x, 3).AddTerm(y, 1), mip.Maximize)

	out, err := mip.Run(context.Background(), Factory(), m, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, mip.StatusOptimal, out.Status)
	assert.Equal(t, 1.0, out.Value(x))
	assert.Equal(t, 1.0, out.Value(y))
	assert.InDelta(t, 4.0, out.Objective, 1e-6)
}

func TestMinimizeWithEquality(t *testing.T) {
	m := mip.NewModel()
	x := m.NewIntVar(0, 10, "x")
	y := m.NewIntVar(0, 10, "y")
	m.AddConstraint(mip.NewLinearExpr().AddSum(x, y), mip.Equal, 7, "sum")
	m.AddConstraint(mip.NewLinearExpr().Add(x), mip.GreaterOrEqual, 2, "xmin")
	m.SetObjective(mip.NewLinearExpr().AddTerm(x, 2).AddTerm(y, 3), mip.Minimize)

	out, err := mip.Run(context.Background(), Factory(), m, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, mip.StatusOptimal, out.Status)
	assert.Equal(t, 7.0, out.Value(x))
	assert.Equal(t, 0.0, out.Value(y))
}

func TestInfeasible(t *testing.T) {
	m := mip.NewModel()
	a, b := m.NewBoolVar("a"), m.NewBoolVar("b")
	m.AddConstraint(mip.NewLinearExpr().AddSum(a, b), mip.GreaterOrEqual, 3, "too-many")
	m.SetObjective(mip.NewLinearExpr().AddSum(a, b), mip.Maximize)

	out, err := mip.Run(context.Background(), Factory(), m, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, mip.StatusInfeasible, out.Status)
	assert.Nil(t, out.Values)
}

func TestCancelledContextReportsUnknown(t *testing.T) {
	m := mip.NewModel()
	a := m.NewBoolVar("a")
	m.SetObjective(mip.NewLinearExpr().Add(a), mip.Maximize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := mip.Run(ctx, Factory(), m, time.Second)
	require.NoError(t, err)
	assert.Equal(t, mip.StatusUnknown, out.Status)
}

func TestUnknownVariableRejected(t *testing.T) {
	e := New()
	e.NewBoolVar("a")
	err := e.AddConstraint(mip.NewLinearExpr().Add(mip.Var(3)), mip.LessOrEqual, 1)
	assert.Error(t, err)
	assert.Error(t, e.SetObjective(mip.NewLinearExpr().Add(mip.Var(-1)), mip.Maximize))
}

func knapsack() (*mip.Model, [3]mip.Var) {
	m := mip.NewModel()
	a, b, c := m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")
	m.AddConstraint(mip.NewLinearExpr().AddTerm(a, 2).AddTerm(b, 3).AddTerm(c, 1), mip.LessOrEqual, 5, "weight")
	m.SetObjective(mip.NewLinearExpr().AddTerm(a, 5).AddTerm(b, 4).AddTerm(c, 3), mip.Maximize)
	return m, [3]mip.Var{a, b, c}
}

func TestSuboptimalHintStillReachesOptimum(t *testing.T) {
	m, v := knapsack()
	for i, x := range []float64{0, 1, 1} {
		m.AddHint(v[i], x)
	}
	out, err := mip.Run(context.Background(), Factory(), m, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, mip.StatusOptimal, out.Status)
	assert.Equal(t, []float64{1, 1, 0}, out.Values)
}

func TestHintSeedsIncumbentWhenStoppedEarly(t *testing.T) {
	m, v := knapsack()
	for i, x := range []float64{0, 1, 1} {
		m.AddHint(v[i], x)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := mip.Run(ctx, Factory(), m, time.Second)
	require.NoError(t, err)
	require.Equal(t, mip.StatusFeasible, out.Status)
	assert.Equal(t, []float64{0, 1, 1}, out.Values)
	assert.InDelta(t, 7.0, out.Objective, 1e-6)
}

func TestUnusableHintsIgnored(t *testing.T) {
	cases := map[string][]float64{
		"infeasible":   {1, 1, 1},
		"fractional":   {0.5, 1, 0},
		"incomplete":   {1, 1},
		"out of bound": {2, 0, 0},
	}
	for name, hint := range cases {
		t.Run(name, func(t *testing.T) {
			m, v := knapsack()
			for i, x := range hint {
				m.AddHint(v[i], x)
			}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			out, err := mip.Run(ctx, Factory(), m, time.Second)
			require.NoError(t, err)
			assert.Equal(t, mip.StatusUnknown, out.Status)
		})
	}
}

// marketSplit builds equality knapsacks that branch-and-bound cannot close
// quickly.
func marketSplit(rows, cols int) *mip.Model {
	m := mip.NewModel()
	x := make([]mip.Var, cols)
	obj := mip.NewLinearExpr()
	for j := range x {
		x[j] = m.NewBoolVar(fmt.Sprintf("x%d", j))
		obj.AddTerm(x[j], float64((j*31)%17+1))
	}
	for i := 0; i < rows; i++ {
		expr := mip.NewLinearExpr()
		total := 0
		for j := range x {
			a := ((i+1)*(j+3)*7919)%97 + 1
			expr.AddTerm(x[j], float64(a))
			total += a
		}
		m.AddConstraint(expr, mip.Equal, float64(total/2), fmt.Sprintf("split%d", i))
	}
	m.SetObjective(obj, mip.Maximize)
	return m
}

func TestTimeLimitIsHardCutoff(t *testing.T) {
	m := marketSplit(4, 30)
	limit := 200 * time.Millisecond

	start := time.Now()
	out, err := mip.Run(context.Background(), Factory(), m, limit)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Less(t, elapsed, limit+1500*time.Millisecond)
	if out.Status.HasSolution() {
		assert.NoError(t, m.Check(out.Values, 1e-6))
	}
}
