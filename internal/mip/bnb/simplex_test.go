package bnb

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinopt/internal/mip"
)

func terms(coefs ...float64) []mip.Term {
	out := make([]mip.Term, len(coefs))
	for j, c := range coefs {
		out[j] = mip.Term{Var: mip.Var(j), Coef: c}
	}
	return out
}

func TestSolveLPUsesColumnBounds(t *testing.T) {
	// min -2x - y, x + y <= 1.5, 0 <= x, y <= 1
	y, err := solveLP(context.Background(), []float64{-2, -1},
		[]lpRow{{terms: terms(1, 1), rhs: 1.5}}, []float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, y[0], 1e-9)
	assert.InDelta(t, 0.5, y[1], 1e-9)
}

func TestSolveLPEqualityAndNegativeRHS(t *testing.T) {
	// min x + 2y, x + y = 3, -x <= -1, 0 <= x, y <= 2
	y, err := solveLP(context.Background(), []float64{1, 2},
		[]lpRow{
			{terms: terms(1, 1), eq: true, rhs: 3},
			{terms: terms(-1, 0), rhs: -1},
		}, []float64{2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, y[0], 1e-9)
	assert.InDelta(t, 1.0, y[1], 1e-9)
}

func TestSolveLPFractionalKnapsack(t *testing.T) {
	// Relaxation of the knapsack in engine_test: c and a whole, b two thirds.
	y, err := solveLP(context.Background(), []float64{-5, -4, -3},
		[]lpRow{{terms: terms(2, 3, 1), rhs: 5}}, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, y[0], 1e-9)
	assert.InDelta(t, 2.0/3, y[1], 1e-9)
	assert.InDelta(t, 1.0, y[2], 1e-9)
}

func TestSolveLPInfeasible(t *testing.T) {
	_, err := solveLP(context.Background(), []float64{1, 1},
		[]lpRow{{terms: terms(-1, -1), rhs: -3}}, []float64{1, 1})
	assert.ErrorIs(t, err, errLPInfeasible)
}

func TestSolveLPUnbounded(t *testing.T) {
	_, err := solveLP(context.Background(), []float64{-1},
		[]lpRow{{terms: terms(-1), rhs: 0}}, []float64{math.Inf(1)})
	assert.ErrorIs(t, err, errLPUnbounded)
}

func TestSolveLPStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := solveLP(ctx, []float64{-1, -1},
		[]lpRow{{terms: terms(1, 1), rhs: 1}}, []float64{1, 1})
	assert.ErrorIs(t, err, context.Canceled)
}
