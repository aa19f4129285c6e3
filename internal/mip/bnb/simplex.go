package bnb

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"itinopt/internal/mip"
)

const (
	pivotTol   = 1e-9
	costTol    = 1e-9
	feasTol    = 1e-7
	zeroTol    = 1e-12
	blandAfter = 50
	checkEvery = 16
)

var (
	errLPInfeasible = errors.New("bnb: relaxation infeasible")
	errLPUnbounded  = errors.New("bnb: relaxation unbounded")
	errLPStalled    = errors.New("bnb: relaxation stalled")
)

// lpRow is one row of a relaxation over shifted variables y >= 0.
type lpRow struct {
	terms []mip.Term
	eq    bool
	rhs   float64
}

// tableau is a bounded-variable primal simplex. Columns are the structural
// variables, one slack per row, then one artificial per row whose slack
// basis is infeasible. Every column has lower bound 0 and upper bound
// upper[j], so variable bounds never become rows.
type tableau struct {
	m, cols int
	t       *mat.Dense
	beta    []float64 // values of the basic columns, by row
	basis   []int
	pos     []int // row of a basic column, -1 when nonbasic
	upper   []float64
	atUpper []bool
	d       []float64 // reduced costs of the current phase
	nz      []int

	degenerate int
}

// solveLP minimises cᵀy subject to rows and 0 <= y <= ub. It stops with
// ctx.Err() when ctx is done, checking between pivots.
func solveLP(ctx context.Context, c []float64, rows []lpRow, ub []float64) ([]float64, error) {
	n, m := len(c), len(rows)
	art := make([]bool, m)
	k := 0
	for i, r := range rows {
		if r.rhs < 0 || (r.eq && r.rhs > feasTol) {
			art[i] = true
			k++
		}
	}
	cols := n + m + k
	tb := &tableau{
		m:       m,
		cols:    cols,
		t:       mat.NewDense(max(m, 1), cols, nil),
		beta:    make([]float64, m),
		basis:   make([]int, m),
		pos:     make([]int, cols),
		upper:   make([]float64, cols),
		atUpper: make([]bool, cols),
		d:       make([]float64, cols),
		nz:      make([]int, 0, cols),
	}
	copy(tb.upper, ub)
	for j := range tb.pos {
		tb.pos[j] = -1
	}
	next := n + m
	for i, r := range rows {
		sign := 1.0
		if art[i] && r.rhs < 0 {
			sign = -1
		}
		row := tb.t.RawRowView(i)
		for _, t := range r.terms {
			row[t.Var] += sign * t.Coef
		}
		row[n+i] = sign
		if r.eq {
			tb.upper[n+i] = 0
		} else {
			tb.upper[n+i] = math.Inf(1)
		}
		b := n + i
		if art[i] {
			b = next
			next++
			row[b] = 1
			tb.upper[b] = math.Inf(1)
		}
		tb.basis[i], tb.pos[b] = b, i
		tb.beta[i] = sign * r.rhs
	}

	cost := make([]float64, cols)
	if k > 0 {
		for j := n + m; j < cols; j++ {
			cost[j] = 1
		}
		if err := tb.run(ctx, cost); err != nil {
			return nil, err
		}
		infeas := 0.0
		for i, b := range tb.basis {
			if b >= n+m {
				infeas += tb.beta[i]
			}
		}
		if infeas > feasTol {
			return nil, errLPInfeasible
		}
		// Artificials stay at zero from here on.
		for j := n + m; j < cols; j++ {
			tb.upper[j], cost[j] = 0, 0
			if p := tb.pos[j]; p >= 0 {
				tb.beta[p] = 0
			}
		}
	}
	copy(cost, c)
	if err := tb.run(ctx, cost); err != nil {
		return nil, err
	}

	y := make([]float64, n)
	for j := range y {
		switch {
		case tb.pos[j] >= 0:
			y[j] = tb.beta[tb.pos[j]]
		case tb.atUpper[j]:
			y[j] = tb.upper[j]
		}
		y[j] = math.Min(math.Max(y[j], 0), ub[j])
	}
	return y, nil
}

// run pivots until no column prices out for cost.
func (tb *tableau) run(ctx context.Context, cost []float64) error {
	copy(tb.d, cost)
	for i, b := range tb.basis {
		if cb := cost[b]; cb != 0 {
			floats.AddScaled(tb.d, -cb, tb.t.RawRowView(i))
		}
	}
	tb.degenerate = 0
	limit := 50*(tb.m+tb.cols) + 1000
	for iter := 0; ; iter++ {
		if iter%checkEvery == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if iter > limit {
			return errLPStalled
		}
		q, dir := tb.price()
		if q < 0 {
			return nil
		}
		r, step, toUpper := tb.ratio(q, dir)
		if r < 0 {
			if math.IsInf(step, 1) {
				return errLPUnbounded
			}
			tb.shift(q, dir*step)
			tb.atUpper[q] = !tb.atUpper[q]
			tb.degenerate = 0
			continue
		}
		if step <= zeroTol {
			tb.degenerate++
		} else {
			tb.degenerate = 0
		}
		tb.shift(q, dir*step)
		entering := step
		if dir < 0 {
			entering = tb.upper[q] - step
		}
		leaving := tb.basis[r]
		tb.pos[leaving] = -1
		tb.atUpper[leaving] = toUpper
		tb.basis[r], tb.pos[q] = q, r
		tb.atUpper[q] = false
		tb.beta[r] = entering
		tb.pivot(r, q)
	}
}

// price picks the entering column and the direction it moves in: +1 up
// from its lower bound, -1 down from its upper bound. Dantzig's rule is used
// until a run of degenerate pivots, then Bland's rule.
func (tb *tableau) price() (int, float64) {
	bland := tb.degenerate > blandAfter
	q, dir, best := -1, 0.0, 0.0
	for j := 0; j < tb.cols; j++ {
		if tb.pos[j] >= 0 || tb.upper[j] <= 0 {
			continue
		}
		var score, s float64
		switch {
		case !tb.atUpper[j] && tb.d[j] < -costTol:
			score, s = -tb.d[j], 1
		case tb.atUpper[j] && tb.d[j] > costTol:
			score, s = tb.d[j], -1
		default:
			continue
		}
		if bland {
			return j, s
		}
		if score > best {
			q, dir, best = j, s, score
		}
	}
	return q, dir
}

// ratio finds how far column q can move. It returns the blocking row, or -1
// when the column reaches its own opposite bound first, together with the
// step and whether the leaving column ends at its upper bound.
func (tb *tableau) ratio(q int, dir float64) (int, float64, bool) {
	r, step, toUpper := -1, tb.upper[q], false
	bestAlpha := 0.0
	bland := tb.degenerate > blandAfter
	for i := 0; i < tb.m; i++ {
		alpha := dir * tb.t.At(i, q)
		var lim float64
		var up bool
		switch {
		case alpha > pivotTol:
			lim = math.Max(tb.beta[i], 0) / alpha
		case alpha < -pivotTol && !math.IsInf(tb.upper[tb.basis[i]], 1):
			lim = math.Max(tb.upper[tb.basis[i]]-tb.beta[i], 0) / -alpha
			up = true
		default:
			continue
		}
		take := lim < step-zeroTol
		if !take && r >= 0 && lim <= step+zeroTol {
			if bland {
				take = tb.basis[i] < tb.basis[r]
			} else {
				take = math.Abs(alpha) > bestAlpha
			}
		}
		if take {
			r, step, toUpper, bestAlpha = i, lim, up, math.Abs(alpha)
		}
	}
	return r, step, toUpper
}

// shift moves column q by delta and updates the basic values.
func (tb *tableau) shift(q int, delta float64) {
	for i := 0; i < tb.m; i++ {
		if a := tb.t.At(i, q); a != 0 {
			tb.beta[i] -= delta * a
		}
	}
}

// pivot makes column q basic in row r. Only the nonzero entries of the pivot
// row are touched.
func (tb *tableau) pivot(r, q int) {
	prow := tb.t.RawRowView(r)
	inv := 1 / prow[q]
	tb.nz = tb.nz[:0]
	for j, v := range prow {
		if v == 0 {
			continue
		}
		v *= inv
		if math.Abs(v) < zeroTol {
			prow[j] = 0
			continue
		}
		prow[j] = v
		tb.nz = append(tb.nz, j)
	}
	prow[q] = 1
	for i := 0; i < tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[q]
		if f == 0 {
			continue
		}
		for _, j := range tb.nz {
			v := row[j] - f*prow[j]
			if math.Abs(v) < zeroTol {
				v = 0
			}
			row[j] = v
		}
		row[q] = 0
	}
	if f := tb.d[q]; f != 0 {
		for _, j := range tb.nz {
			tb.d[j] -= f * prow[j]
		}
	}
	tb.d[q] = 0
}
