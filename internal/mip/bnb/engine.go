// Package bnb is the default mip.Engine backend: a depth-first
// branch-and-bound search over LP relaxations solved with a bounded-variable
// simplex.
//
// The search honours the time limit as a hard wall-clock cutoff: the
// deadline is checked between simplex pivots, so a solve returns within a
// pivot of the limit and reports the best incumbent found.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"itinopt/internal/mip"
)

const (
	intTol   = 1e-6
	pruneTol = 1e-7
	hintTol  = 1e-6
)

type variable struct {
	name    string
	lo, hi  float64
	integer bool
}

type row struct {
	terms []mip.Term
	rel   mip.Relation
	rhs   float64
}

// Engine implements mip.Engine. The zero value is not usable; call New.
type Engine struct {
	vars   []variable
	rows   []row
	obj    []mip.Term
	sense  mip.Sense
	limit  time.Duration
	values []float64
	hint   map[mip.Var]float64

	log   zerolog.Logger
	nodes int
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for search diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Factory returns a mip.Factory producing independent engines.
func Factory(opts ...Option) mip.Factory {
	return func() (mip.Engine, error) { return New(opts...), nil }
}

func (e *Engine) NewBoolVar(name string) mip.Var {
	e.vars = append(e.vars, variable{name: name, lo: 0, hi: 1, integer: true})
	return mip.Var(len(e.vars) - 1)
}

func (e *Engine) NewIntVar(lo, hi int64, name string) mip.Var {
	e.vars = append(e.vars, variable{name: name, lo: float64(lo), hi: float64(hi), integer: true})
	return mip.Var(len(e.vars) - 1)
}

func (e *Engine) AddConstraint(expr *mip.LinearExpr, rel mip.Relation, rhs float64) error {
	terms := expr.Terms()
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(e.vars) {
			return fmt.Errorf("bnb: unknown variable %d", t.Var)
		}
	}
	e.rows = append(e.rows, row{terms: terms, rel: rel, rhs: rhs - expr.Offset()})
	return nil
}

func (e *Engine) SetObjective(expr *mip.LinearExpr, sense mip.Sense) error {
	for _, t := range expr.Terms() {
		if int(t.Var) < 0 || int(t.Var) >= len(e.vars) {
			return fmt.Errorf("bnb: unknown variable %d", t.Var)
		}
	}
	e.obj = expr.Terms()
	e.sense = sense
	return nil
}

// AddHint records a starting value for v. A hint is used only when every
// variable is hinted and the assignment satisfies all rows; it then seeds
// the incumbent.
func (e *Engine) AddHint(v mip.Var, value float64) {
	if int(v) < 0 || int(v) >= len(e.vars) {
		return
	}
	if e.hint == nil {
		e.hint = map[mip.Var]float64{}
	}
	e.hint[v] = value
}

// SetTimeLimit sets the wall-clock budget; values <= 0 mean no limit.
func (e *Engine) SetTimeLimit(ms int64) {
	e.limit = time.Duration(ms) * time.Millisecond
}

// Value returns the incumbent value of v after a successful Solve.
func (e *Engine) Value(v mip.Var) float64 {
	if int(v) < 0 || int(v) >= len(e.values) {
		return 0
	}
	return e.values[v]
}

// Nodes returns the number of relaxations solved by the last Solve.
func (e *Engine) Nodes() int { return e.nodes }

type node struct {
	lo, hi []float64
}

func (n node) with(j int, lo, hi float64) node {
	c := node{lo: append([]float64(nil), n.lo...), hi: append([]float64(nil), n.hi...)}
	c.lo[j], c.hi[j] = lo, hi
	return c
}

// Solve runs the search. The context and the time limit both stop it, even
// in the middle of a relaxation; the best incumbent so far is then reported
// as FEASIBLE, or UNKNOWN when there is none.
func (e *Engine) Solve(ctx context.Context) (mip.Status, error) {
	if e.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.limit)
		defer cancel()
	}
	n := len(e.vars)
	e.nodes = 0
	e.values = nil

	// The simplex minimises; flip the objective for maximisation.
	c := make([]float64, n)
	for _, t := range e.obj {
		c[t.Var] += t.Coef
	}
	if e.sense == mip.Maximize {
		for j := range c {
			c[j] = -c[j]
		}
	}
	g := e.stdRows()

	root := node{lo: make([]float64, n), hi: make([]float64, n)}
	for j, v := range e.vars {
		root.lo[j], root.hi[j] = v.lo, v.hi
	}

	var best []float64
	bestObj := math.Inf(1)
	if x, ok := e.hinted(g); ok {
		best, bestObj = x, dot(c, x)
		e.log.Debug().Msg("bnb: incumbent from hint")
	}
	stack := []node{root}
	exhausted := true
	start := time.Now()

	for len(stack) > 0 {
		if ctx.Err() != nil {
			exhausted = false
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		val, x, err := e.relax(ctx, c, g, nd)
		e.nodes++
		if err != nil {
			if ctx.Err() != nil {
				exhausted = false
				break
			}
			if !errors.Is(err, errLPInfeasible) {
				// An unsolved node leaves the bound unproven.
				exhausted = false
				e.log.Debug().Err(err).Int("node", e.nodes).Msg("bnb: relaxation failed")
			}
			continue
		}
		if best != nil && val >= bestObj-pruneTol {
			continue
		}
		j := e.branchVar(x)
		if j < 0 {
			best = e.round(x)
			bestObj = dot(c, best)
			e.log.Debug().Int("node", e.nodes).Msg("bnb: new incumbent")
			continue
		}
		if ctx.Err() != nil {
			exhausted = false
			break
		}
		f := math.Floor(x[j])
		// Push the down branch first so the up branch is explored next.
		stack = append(stack, nd.with(j, nd.lo[j], f), nd.with(j, f+1, nd.hi[j]))
	}
	if ctx.Err() != nil {
		exhausted = false
	}

	e.log.Debug().Int("nodes", e.nodes).Dur("elapsed", time.Since(start)).Bool("exhausted", exhausted).Msg("bnb: search finished")

	switch {
	case best != nil && exhausted:
		e.values = best
		return mip.StatusOptimal, nil
	case best != nil:
		e.values = best
		return mip.StatusFeasible, nil
	case exhausted:
		return mip.StatusInfeasible, nil
	default:
		return mip.StatusUnknown, nil
	}
}

// hinted returns the hint as a full assignment when it is complete,
// integral where required, within bounds and feasible for g.
func (e *Engine) hinted(g []row) ([]float64, bool) {
	if len(e.hint) != len(e.vars) {
		return nil, false
	}
	x := make([]float64, len(e.vars))
	for v, val := range e.hint {
		x[v] = val
	}
	for j, v := range e.vars {
		if x[j] < v.lo-hintTol || x[j] > v.hi+hintTol {
			return nil, false
		}
		if v.integer && math.Abs(x[j]-math.Round(x[j])) > hintTol {
			return nil, false
		}
	}
	x = e.round(x)
	for _, r := range g {
		lhs := 0.0
		for _, t := range r.terms {
			lhs += t.Coef * x[t.Var]
		}
		if lhs > r.rhs+hintTol || (r.rel == mip.Equal && lhs < r.rhs-hintTol) {
			return nil, false
		}
	}
	return x, true
}

// stdRows turns every constraint into a <= or = row.
func (e *Engine) stdRows() []row {
	out := make([]row, 0, len(e.rows))
	for _, r := range e.rows {
		if r.rel == mip.GreaterOrEqual {
			r = negate(r)
		}
		out = append(out, r)
	}
	return out
}

func negate(r row) row {
	terms := make([]mip.Term, len(r.terms))
	for i, t := range r.terms {
		terms[i] = mip.Term{Var: t.Var, Coef: -t.Coef}
	}
	return row{terms: terms, rel: mip.LessOrEqual, rhs: -r.rhs}
}

// relax solves the LP relaxation of nd. Variables are shifted to y = x - lo
// so that 0 <= y <= hi - lo; bounds stay on the columns.
func (e *Engine) relax(ctx context.Context, c []float64, g []row, nd node) (float64, []float64, error) {
	n := len(e.vars)
	ub := make([]float64, n)
	for j := 0; j < n; j++ {
		if nd.hi[j] < nd.lo[j] {
			return 0, nil, errLPInfeasible
		}
		ub[j] = nd.hi[j] - nd.lo[j]
	}
	rows := make([]lpRow, len(g))
	for i, r := range g {
		rhs := r.rhs
		for _, t := range r.terms {
			rhs -= t.Coef * nd.lo[t.Var]
		}
		rows[i] = lpRow{terms: r.terms, eq: r.rel == mip.Equal, rhs: rhs}
	}
	if n == 0 {
		for _, r := range rows {
			if r.rhs < -feasTol || (r.eq && r.rhs > feasTol) {
				return 0, nil, errLPInfeasible
			}
		}
		return 0, []float64{}, nil
	}

	y, err := solveLP(ctx, c, rows, ub)
	if err != nil {
		return 0, nil, err
	}
	x := make([]float64, n)
	floats.AddTo(x, y, nd.lo)
	return dot(c, x), x, nil
}

// branchVar picks the integer variable whose value is furthest from
// integral, or -1 when x is integral.
func (e *Engine) branchVar(x []float64) int {
	best, bestFrac := -1, intTol
	for j, v := range e.vars {
		if !v.integer {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > bestFrac {
			best, bestFrac = j, frac
		}
	}
	return best
}

func (e *Engine) round(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range e.vars {
		if v.integer {
			out[j] = math.Round(x[j])
		} else {
			out[j] = x[j]
		}
	}
	return out
}

func dot(c, x []float64) float64 {
	s := 0.0
	for j := range c {
		s += c[j] * x[j]
	}
	return s
}
