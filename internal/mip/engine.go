package mip

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the outcome reported by an engine after Solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	}
	return "UNKNOWN"
}

// HasSolution reports whether variable values can be read after this status.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Engine is the contract a generic integer/linear programming backend must
// satisfy. Handles returned by NewBoolVar/NewIntVar are engine specific and
// only valid for the engine that produced them.
//
// An Engine is used for exactly one solve and is never shared between
// goroutines.
type Engine interface {
	NewBoolVar(name string) Var
	NewIntVar(lo, hi int64, name string) Var
	AddConstraint(expr *LinearExpr, rel Relation, rhs float64) error
	SetObjective(expr *LinearExpr, sense Sense) error
	SetTimeLimit(ms int64)
	Solve(ctx context.Context) (Status, error)
	Value(v Var) float64
}

// Hinter is implemented by engines that accept a starting assignment.
type Hinter interface {
	AddHint(v Var, value float64)
}

// Factory builds a fresh Engine for one request.
type Factory func() (Engine, error)

// ErrEngineUnavailable is returned by Run when the factory cannot build an engine.
var ErrEngineUnavailable = errors.New("mip: engine unavailable")

// Outcome is the raw result of one solve, with values indexed by model Var.
type Outcome struct {
	Status    Status
	Values    []float64
	Objective float64
	WallTime  time.Duration
}

// Value returns the solved value of a model variable, or 0 when the outcome
// carries no solution.
func (o Outcome) Value(v Var) float64 {
	if int(v) >= len(o.Values) {
		return 0
	}
	return o.Values[v]
}

// Run replays m into a new engine from newEngine, solves it under limit and
// reads back every variable when the engine reports a solution.
func Run(ctx context.Context, newEngine Factory, m *Model, limit time.Duration) (Outcome, error) {
	if newEngine == nil {
		return Outcome{}, fmt.Errorf("%w: no factory configured", ErrEngineUnavailable)
	}
	e, err := newEngine()
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if e == nil {
		return Outcome{}, fmt.Errorf("%w: factory returned nil", ErrEngineUnavailable)
	}

	handles := make([]Var, len(m.vars))
	for i, spec := range m.vars {
		if spec.Kind == KindBool {
			handles[i] = e.NewBoolVar(spec.Name)
		} else {
			handles[i] = e.NewIntVar(spec.Lo, spec.Hi, spec.Name)
		}
	}
	remap := func(expr *LinearExpr) *LinearExpr {
		out := NewLinearExpr()
		for _, t := range expr.terms {
			out.AddTerm(handles[t.Var], t.Coef)
		}
		return out.AddConstant(expr.offset)
	}
	for _, c := range m.cons {
		if err := e.AddConstraint(remap(c.Expr), c.Rel, c.RHS); err != nil {
			return Outcome{}, fmt.Errorf("mip: add constraint %s: %w", c.Name, err)
		}
	}
	if err := e.SetObjective(remap(m.obj), m.sense); err != nil {
		return Outcome{}, fmt.Errorf("mip: set objective: %w", err)
	}
	if h, ok := e.(Hinter); ok {
		for v, x := range m.hints {
			h.AddHint(handles[v], x)
		}
	}
	e.SetTimeLimit(limit.Milliseconds())

	start := time.Now()
	status, err := e.Solve(ctx)
	out := Outcome{Status: status, WallTime: time.Since(start)}
	if err != nil {
		return out, fmt.Errorf("mip: solve: %w", err)
	}
	if !status.HasSolution() {
		return out, nil
	}
	out.Values = make([]float64, len(handles))
	for i, h := range handles {
		out.Values[i] = e.Value(h)
	}
	out.Objective = m.obj.Eval(out.Values)
	return out, nil
}
