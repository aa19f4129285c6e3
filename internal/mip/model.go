// Package mip describes mixed-integer linear programs independently of the
// engine that solves them.
//
// A Model is a plain record of variables, linear constraints and an
// objective. It never talks to a solver; Run replays it into an Engine
// created for a single solve.
package mip

import (
	"fmt"
	"math"
)

// Var is the index of a variable. Inside a Model it indexes the model's
// variable table; inside an Engine it is whatever handle the engine returned.
type Var int

// VarKind distinguishes boolean from bounded integer variables.
type VarKind int

const (
	KindBool VarKind = iota
	KindInteger
)

// VarSpec declares one model variable.
type VarSpec struct {
	Name string
	Kind VarKind
	Lo   int64
	Hi   int64
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	terms  []Term
	offset float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// Add adds v with coefficient 1 and returns the expression.
func (l *LinearExpr) Add(v Var) *LinearExpr {
	return l.AddTerm(v, 1)
}

// AddTerm adds coef*v and returns the expression. Zero coefficients are dropped.
func (l *LinearExpr) AddTerm(v Var, coef float64) *LinearExpr {
	if coef != 0 {
		l.terms = append(l.terms, Term{Var: v, Coef: coef})
	}
	return l
}

// AddSum adds every variable with coefficient 1.
func (l *LinearExpr) AddSum(vars ...Var) *LinearExpr {
	for _, v := range vars {
		l.Add(v)
	}
	return l
}

// AddExpr adds scale*o to the expression.
func (l *LinearExpr) AddExpr(o *LinearExpr, scale float64) *LinearExpr {
	if o == nil {
		return l
	}
	for _, t := range o.terms {
		l.AddTerm(t.Var, t.Coef*scale)
	}
	l.offset += o.offset * scale
	return l
}

// AddConstant adds c to the expression.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// Terms returns a copy of the expression's terms in insertion order.
func (l *LinearExpr) Terms() []Term {
	return append([]Term(nil), l.terms...)
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 { return l.offset }

// Eval evaluates the expression against values indexed by Var.
func (l *LinearExpr) Eval(values []float64) float64 {
	sum := l.offset
	for _, t := range l.terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Relation is the comparison used by a linear constraint.
type Relation int

const (
	LessOrEqual Relation = iota
	GreaterOrEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "=="
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Holds reports whether lhs rel rhs is satisfied within tol.
func (r Relation) Holds(lhs, rhs, tol float64) bool {
	switch r {
	case LessOrEqual:
		return lhs <= rhs+tol
	case GreaterOrEqual:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

// Sense is the optimisation direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Constraint is expr rel rhs. The expression offset is folded into RHS when
// the constraint is added, so Expr.Offset() is always zero.
type Constraint struct {
	Name string
	Expr *LinearExpr
	Rel  Relation
	RHS  float64
}

// Model records variables, constraints and the objective of a program.
type Model struct {
	vars  []VarSpec
	cons  []Constraint
	obj   *LinearExpr
	sense Sense
	hints map[Var]float64
}

// NewModel returns an empty maximisation model.
func NewModel() *Model {
	return &Model{obj: NewLinearExpr()}
}

// NewBoolVar declares a 0/1 variable.
func (m *Model) NewBoolVar(name string) Var {
	m.vars = append(m.vars, VarSpec{Name: name, Kind: KindBool, Lo: 0, Hi: 1})
	return Var(len(m.vars) - 1)
}

// NewIntVar declares an integer variable in [lo, hi].
func (m *Model) NewIntVar(lo, hi int64, name string) Var {
	m.vars = append(m.vars, VarSpec{Name: name, Kind: KindInteger, Lo: lo, Hi: hi})
	return Var(len(m.vars) - 1)
}

// AddConstraint adds expr rel rhs.
func (m *Model) AddConstraint(expr *LinearExpr, rel Relation, rhs float64, name string) {
	e := NewLinearExpr()
	e.terms = expr.Terms()
	m.cons = append(m.cons, Constraint{Name: name, Expr: e, Rel: rel, RHS: rhs - expr.offset})
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(expr *LinearExpr, sense Sense) {
	m.obj = NewLinearExpr().AddExpr(expr, 1)
	m.sense = sense
}

// AddHint suggests a value for v. Engines that accept hints may start
// their search from a complete hinted assignment; others ignore them.
func (m *Model) AddHint(v Var, value float64) {
	if m.hints == nil {
		m.hints = map[Var]float64{}
	}
	m.hints[v] = value
}

// ClearHints drops every hint.
func (m *Model) ClearHints() { m.hints = nil }

// Hints returns the hinted values indexed by Var and whether every variable
// carries a hint.
func (m *Model) Hints() ([]float64, bool) {
	if len(m.hints) == 0 {
		return nil, false
	}
	out := make([]float64, len(m.vars))
	for v, x := range m.hints {
		out[v] = x
	}
	return out, len(m.hints) == len(m.vars)
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

// VarSpec returns the declaration of v.
func (m *Model) VarSpec(v Var) VarSpec { return m.vars[v] }

// Constraint returns the i-th constraint.
func (m *Model) Constraint(i int) Constraint { return m.cons[i] }

// Objective returns the objective expression and its sense.
func (m *Model) Objective() (*LinearExpr, Sense) { return m.obj, m.sense }

// Check reports the first constraint or bound violated by values, or nil.
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.vars) {
		return fmt.Errorf("mip: %d values for %d variables", len(values), len(m.vars))
	}
	for i, spec := range m.vars {
		v := values[i]
		if v < float64(spec.Lo)-tol || v > float64(spec.Hi)+tol {
			return fmt.Errorf("mip: %s=%g outside [%d,%d]", spec.Name, v, spec.Lo, spec.Hi)
		}
		if math.Abs(v-math.Round(v)) > tol {
			return fmt.Errorf("mip: %s=%g is not integral", spec.Name, v)
		}
	}
	for _, c := range m.cons {
		lhs := c.Expr.Eval(values)
		if !c.Rel.Holds(lhs, c.RHS, tol) {
			return fmt.Errorf("mip: constraint %s violated: %g %s %g", c.Name, lhs, c.Rel, c.RHS)
		}
	}
	return nil
}
