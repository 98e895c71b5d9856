// Package milp solves small binary integer linear programs.
//
// A Model declares binary variables, linear constraints over them and one
// linear objective. Optimize runs a depth-first branch-and-bound whose LP
// relaxations are solved with gonum's simplex implementation.
package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible reports that no assignment satisfies the constraints.
	ErrInfeasible = errors.New("milp: problem is infeasible")
	// ErrNodeLimit reports that the search stopped before proving optimality.
	ErrNodeLimit = errors.New("milp: node limit reached")
	// ErrNotSolved is returned when reading values of a model without an
	// optimal solution.
	ErrNotSolved = errors.New("milp: model has no optimal solution")
)

// Status is the outcome of Optimize.
type Status int

const (
	// StatusOptimal means an optimal assignment was found and proven.
	StatusOptimal Status = iota
	// StatusNotOptimal covers infeasible models and searches that stopped
	// early (deadline, cancellation, node limit).
	StatusNotOptimal
	// StatusError means the model or the LP solver failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusNotOptimal:
		return "not optimal"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Relation compares a linear expression with a right-hand side.
type Relation int

const (
	LessEq Relation = iota
	GreaterEq
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Var is a handle to a binary variable of one Model.
type Var int

// Term is coef·var.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a sum of terms.
type Expr []Term

// Sum builds the expression Σ coefs[i]·vars[i].
func Sum(vars []Var, coefs []float64) Expr {
	e := make(Expr, 0, len(vars))
	for i, v := range vars {
		e = append(e, Term{Var: v, Coef: coefs[i]})
	}
	return e
}

type constraint struct {
	name string
	expr Expr
	rel  Relation
	rhs  float64

	// impossible marks constraints with an infinite right-hand side that
	// no assignment can meet.
	impossible bool
}

// Model is a binary integer linear program. A Model is not safe for
// concurrent use; build one per solve.
type Model struct {
	names       []string
	constraints []constraint
	objective   Expr
	sense       Sense
	nodeLimit   int
	tolerance   float64

	status   Status
	values   []float64
	objValue float64
	nodes    int
	buildErr error
}

// Option configures a Model.
type Option func(*Model)

// WithNodeLimit bounds the number of branch-and-bound nodes. Zero means no
// limit.
func WithNodeLimit(n int) Option {
	return func(m *Model) { m.nodeLimit = n }
}

// WithTolerance sets the integrality and feasibility tolerance.
func WithTolerance(tol float64) Option {
	return func(m *Model) {
		if tol > 0 {
			m.tolerance = tol
		}
	}
}

// NewModel returns an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{tolerance: 1e-7, status: StatusNotOptimal}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddBinary declares a new 0/1 variable.
func (m *Model) AddBinary(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int {
	return len(m.names)
}

// AddConstraint adds expr rel rhs. Constraints that can never bind, such as
// "≤ +Inf", are dropped.
func (m *Model) AddConstraint(name string, expr Expr, rel Relation, rhs float64) {
	if m.buildErr != nil {
		return
	}
	if math.IsNaN(rhs) {
		m.buildErr = fmt.Errorf("milp: constraint %s: right-hand side is NaN", name)
		return
	}
	if err := m.checkExpr(expr); err != nil {
		m.buildErr = fmt.Errorf("milp: constraint %s: %w", name, err)
		return
	}
	switch {
	case rel == LessEq && math.IsInf(rhs, 1):
		return
	case rel == GreaterEq && math.IsInf(rhs, -1):
		return
	case math.IsInf(rhs, 0):
		m.constraints = append(m.constraints, constraint{name: name, rel: rel, rhs: rhs, impossible: true})
		return
	}
	m.constraints = append(m.constraints, constraint{name: name, expr: expr, rel: rel, rhs: rhs})
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(expr Expr, sense Sense) {
	if err := m.checkExpr(expr); err != nil && m.buildErr == nil {
		m.buildErr = fmt.Errorf("milp: objective: %w", err)
	}
	m.objective = expr
	m.sense = sense
}

func (m *Model) checkExpr(expr Expr) error {
	for _, t := range expr {
		if int(t.Var) < 0 || int(t.Var) >= len(m.names) {
			return fmt.Errorf("unknown variable %d", t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("coefficient of %s is %v", m.names[t.Var], t.Coef)
		}
	}
	return nil
}

// Optimize searches for an optimal assignment. It returns StatusOptimal with
// a nil error, StatusNotOptimal with the reason (ErrInfeasible, ErrNodeLimit
// or the context error) or StatusError with the failure.
func (m *Model) Optimize(ctx context.Context) (Status, error) {
	m.values = nil
	m.nodes = 0
	if m.buildErr != nil {
		m.status = StatusError
		return m.status, m.buildErr
	}

	s := newSearch(ctx, m)
	err := s.run()
	m.nodes = s.nodes

	switch {
	case err == nil && s.incumbent != nil:
		m.status = StatusOptimal
		m.values = s.incumbent
		m.objValue = s.incumbentValue
		if m.sense == Maximize {
			m.objValue = -m.objValue
		}
		return m.status, nil
	case err == nil:
		m.status = StatusNotOptimal
		return m.status, ErrInfeasible
	case errors.Is(err, ErrNodeLimit), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.status = StatusNotOptimal
		return m.status, err
	default:
		m.status = StatusError
		return m.status, err
	}
}

// Status returns the outcome of the last Optimize call.
func (m *Model) Status() Status {
	return m.status
}

// Value returns the resolved 0/1 value of v. It panics if the model has no
// optimal solution.
func (m *Model) Value(v Var) float64 {
	if m.status != StatusOptimal {
		panic(ErrNotSolved)
	}
	return m.values[v]
}

// Selected reports whether v resolved to 1.
func (m *Model) Selected(v Var) bool {
	return m.Value(v) == 1
}

// Objective returns the objective value of the optimal assignment.
func (m *Model) Objective() float64 {
	return m.objValue
}

// Nodes returns how many branch-and-bound nodes the last solve explored.
func (m *Model) Nodes() int {
	return m.nodes
}
