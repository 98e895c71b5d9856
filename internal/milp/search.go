package milp

import (
	"context"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const simplexTolerance = 1e-10

// search is one depth-first branch-and-bound run. Costs are always
// minimized; a maximization objective is negated on entry.
type search struct {
	ctx   context.Context
	m     *Model
	cost  []float64
	fixed []int8 // -1 free, otherwise the fixed 0/1 value

	nodes          int
	incumbent      []float64
	incumbentValue float64
}

func newSearch(ctx context.Context, m *Model) *search {
	n := len(m.names)
	cost := make([]float64, n)
	for _, t := range m.objective {
		cost[t.Var] += t.Coef
	}
	if m.sense == Maximize {
		for i := range cost {
			cost[i] = -cost[i]
		}
	}
	fixed := make([]int8, n)
	for i := range fixed {
		fixed[i] = -1
	}
	return &search{
		ctx:            ctx,
		m:              m,
		cost:           cost,
		fixed:          fixed,
		incumbentValue: math.Inf(1),
	}
}

func (s *search) run() error {
	return s.branch()
}

func (s *search) branch() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	if s.m.nodeLimit > 0 && s.nodes >= s.m.nodeLimit {
		return ErrNodeLimit
	}
	s.nodes++

	r := s.relax()
	if !r.feasible {
		return nil
	}
	if s.incumbent != nil && r.bound >= s.incumbentValue-s.m.tolerance {
		return nil
	}

	j, first := s.pickBranch(r)
	if j < 0 {
		s.accept(r.x)
		return nil
	}

	for _, v := range [2]int8{first, 1 - first} {
		s.fixed[j] = v
		err := s.branch()
		s.fixed[j] = -1
		if err != nil {
			return err
		}
	}
	return nil
}

// pickBranch returns the variable to branch on and the value to try first,
// or -1 when r.x is an integral assignment satisfying every constraint.
func (s *search) pickBranch(r relaxation) (int, int8) {
	if r.x == nil {
		return s.firstFree(), 1
	}

	best, bestFrac := -1, s.m.tolerance
	for i, f := range s.fixed {
		if f >= 0 {
			continue
		}
		frac := math.Min(r.x[i], 1-r.x[i])
		if frac > bestFrac {
			best, bestFrac = i, frac
		}
	}
	if best >= 0 {
		return best, int8(math.Round(r.x[best]))
	}

	if s.satisfied(round(r.x)) {
		return -1, 0
	}
	// The relaxation looked integral but rounding broke a constraint; keep
	// splitting until the constant checks in relax decide.
	i := s.firstFree()
	if i < 0 {
		// Every variable is fixed and relax already checked the constants.
		return -1, 0
	}
	return i, int8(math.Round(r.x[i]))
}

func (s *search) firstFree() int {
	for i, f := range s.fixed {
		if f < 0 {
			return i
		}
	}
	return -1
}

func (s *search) accept(x []float64) {
	x = round(x)
	var value float64
	for i, v := range x {
		value += s.cost[i] * v
	}
	if s.incumbent == nil || value < s.incumbentValue-s.m.tolerance {
		s.incumbent = x
		s.incumbentValue = value
	}
}

func (s *search) satisfied(x []float64) bool {
	for _, c := range s.m.constraints {
		if c.impossible {
			return false
		}
		var lhs float64
		for _, t := range c.expr {
			lhs += t.Coef * x[t.Var]
		}
		if !holds(lhs, c.rel, c.rhs, s.m.tolerance*(1+math.Abs(c.rhs))) {
			return false
		}
	}
	return true
}

func holds(lhs float64, rel Relation, rhs, tol float64) bool {
	switch rel {
	case LessEq:
		return lhs <= rhs+tol
	case GreaterEq:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

func round(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Round(v)
	}
	return out
}

// relaxation is the LP bound of one node. A nil x with feasible set means
// the LP could not be solved and the node must be split without a bound.
type relaxation struct {
	feasible bool
	bound    float64
	x        []float64
}

var unbounded = relaxation{feasible: true, bound: math.Inf(-1)}

type lpRow struct {
	coefs []float64
	rhs   float64
}

// relax solves the LP relaxation of the current node. Fixed variables are
// substituted into the right-hand sides; every free variable gets 0 ≤ x ≤ 1.
// When the simplex cannot produce a bound the node is reported feasible with
// an unbounded relaxation so the caller keeps splitting it.
func (s *search) relax() relaxation {
	n := len(s.fixed)
	tol := s.m.tolerance

	fixed, ok := s.presolve()
	if !ok {
		return relaxation{}
	}

	x := make([]float64, n)
	column := make([]int, n)
	free := make([]int, 0, n)
	var base float64
	for i, f := range fixed {
		if f < 0 {
			column[i] = len(free)
			free = append(free, i)
			continue
		}
		column[i] = -1
		x[i] = float64(f)
		base += s.cost[i] * x[i]
	}

	var ineq, eq []lpRow
	for _, c := range s.m.constraints {
		if c.impossible {
			return relaxation{}
		}
		coefs := make([]float64, len(free))
		rhs := c.rhs
		for _, t := range c.expr {
			if j := column[t.Var]; j >= 0 {
				coefs[j] += t.Coef
			} else {
				rhs -= t.Coef * x[t.Var]
			}
		}
		if allZero(coefs) {
			if !holds(0, c.rel, rhs, tol*(1+math.Abs(c.rhs))) {
				return relaxation{}
			}
			continue
		}
		switch c.rel {
		case LessEq:
			ineq = append(ineq, lpRow{coefs, rhs})
		case GreaterEq:
			for j := range coefs {
				coefs[j] = -coefs[j]
			}
			ineq = append(ineq, lpRow{coefs, -rhs})
		case Equal:
			eq = append(eq, lpRow{coefs, rhs})
		}
	}

	if len(free) == 0 {
		return relaxation{feasible: true, bound: base, x: x}
	}
	if len(eq) > len(free) {
		return unbounded
	}

	for j := range free {
		coefs := make([]float64, len(free))
		coefs[j] = 1
		ineq = append(ineq, lpRow{coefs, 1})
	}

	// Standard form: [G I; A 0]·[x; slack] = [h; b], everything ≥ 0.
	rows := len(ineq) + len(eq)
	cols := len(free) + len(ineq)
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	for j, i := range free {
		c[j] = s.cost[i]
	}
	for r, row := range ineq {
		sign := setRow(a, b, r, row)
		a.Set(r, len(free)+r, sign)
	}
	for k, row := range eq {
		setRow(a, b, len(ineq)+k, row)
	}

	opt, sol, err := lp.Simplex(c, a, b, simplexTolerance, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		// The simplex start-up phase misreports degenerate systems as
		// infeasible, so only prune when the artificial problem agrees.
		if feasible, perr := phaseOne(a, b, tol); perr == nil && !feasible {
			return relaxation{}
		}
		return unbounded
	case err != nil:
		// ErrSingular, ErrBland and friends: no usable bound here.
		return unbounded
	}

	for j, i := range free {
		x[i] = math.Min(1, math.Max(0, sol[j]))
	}
	return relaxation{feasible: true, bound: base + opt, x: x}
}

// presolve fixes, on a copy of the node's assignment, every free variable
// that a constraint forces. A row is read as Σ a·x ≤ r; when its smallest
// attainable left-hand side already meets r, each variable must take the
// value that minimizes its term. It reports false when some row cannot be
// met at all.
func (s *search) presolve() ([]int8, bool) {
	fixed := slices.Clone(s.fixed)
	for changed := true; changed; {
		changed = false
		for _, c := range s.m.constraints {
			if c.impossible {
				return nil, false
			}
			tol := s.m.tolerance * (1 + math.Abs(c.rhs))
			switch c.rel {
			case LessEq:
				ok, moved := force(fixed, c.expr, 1, c.rhs, tol)
				if !ok {
					return nil, false
				}
				changed = changed || moved
			case GreaterEq:
				ok, moved := force(fixed, c.expr, -1, -c.rhs, tol)
				if !ok {
					return nil, false
				}
				changed = changed || moved
			case Equal:
				for _, sign := range [2]float64{1, -1} {
					ok, moved := force(fixed, c.expr, sign, sign*c.rhs, tol)
					if !ok {
						return nil, false
					}
					changed = changed || moved
				}
			}
		}
	}
	return fixed, true
}

// force applies presolve to the row sign·expr ≤ rhs.
func force(fixed []int8, expr Expr, sign, rhs, tol float64) (ok, moved bool) {
	coefs := make(map[Var]float64, len(expr))
	for _, t := range expr {
		if f := fixed[t.Var]; f >= 0 {
			rhs -= sign * t.Coef * float64(f)
			continue
		}
		coefs[t.Var] += sign * t.Coef
	}
	var lowest float64
	for _, a := range coefs {
		lowest += math.Min(a, 0)
	}
	if lowest > rhs+tol {
		return false, false
	}
	if lowest < rhs-tol {
		return true, false
	}
	for v, a := range coefs {
		switch {
		case a > 0:
			fixed[v] = 0
		case a < 0:
			fixed[v] = 1
		default:
			continue
		}
		moved = true
	}
	return true, moved
}

// phaseOne reports whether A·x = b, x ≥ 0 has a solution by minimizing the
// sum of one artificial column per row, starting from the artificial basis.
func phaseOne(a *mat.Dense, b []float64, tol float64) (bool, error) {
	rows, cols := a.Dims()
	ext := mat.NewDense(rows, cols+rows, nil)
	ext.Slice(0, rows, 0, cols).(*mat.Dense).Copy(a)
	c := make([]float64, cols+rows)
	basic := make([]int, rows)
	var total float64
	for r := range rows {
		ext.Set(r, cols+r, 1)
		c[cols+r] = 1
		basic[r] = cols + r
		total += b[r]
	}
	opt, _, err := lp.Simplex(c, ext, b, simplexTolerance, basic)
	if err != nil {
		return false, err
	}
	return opt <= tol*(1+total), nil
}

// setRow writes row r so that its right-hand side is non-negative and
// returns the sign applied.
func setRow(a *mat.Dense, b []float64, r int, row lpRow) float64 {
	sign := 1.0
	if row.rhs < 0 {
		sign = -1
	}
	for j, v := range row.coefs {
		a.Set(r, j, sign*v)
	}
	b[r] = sign * row.rhs
	return sign
}

func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
