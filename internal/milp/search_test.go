package milp

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPresolve_FixesForcedRows(t *testing.T) {
	m := NewModel()
	x := binaries(m, 6)
	m.AddConstraint("none", Expr{{x[0], 1}, {x[1], 1}}, Equal, 0)
	m.AddConstraint("all", Expr{{x[2], 1}, {x[3], 2}}, Equal, 3)
	m.AddConstraint("one", Expr{{x[4], 1}, {x[5], 1}}, Equal, 1)

	s := newSearch(context.Background(), m)
	fixed, ok := s.presolve()
	require.True(t, ok)
	assert.Equal(t, []int8{0, 0, 1, 1, -1, -1}, fixed)
	assert.Equal(t, []int8{-1, -1, -1, -1, -1, -1}, s.fixed, "node assignment must not change")
}

func TestPresolve_DetectsUnmeetableRows(t *testing.T) {
	m := NewModel()
	x := binaries(m, 2)
	m.AddConstraint("none", Expr{{x[0], 1}, {x[1], 1}}, Equal, 0)

	s := newSearch(context.Background(), m)
	s.fixed[0] = 1
	_, ok := s.presolve()
	assert.False(t, ok)

	m.AddConstraint("too much", Sum(x, ones(2)), GreaterEq, 3)
	s = newSearch(context.Background(), m)
	_, ok = s.presolve()
	assert.False(t, ok)
}

func TestPhaseOne(t *testing.T) {
	// x + s = 1 together with x = 0: degenerate but feasible.
	a := mat.NewDense(2, 2, []float64{1, 1, 1, 0})
	ok, err := phaseOne(a, []float64{1, 0}, 1e-7)
	require.NoError(t, err)
	assert.True(t, ok)

	// x + s = 1 together with x = 2.
	ok, err = phaseOne(a, []float64{1, 2}, 1e-7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOptimize_ZeroCountGroupsStayFeasible(t *testing.T) {
	// Groups mirror pizza categories: two doughs pick one, one sauce, one
	// cheese, two meats pick none, one fruit. Only the heavier dough meets
	// the calorie floor.
	m := NewModel()
	x := binaries(m, 7)
	m.AddConstraint("dough", Expr{{x[0], 1}, {x[1], 1}}, Equal, 1)
	m.AddConstraint("sauce", Expr{{x[2], 1}}, Equal, 1)
	m.AddConstraint("cheese", Expr{{x[3], 1}}, Equal, 1)
	m.AddConstraint("meat", Expr{{x[4], 1}, {x[5], 1}}, Equal, 0)
	m.AddConstraint("fruit", Expr{{x[6], 1}}, Equal, 1)
	m.AddConstraint("calories", Sum(x, []float64{120, 80, 60, 50, 300, 200, 30}), GreaterEq, 256)
	m.SetObjective(Sum(x, []float64{2, 1.5, 1, 1.2, 0.5, 0.5, 0.8}), Minimize)

	status, err := m.Optimize(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, status)
	assert.InDelta(t, 5.0, m.Objective(), 1e-9)
	assert.True(t, m.Selected(x[0]))
	assert.False(t, m.Selected(x[4]))
	assert.False(t, m.Selected(x[5]))
}

type row struct {
	coefs []float64
	rel   Relation
	rhs   float64
}

func (r row) holds(mask int) bool {
	var lhs float64
	for i, c := range r.coefs {
		if mask&(1<<i) != 0 {
			lhs += c
		}
	}
	return holds(lhs, r.rel, r.rhs, 1e-9)
}

// randomProblem draws group-count equalities (counts may be 0) plus a floor
// and a ceiling on a second attribute.
func randomProblem(rng *rand.Rand, n int) []row {
	groups := 1 + rng.IntN(4)
	member := make([]int, n)
	for i := range member {
		member[i] = rng.IntN(groups)
	}
	var rows []row
	for g := range groups {
		coefs := make([]float64, n)
		size := 0
		for i, k := range member {
			if k == g {
				coefs[i] = 1
				size++
			}
		}
		rows = append(rows, row{coefs, Equal, float64(rng.IntN(min(size, 2) + 1))})
	}

	attr := make([]float64, n)
	var total float64
	for i := range attr {
		attr[i] = math.Round(rng.Float64()*40000) / 100
		total += attr[i]
	}
	rows = append(rows, row{attr, GreaterEq, rng.Float64() * total * 0.6})
	if rng.IntN(2) == 0 {
		rows = append(rows, row{attr, LessEq, total * (0.4 + rng.Float64()*0.6)})
	}
	return rows
}

func TestOptimize_MatchesEnumeration(t *testing.T) {
	rng := rand.New(rand.NewPCG(20230509, 42))
	feasible := 0
	for trial := range 400 {
		n := 4 + rng.IntN(6)
		rows := randomProblem(rng, n)
		cost := make([]float64, n)
		for i := range cost {
			cost[i] = math.Round((0.5+rng.Float64()*5)*100) / 100
		}
		sense := Minimize
		if rng.IntN(2) == 0 {
			sense = Maximize
		}

		best, found := 0.0, false
		for mask := range 1 << n {
			ok := true
			for _, r := range rows {
				if !r.holds(mask) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			var value float64
			for i, c := range cost {
				if mask&(1<<i) != 0 {
					value += c
				}
			}
			if !found || (sense == Minimize && value < best) || (sense == Maximize && value > best) {
				best, found = value, true
			}
		}

		m := NewModel()
		x := binaries(m, n)
		for _, r := range rows {
			m.AddConstraint("row", Sum(x, r.coefs), r.rel, r.rhs)
		}
		m.SetObjective(Sum(x, cost), sense)
		status, err := m.Optimize(context.Background())

		if !found {
			assert.Equalf(t, StatusNotOptimal, status, "trial %d", trial)
			assert.ErrorIsf(t, err, ErrInfeasible, "trial %d", trial)
			continue
		}
		feasible++
		require.NoErrorf(t, err, "trial %d", trial)
		require.Equalf(t, StatusOptimal, status, "trial %d", trial)
		assert.InDeltaf(t, best, m.Objective(), 1e-6, "trial %d", trial)

		mask := 0
		for i, v := range x {
			if m.Selected(v) {
				mask |= 1 << i
			}
		}
		for _, r := range rows {
			assert.Truef(t, r.holds(mask), "trial %d: solution breaks a row", trial)
		}
	}
	assert.Greater(t, feasible, 20)
}
