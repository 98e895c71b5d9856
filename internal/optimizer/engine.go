// Package optimizer composes pizzas from a catalog by solving binary integer
// programs: the cheapest pizza meeting a set of constraints, or the tastiest
// one once price is traded off against taste.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/milp"
	"github.com/Simplici0/maestro/internal/pizza"
	"github.com/Simplici0/maestro/internal/sample"
)

var (
	// ErrInfeasible is returned when no optimal pizza could be certified:
	// the constraints cannot be met, or the solver stopped early.
	ErrInfeasible = errors.New("no pizza satisfies the constraints")
	// ErrInconsistentSolution is returned when the solver's selection does not
	// match the requested category counts.
	ErrInconsistentSolution = errors.New("solver returned an inconsistent selection")
)

// Engine builds pizzas from one catalog. An Engine holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	catalog   *ingredient.Catalog
	logger    *slog.Logger
	timeout   time.Duration
	nodeLimit int
	reduce    sample.Reducer
	weights   pizza.Weights
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger that receives solve diagnostics. A nil logger
// is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout bounds every solve. A solve that runs out of time fails with
// ErrInfeasible.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithNodeLimit bounds the branch-and-bound search of every solve.
func WithNodeLimit(n int) Option {
	return func(e *Engine) { e.nodeLimit = n }
}

// WithFatReducer sets how an ingredient's fat samples are reduced to the
// single number used by the fat bound and the taste objective. The default is
// the sample mean.
func WithFatReducer(r sample.Reducer) Option {
	return func(e *Engine) {
		if r != nil {
			e.reduce = r
		}
	}
}

// WithWeights sets the per-category taste weights used by MaximizeTaste.
func WithWeights(w pizza.Weights) Option {
	return func(e *Engine) {
		if w != nil {
			e.weights = w
		}
	}
}

// New returns an engine over catalog.
func New(catalog *ingredient.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		logger:  slog.Default(),
		reduce:  sample.Mean,
		weights: pizza.DefaultWeights,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinimizePrice returns the cheapest pizza meeting c.
func (e *Engine) MinimizePrice(ctx context.Context, c Constraints) (*pizza.Pizza, error) {
	if err := e.check(c); err != nil {
		return nil, err
	}
	items := e.catalog.All()
	price := make([]float64, len(items))
	for i, it := range items {
		price[i] = it.Price
	}
	return e.solve(ctx, "minimize_price", c, items, price, milp.Minimize)
}

// MaximizeTaste returns the pizza meeting c that maximizes
// taste - tradeoff*price, where taste weighs each ingredient's reduced fat by
// its category weight. Larger tradeoffs favor cheaper pizzas.
func (e *Engine) MaximizeTaste(ctx context.Context, c Constraints, tradeoff float64) (*pizza.Pizza, error) {
	if math.IsNaN(tradeoff) || math.IsInf(tradeoff, 0) || tradeoff < 0 {
		return nil, fmt.Errorf("%w: tradeoff must be finite and non-negative, got %v", ErrInvalidConstraints, tradeoff)
	}
	if err := e.check(c); err != nil {
		return nil, err
	}
	items := e.catalog.All()
	utility := make([]float64, len(items))
	for i, it := range items {
		utility[i] = e.reduce(it.Fat)*e.weights[it.Category] - tradeoff*it.Price
	}
	return e.solve(ctx, "maximize_taste", c, items, utility, milp.Maximize)
}

func (e *Engine) check(c Constraints) error {
	if err := c.validate(); err != nil {
		return err
	}
	for _, b := range c.bounds() {
		if b.Empty() {
			return fmt.Errorf("%w: %s bound %v is empty", ErrInfeasible, b.name, b.Bounds)
		}
	}
	return nil
}

func (e *Engine) solve(ctx context.Context, op string, c Constraints, items []ingredient.Ingredient, objective []float64, sense milp.Sense) (*pizza.Pizza, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()

	// A category that takes no ingredient contributes no variables.
	var kept []ingredient.Ingredient
	var costs []float64
	for i, it := range items {
		if c.Count(it.Category) > 0 {
			kept = append(kept, it)
			costs = append(costs, objective[i])
		}
	}
	items, objective = kept, costs

	m := milp.NewModel(milp.WithNodeLimit(e.nodeLimit))
	vars := make([]milp.Var, len(items))
	for i, it := range items {
		vars[i] = m.AddBinary(it.Name)
	}

	attrs := []struct {
		b   namedBounds
		val func(ingredient.Ingredient) float64
	}{
		{namedBounds{"price", c.Price}, func(i ingredient.Ingredient) float64 { return i.Price }},
		{namedBounds{"protein", c.Protein}, func(i ingredient.Ingredient) float64 { return i.Protein }},
		{namedBounds{"fat", c.Fat}, func(i ingredient.Ingredient) float64 { return e.reduce(i.Fat) }},
		{namedBounds{"carbohydrates", c.Carbohydrates}, func(i ingredient.Ingredient) float64 { return i.Carbohydrates }},
		{namedBounds{"calories", c.Calories}, func(i ingredient.Ingredient) float64 { return i.Calories }},
	}
	for _, a := range attrs {
		coefs := make([]float64, len(items))
		for i, it := range items {
			coefs[i] = a.val(it)
		}
		expr := milp.Sum(vars, coefs)
		m.AddConstraint(a.b.name+"_min", expr, milp.GreaterEq, a.b.Min)
		m.AddConstraint(a.b.name+"_max", expr, milp.LessEq, a.b.Max)
	}

	for _, cat := range ingredient.Categories {
		var expr milp.Expr
		for i, it := range items {
			if it.Category == cat {
				expr = append(expr, milp.Term{Var: vars[i], Coef: 1})
			}
		}
		m.AddConstraint(cat.String()+"_count", expr, milp.Equal, float64(c.Count(cat)))
	}

	m.SetObjective(milp.Sum(vars, objective), sense)

	status, err := m.Optimize(ctx)
	switch status {
	case milp.StatusOptimal:
	case milp.StatusNotOptimal:
		e.logger.Debug("no optimal pizza", "op", op, "nodes", m.Nodes(), "elapsed", time.Since(start), "reason", err)
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	default:
		return nil, fmt.Errorf("%s: solve: %w", op, err)
	}

	p, err := e.reconstruct(m, c, items, vars)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pizza optimized",
		"op", op,
		"objective", m.Objective(),
		"nodes", m.Nodes(),
		"elapsed", time.Since(start),
		"ingredients", p.Ingredients(),
	)
	return p, nil
}

func (e *Engine) reconstruct(m *milp.Model, c Constraints, items []ingredient.Ingredient, vars []milp.Var) (*pizza.Pizza, error) {
	selected := make(map[ingredient.Category][]ingredient.Ingredient, len(ingredient.Categories))
	for i, it := range items {
		if m.Selected(vars[i]) {
			selected[it.Category] = append(selected[it.Category], it)
		}
	}
	for _, cat := range ingredient.Categories {
		if got, want := len(selected[cat]), c.Count(cat); got != want {
			return nil, fmt.Errorf("%w: %d %s selected, want %d", ErrInconsistentSolution, got, cat, want)
		}
	}

	var toppings []ingredient.Ingredient
	for _, cat := range []ingredient.Category{ingredient.Cheese, ingredient.Meat, ingredient.Vegetable, ingredient.Fruit} {
		toppings = append(toppings, selected[cat]...)
	}
	return pizza.New(selected[ingredient.Dough][0], selected[ingredient.Sauce][0], toppings...)
}
