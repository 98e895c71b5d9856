// Package menu holds a collection of pizzas and answers ranking queries
// over it.
package menu

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/Simplici0/maestro/internal/pizza"
)

var (
	// ErrEmptyMenu is returned by ranking queries on a menu without pizzas.
	ErrEmptyMenu = errors.New("menu is empty")
	// ErrNotFound is returned when removing a pizza the menu does not hold.
	ErrNotFound = errors.New("pizza not found in menu")
	// ErrInvalidQuantile is returned for a quantile outside [0, 1].
	ErrInvalidQuantile = errors.New("quantile must be within [0, 1]")
)

// Menu is an ordered collection of pizzas. It is not safe for concurrent
// mutation.
type Menu struct {
	pizzas []*pizza.Pizza
	logger *slog.Logger
}

// Option configures a Menu.
type Option func(*Menu)

// WithLogger sets the logger used for soft failures such as unsupported sort
// keys.
func WithLogger(l *slog.Logger) Option {
	return func(m *Menu) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a menu holding pizzas in the given order.
func New(pizzas []*pizza.Pizza, opts ...Option) *Menu {
	m := &Menu{
		pizzas: slices.Clone(pizzas),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Len returns the number of pizzas.
func (m *Menu) Len() int {
	return len(m.pizzas)
}

// Pizzas returns the pizzas in menu order.
func (m *Menu) Pizzas() []*pizza.Pizza {
	return slices.Clone(m.pizzas)
}

// Add appends p to the menu.
func (m *Menu) Add(p *pizza.Pizza) {
	m.pizzas = append(m.pizzas, p)
}

// Remove deletes the first occurrence of p, compared by identity.
func (m *Menu) Remove(p *pizza.Pizza) error {
	idx := slices.Index(m.pizzas, p)
	if idx < 0 {
		return ErrNotFound
	}
	m.pizzas = slices.Delete(m.pizzas, idx, idx+1)
	return nil
}

// Cheapest returns the pizza with the lowest price.
func (m *Menu) Cheapest() (*pizza.Pizza, error) {
	return m.min((*pizza.Pizza).Price)
}

// MostExpensive returns the pizza with the highest price.
func (m *Menu) MostExpensive() (*pizza.Pizza, error) {
	return m.max((*pizza.Pizza).Price)
}

// MostCaloric returns the pizza with the most calories.
func (m *Menu) MostCaloric() (*pizza.Pizza, error) {
	return m.max((*pizza.Pizza).Calories)
}

// FewestCalories returns the pizza with the fewest calories.
func (m *Menu) FewestCalories() (*pizza.Pizza, error) {
	return m.min((*pizza.Pizza).Calories)
}

// MostProtein returns the pizza with the most protein.
func (m *Menu) MostProtein() (*pizza.Pizza, error) {
	return m.max((*pizza.Pizza).Protein)
}

// MostFat returns the pizza whose fat distribution has the largest q-th
// quantile. Two pizzas with equal average fat can differ here when their
// tails differ.
func (m *Menu) MostFat(q float64) (*pizza.Pizza, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidQuantile, q)
	}
	return m.max(func(p *pizza.Pizza) float64 { return p.FatQuantile(q) })
}

// min and max keep the first pizza on ties.
func (m *Menu) min(key func(*pizza.Pizza) float64) (*pizza.Pizza, error) {
	return m.pick(key, func(candidate, best float64) bool { return candidate < best })
}

func (m *Menu) max(key func(*pizza.Pizza) float64) (*pizza.Pizza, error) {
	return m.pick(key, func(candidate, best float64) bool { return candidate > best })
}

func (m *Menu) pick(key func(*pizza.Pizza) float64, better func(candidate, best float64) bool) (*pizza.Pizza, error) {
	if len(m.pizzas) == 0 {
		return nil, ErrEmptyMenu
	}
	best := m.pizzas[0]
	bestKey := key(best)
	for _, p := range m.pizzas[1:] {
		if k := key(p); better(k, bestKey) {
			best, bestKey = p, k
		}
	}
	return best, nil
}
