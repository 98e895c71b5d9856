package menu

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/Simplici0/maestro/internal/pizza"
)

// ErrDegenerateRegression is returned when a price sensitivity cannot be
// estimated from the menu.
var ErrDegenerateRegression = errors.New("cannot fit price sensitivity")

// SensitivityProtein is the slope of price against protein across the menu.
func (m *Menu) SensitivityProtein() (float64, error) {
	return m.sensitivity("protein", (*pizza.Pizza).Protein)
}

// SensitivityCarbs is the slope of price against carbohydrates.
func (m *Menu) SensitivityCarbs() (float64, error) {
	return m.sensitivity("carbohydrates", (*pizza.Pizza).Carbohydrates)
}

// SensitivityFat is the slope of price against average fat.
func (m *Menu) SensitivityFat() (float64, error) {
	return m.sensitivity("average_fat", (*pizza.Pizza).AverageFat)
}

// sensitivity fits price = alpha + beta*feature by least squares and
// returns beta.
func (m *Menu) sensitivity(feature string, value func(*pizza.Pizza) float64) (float64, error) {
	if len(m.pizzas) < 2 {
		return 0, fmt.Errorf("%w: %s: need at least 2 pizzas, have %d", ErrDegenerateRegression, feature, len(m.pizzas))
	}

	xs := make([]float64, len(m.pizzas))
	ys := make([]float64, len(m.pizzas))
	for i, p := range m.pizzas {
		xs[i] = value(p)
		ys[i] = p.Price()
	}
	if stat.Variance(xs, nil) == 0 {
		return 0, fmt.Errorf("%w: %s is constant across the menu", ErrDegenerateRegression, feature)
	}

	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta, nil
}
