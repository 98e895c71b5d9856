// Package pizza models a composed pizza and the nutrition it aggregates from
// its ingredients.
package pizza

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/sample"
)

// ErrInvalidPizza is returned when ingredients cannot form a pizza.
var ErrInvalidPizza = errors.New("invalid pizza")

// Weights maps a category to its coefficient in the taste score.
type Weights map[ingredient.Category]float64

// DefaultWeights favors cheese and meat fat; dough and vegetables matter least.
var DefaultWeights = Weights{
	ingredient.Dough:     0.05,
	ingredient.Sauce:     0.2,
	ingredient.Cheese:    0.3,
	ingredient.Meat:      0.3,
	ingredient.Vegetable: 0.05,
	ingredient.Fruit:     0.1,
}

// Pizza holds exactly one dough, exactly one sauce and any number of
// toppings per topping category. A Pizza is immutable; derived values are
// recomputed from the held ingredients on every call.
type Pizza struct {
	name       string
	dough      ingredient.Ingredient
	sauce      ingredient.Ingredient
	cheese     []ingredient.Ingredient
	meat       []ingredient.Ingredient
	vegetables []ingredient.Ingredient
	fruits     []ingredient.Ingredient
}

// New composes a pizza. Toppings are grouped by their category; passing a
// dough or a sauce as a topping is an error, as is mixing fat vectors of
// different lengths.
func New(dough, sauce ingredient.Ingredient, toppings ...ingredient.Ingredient) (*Pizza, error) {
	if dough.Category != ingredient.Dough {
		return nil, fmt.Errorf("%w: %s is %s, not dough", ErrInvalidPizza, dough.Name, dough.Category)
	}
	if sauce.Category != ingredient.Sauce {
		return nil, fmt.Errorf("%w: %s is %s, not sauce", ErrInvalidPizza, sauce.Name, sauce.Category)
	}

	p := &Pizza{dough: dough, sauce: sauce}
	for _, t := range toppings {
		switch t.Category {
		case ingredient.Cheese:
			p.cheese = append(p.cheese, t)
		case ingredient.Meat:
			p.meat = append(p.meat, t)
		case ingredient.Vegetable:
			p.vegetables = append(p.vegetables, t)
		case ingredient.Fruit:
			p.fruits = append(p.fruits, t)
		default:
			return nil, fmt.Errorf("%w: %s (%s) cannot be a topping", ErrInvalidPizza, t.Name, t.Category)
		}
	}

	samples := len(dough.Fat)
	for _, i := range p.Held() {
		if len(i.Fat) != samples {
			return nil, fmt.Errorf("%w: %s has %d fat samples, want %d", ErrInvalidPizza, i.Name, len(i.Fat), samples)
		}
	}
	return p, nil
}

// Named returns a copy of p carrying a display name.
func (p *Pizza) Named(name string) *Pizza {
	cp := *p
	cp.name = name
	return &cp
}

// Name returns the display name, or the ingredient names when unnamed.
func (p *Pizza) Name() string {
	if p.name != "" {
		return p.name
	}
	return strings.Join(p.Ingredients(), " + ")
}

// Dough returns the dough slot.
func (p *Pizza) Dough() ingredient.Ingredient { return p.dough }

// Sauce returns the sauce slot.
func (p *Pizza) Sauce() ingredient.Ingredient { return p.sauce }

// Cheese returns a copy of the cheese slot in the order given to New.
func (p *Pizza) Cheese() []ingredient.Ingredient { return slices.Clone(p.cheese) }

// Meat returns a copy of the meat slot.
func (p *Pizza) Meat() []ingredient.Ingredient { return slices.Clone(p.meat) }

// Vegetables returns a copy of the vegetable slot.
func (p *Pizza) Vegetables() []ingredient.Ingredient { return slices.Clone(p.vegetables) }

// Fruits returns a copy of the fruit slot.
func (p *Pizza) Fruits() []ingredient.Ingredient { return slices.Clone(p.fruits) }

// Count returns how many ingredients of cat the pizza holds.
func (p *Pizza) Count(cat ingredient.Category) int {
	switch cat {
	case ingredient.Dough, ingredient.Sauce:
		return 1
	case ingredient.Cheese:
		return len(p.cheese)
	case ingredient.Meat:
		return len(p.meat)
	case ingredient.Vegetable:
		return len(p.vegetables)
	case ingredient.Fruit:
		return len(p.fruits)
	}
	return 0
}

// Held returns every ingredient in slot order: dough, sauce, cheese, meat,
// vegetables, fruits.
func (p *Pizza) Held() []ingredient.Ingredient {
	held := make([]ingredient.Ingredient, 0, 2+len(p.cheese)+len(p.meat)+len(p.vegetables)+len(p.fruits))
	held = append(held, p.dough, p.sauce)
	held = append(held, p.cheese...)
	held = append(held, p.meat...)
	held = append(held, p.vegetables...)
	held = append(held, p.fruits...)
	return held
}

// Ingredients returns the names of the held ingredients in slot order.
func (p *Pizza) Ingredients() []string {
	held := p.Held()
	names := make([]string, len(held))
	for i, h := range held {
		names[i] = h.Name
	}
	return names
}

// Price returns the summed ingredient price.
func (p *Pizza) Price() float64 {
	return p.sum(func(i ingredient.Ingredient) float64 { return i.Price })
}

// Protein returns the summed protein.
func (p *Pizza) Protein() float64 {
	return p.sum(func(i ingredient.Ingredient) float64 { return i.Protein })
}

// Carbohydrates returns the summed carbohydrates.
func (p *Pizza) Carbohydrates() float64 {
	return p.sum(func(i ingredient.Ingredient) float64 { return i.Carbohydrates })
}

// Calories returns the summed calories.
func (p *Pizza) Calories() float64 {
	return p.sum(func(i ingredient.Ingredient) float64 { return i.Calories })
}

func (p *Pizza) sum(attr func(ingredient.Ingredient) float64) float64 {
	var total float64
	for _, i := range p.Held() {
		total += attr(i)
	}
	return total
}

// FatSeries returns the pizza's fat distribution: the elementwise sum of the
// held ingredients' fat vectors.
func (p *Pizza) FatSeries() []float64 {
	held := p.Held()
	series := make([][]float64, len(held))
	for i, h := range held {
		series[i] = h.Fat
	}
	sum, err := sample.Sum(series...)
	if err != nil {
		// New rejects misaligned vectors.
		panic(err)
	}
	return sum
}

// AverageFat returns the mean of FatSeries.
func (p *Pizza) AverageFat() float64 {
	return sample.Mean(p.FatSeries())
}

// FatQuantile returns the q-th quantile of FatSeries.
func (p *Pizza) FatQuantile(q float64) float64 {
	return sample.Percentile(p.FatSeries(), q)
}

// Taste scores the pizza with DefaultWeights.
func (p *Pizza) Taste() float64 {
	return p.TasteWith(DefaultWeights)
}

// TasteWith scores the pizza as the weighted sum of each ingredient's mean fat.
func (p *Pizza) TasteWith(w Weights) float64 {
	return p.sum(func(i ingredient.Ingredient) float64 {
		return w[i.Category] * i.MeanFat()
	})
}
