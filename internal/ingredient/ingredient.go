// Package ingredient defines the ingredient catalog a pizza is composed from.
package ingredient

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Simplici0/maestro/internal/sample"
)

// ErrInvalidIngredient is returned when a catalog record fails validation.
var ErrInvalidIngredient = errors.New("invalid ingredient")

// Ingredient is an immutable catalog record. Fat is a sample vector that
// models measurement variability rather than a single true value.
type Ingredient struct {
	Name          string    `json:"name"`
	Category      Category  `json:"category"`
	Price         float64   `json:"price"`
	Protein       float64   `json:"protein"`
	Carbohydrates float64   `json:"carbohydrates"`
	Calories      float64   `json:"calories"`
	Fat           []float64 `json:"fat"`
}

// MeanFat returns the expected fat content of the ingredient.
func (i Ingredient) MeanFat() float64 {
	return sample.Mean(i.Fat)
}

func (i Ingredient) validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIngredient)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("%w: %s: %v", ErrInvalidIngredient, i.Name, ErrUnknownCategory)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"price", i.Price},
		{"protein", i.Protein},
		{"carbohydrates", i.Carbohydrates},
		{"calories", i.Calories},
	} {
		if !nonNegative(f.value) {
			return fmt.Errorf("%w: %s: %s must be a non-negative number, got %v", ErrInvalidIngredient, i.Name, f.name, f.value)
		}
	}
	if len(i.Fat) == 0 {
		return fmt.Errorf("%w: %s: no fat samples", ErrInvalidIngredient, i.Name)
	}
	for k, v := range i.Fat {
		if !nonNegative(v) {
			return fmt.Errorf("%w: %s: fat sample %d must be a non-negative number, got %v", ErrInvalidIngredient, i.Name, k, v)
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Catalog is the fixed set of ingredients available to the optimizer.
// It is grouped by category once, at construction.
type Catalog struct {
	items      []Ingredient
	byCategory map[Category][]Ingredient
	byName     map[string]int
	samples    int
}

// NewCatalog validates items and builds a catalog. All fat vectors must have
// the same length so that sample k is one scenario across every ingredient.
func NewCatalog(items ...Ingredient) (*Catalog, error) {
	c := &Catalog{
		items:      make([]Ingredient, 0, len(items)),
		byCategory: make(map[Category][]Ingredient, len(Categories)),
		byName:     make(map[string]int, len(items)),
	}
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[item.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidIngredient, item.Name)
		}
		if c.samples == 0 {
			c.samples = len(item.Fat)
		} else if len(item.Fat) != c.samples {
			return nil, fmt.Errorf("%w: %s has %d fat samples, catalog uses %d", ErrInvalidIngredient, item.Name, len(item.Fat), c.samples)
		}

		item = item.clone()
		c.byName[item.Name] = len(c.items)
		c.items = append(c.items, item)
		c.byCategory[item.Category] = append(c.byCategory[item.Category], item)
	}
	return c, nil
}

// All returns every ingredient in catalog order. The records are copies;
// changing them leaves the catalog untouched.
func (c *Catalog) All() []Ingredient {
	return cloneAll(c.items)
}

// Category returns the ingredients of one category in catalog order.
func (c *Catalog) Category(cat Category) []Ingredient {
	return cloneAll(c.byCategory[cat])
}

func cloneAll(items []Ingredient) []Ingredient {
	out := make([]Ingredient, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

func (i Ingredient) clone() Ingredient {
	i.Fat = slices.Clone(i.Fat)
	return i
}

// Lookup finds an ingredient by name.
func (c *Catalog) Lookup(name string) (Ingredient, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Ingredient{}, false
	}
	return c.items[idx].clone(), true
}

// Len returns the number of ingredients.
func (c *Catalog) Len() int {
	return len(c.items)
}

// SampleCount returns the length shared by every fat vector.
func (c *Catalog) SampleCount() int {
	return c.samples
}
