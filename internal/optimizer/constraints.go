package optimizer

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/maestro/internal/ingredient"
)

// ErrInvalidConstraints is returned for constraints no pizza could ever be
// built from, such as negative counts or NaN bounds.
var ErrInvalidConstraints = errors.New("invalid constraints")

// Bounds is an inclusive [Min, Max] range.
type Bounds struct {
	Min float64
	Max float64
}

// Unbounded is the default range [0, +Inf).
func Unbounded() Bounds {
	return Bounds{Min: 0, Max: math.Inf(1)}
}

// Empty reports whether no value satisfies the range.
func (b Bounds) Empty() bool {
	return b.Min > b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g, %g]", b.Min, b.Max)
}

// Constraints bounds the aggregate nutrition of a pizza and fixes how many
// ingredients of each category it holds.
type Constraints struct {
	Price         Bounds
	Protein       Bounds
	Fat           Bounds
	Carbohydrates Bounds
	Calories      Bounds
	Counts        map[ingredient.Category]int
}

// DefaultConstraints leaves every bound open and asks for one dough, one
// sauce and no toppings.
func DefaultConstraints() Constraints {
	return Constraints{
		Price:         Unbounded(),
		Protein:       Unbounded(),
		Fat:           Unbounded(),
		Carbohydrates: Unbounded(),
		Calories:      Unbounded(),
		Counts: map[ingredient.Category]int{
			ingredient.Dough:     1,
			ingredient.Sauce:     1,
			ingredient.Cheese:    0,
			ingredient.Meat:      0,
			ingredient.Vegetable: 0,
			ingredient.Fruit:     0,
		},
	}
}

// Count returns the required number of ingredients of cat.
func (c Constraints) Count(cat ingredient.Category) int {
	return c.Counts[cat]
}

func (c Constraints) bounds() []namedBounds {
	return []namedBounds{
		{"price", c.Price},
		{"protein", c.Protein},
		{"fat", c.Fat},
		{"carbohydrates", c.Carbohydrates},
		{"calories", c.Calories},
	}
}

type namedBounds struct {
	name string
	Bounds
}

// validate rejects constraints that are malformed rather than merely
// unsatisfiable.
func (c Constraints) validate() error {
	for _, b := range c.bounds() {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) {
			return fmt.Errorf("%w: %s bound is NaN", ErrInvalidConstraints, b.name)
		}
		if b.Min < 0 || b.Max < 0 {
			return fmt.Errorf("%w: %s bound %v is negative", ErrInvalidConstraints, b.name, b.Bounds)
		}
	}
	for cat, n := range c.Counts {
		if !cat.Valid() {
			return fmt.Errorf("%w: %v", ErrInvalidConstraints, ingredient.ErrUnknownCategory)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s count must not be negative, got %d", ErrInvalidConstraints, cat, n)
		}
	}
	for _, cat := range []ingredient.Category{ingredient.Dough, ingredient.Sauce} {
		if n := c.Count(cat); n != 1 {
			return fmt.Errorf("%w: a pizza holds exactly one %s, got %d", ErrInvalidConstraints, cat, n)
		}
	}
	return nil
}

// BoundsDoc is the document form of Bounds. Missing fields keep the default.
type BoundsDoc struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// ConstraintsDoc is the JSON/YAML form of Constraints.
//
//	protein: {min: 20, max: 60}
//	calories: {max: 1200}
//	counts: {cheese: 1, vegetable: 2}
type ConstraintsDoc struct {
	Price         *BoundsDoc                  `json:"price,omitempty" yaml:"price,omitempty"`
	Protein       *BoundsDoc                  `json:"protein,omitempty" yaml:"protein,omitempty"`
	Fat           *BoundsDoc                  `json:"fat,omitempty" yaml:"fat,omitempty"`
	Carbohydrates *BoundsDoc                  `json:"carbohydrates,omitempty" yaml:"carbohydrates,omitempty"`
	Calories      *BoundsDoc                  `json:"calories,omitempty" yaml:"calories,omitempty"`
	Counts        map[ingredient.Category]int `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// Constraints applies the document on top of DefaultConstraints.
func (d ConstraintsDoc) Constraints() Constraints {
	c := DefaultConstraints()
	apply := func(dst *Bounds, src *BoundsDoc) {
		if src == nil {
			return
		}
		if src.Min != nil {
			dst.Min = *src.Min
		}
		if src.Max != nil {
			dst.Max = *src.Max
		}
	}
	apply(&c.Price, d.Price)
	apply(&c.Protein, d.Protein)
	apply(&c.Fat, d.Fat)
	apply(&c.Carbohydrates, d.Carbohydrates)
	apply(&c.Calories, d.Calories)
	for cat, n := range d.Counts {
		c.Counts[cat] = n
	}
	return c
}

// ParseConstraintsYAML decodes a YAML constraints document.
func ParseConstraintsYAML(data []byte) (Constraints, error) {
	var doc ConstraintsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Constraints{}, fmt.Errorf("%w: decode yaml: %v", ErrInvalidConstraints, err)
	}
	return doc.Constraints(), nil
}
