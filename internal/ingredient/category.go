package ingredient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category name cannot be parsed.
var ErrUnknownCategory = errors.New("unknown ingredient category")

// Category classifies an ingredient. Every catalog record has exactly one.
type Category int

const (
	Dough Category = iota
	Sauce
	Cheese
	Meat
	Vegetable
	Fruit
)

// Categories lists every category in canonical order.
var Categories = []Category{Dough, Sauce, Cheese, Meat, Vegetable, Fruit}

var categoryNames = map[Category]string{
	Dough:     "dough",
	Sauce:     "sauce",
	Cheese:    "cheese",
	Meat:      "meat",
	Vegetable: "vegetable",
	Fruit:     "fruit",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory parses a category name. Plural forms are accepted.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "vegetables":
		name = "vegetable"
	case "fruits":
		name = "fruit"
	}
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
