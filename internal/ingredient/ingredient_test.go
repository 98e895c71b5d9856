package ingredient

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, cat Category, price float64, fat ...float64) Ingredient {
	return Ingredient{Name: name, Category: cat, Price: price, Fat: fat}
}

func TestNewCatalog_GroupsByCategory(t *testing.T) {
	c, err := NewCatalog(
		record("d1", Dough, 1, 2, 4),
		record("s1", Sauce, 0.5, 1, 1),
		record("d2", Dough, 2, 1, 1),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.SampleCount())
	doughs := c.Category(Dough)
	require.Len(t, doughs, 2)
	assert.Equal(t, "d1", doughs[0].Name)
	assert.Equal(t, "d2", doughs[1].Name)
	assert.Empty(t, c.Category(Fruit))

	got, ok := c.Lookup("s1")
	require.True(t, ok)
	assert.Equal(t, Sauce, got.Category)
	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestNewCatalog_CopiesFatSamples(t *testing.T) {
	fat := []float64{1, 2}
	c, err := NewCatalog(record("d", Dough, 1, fat...))
	require.NoError(t, err)

	fat[0] = 100
	got, _ := c.Lookup("d")
	assert.Equal(t, []float64{1, 2}, got.Fat)
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c, err := NewCatalog(record("d", Dough, 1, 1, 2), record("s", Sauce, 1, 3, 4))
	require.NoError(t, err)

	c.All()[0].Fat[0] = 100
	c.Category(Sauce)[0].Fat[0] = 100
	got, _ := c.Lookup("d")
	got.Fat[1] = 100

	d, _ := c.Lookup("d")
	s, _ := c.Lookup("s")
	assert.Equal(t, []float64{1, 2}, d.Fat)
	assert.Equal(t, []float64{3, 4}, s.Fat)
	assert.Equal(t, []float64{1, 2}, c.All()[0].Fat)
	assert.Equal(t, []float64{3, 4}, c.Category(Sauce)[0].Fat)
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []Ingredient
	}{
		{"empty name", []Ingredient{record("", Dough, 1, 1)}},
		{"duplicate", []Ingredient{record("a", Dough, 1, 1), record("a", Sauce, 1, 1)}},
		{"negative price", []Ingredient{record("a", Dough, -1, 1)}},
		{"nan price", []Ingredient{record("a", Dough, math.NaN(), 1)}},
		{"unknown category", []Ingredient{record("a", Category(42), 1, 1)}},
		{"no fat samples", []Ingredient{record("a", Dough, 1)}},
		{"negative fat", []Ingredient{record("a", Dough, 1, -1)}},
		{"misaligned samples", []Ingredient{record("a", Dough, 1, 1, 2), record("b", Sauce, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.items...)
			require.ErrorIs(t, err, ErrInvalidIngredient)
		})
	}
}

func TestMeanFat(t *testing.T) {
	assert.InDelta(t, 3.0, record("d", Dough, 1, 2, 4).MeanFat(), 1e-12)
}

func TestDefault_IsDeterministicAndComplete(t *testing.T) {
	a := Default()
	b := Default()

	require.Equal(t, a.All(), b.All())
	assert.Equal(t, DefaultSampleCount, a.SampleCount())
	for _, cat := range Categories {
		assert.NotEmpty(t, a.Category(cat), "category %s", cat)
	}
	for _, item := range a.All() {
		for _, v := range item.Fat {
			assert.GreaterOrEqual(t, v, 0.0, item.Name)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"dough":      Dough,
		" Sauce ":    Sauce,
		"vegetables": Vegetable,
		"fruits":     Fruit,
		"MEAT":       Meat,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("anchovy")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategory_JSONRoundTripsByName(t *testing.T) {
	raw, err := json.Marshal(record("c", Cheese, 1, 1))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"category":"cheese"`)

	var back Ingredient
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, Cheese, back.Category)
}
