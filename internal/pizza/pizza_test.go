package pizza

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/maestro/internal/ingredient"
)

func rec(name string, cat ingredient.Category, price, protein float64, fat ...float64) ingredient.Ingredient {
	return ingredient.Ingredient{
		Name:          name,
		Category:      cat,
		Price:         price,
		Protein:       protein,
		Carbohydrates: price * 10,
		Calories:      price * 100,
		Fat:           fat,
	}
}

var (
	dough   = rec("dough", ingredient.Dough, 1.0, 5, 2, 4)
	sauce   = rec("sauce", ingredient.Sauce, 0.5, 1, 1, 1)
	cheese  = rec("cheese", ingredient.Cheese, 1.5, 10, 8, 12)
	ham     = rec("ham", ingredient.Meat, 2.0, 15, 3, 5)
	onion   = rec("onion", ingredient.Vegetable, 0.2, 0.5, 0, 0.2)
	apple   = rec("apple", ingredient.Fruit, 0.4, 0.1, 0.1, 0.3)
	onionII = rec("onion2", ingredient.Vegetable, 0.3, 0.5, 0.2, 0)
)

func TestNew_DoughAndSauceOnly(t *testing.T) {
	p, err := New(dough, sauce)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, p.Price(), 1e-12)
	assert.InDelta(t, 6.0, p.Protein(), 1e-12)
	assert.InDelta(t, 4.0, p.AverageFat(), 1e-12)
	assert.Empty(t, p.Cheese())
	assert.Empty(t, p.Meat())
	assert.Empty(t, p.Vegetables())
	assert.Empty(t, p.Fruits())
}

func TestNew_GroupsToppings(t *testing.T) {
	p, err := New(dough, sauce, onion, cheese, ham, apple, onionII)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Count(ingredient.Dough))
	assert.Equal(t, 1, p.Count(ingredient.Sauce))
	assert.Equal(t, 1, p.Count(ingredient.Cheese))
	assert.Equal(t, 1, p.Count(ingredient.Meat))
	assert.Equal(t, 2, p.Count(ingredient.Vegetable))
	assert.Equal(t, 1, p.Count(ingredient.Fruit))
	assert.Equal(t, []string{"dough", "sauce", "cheese", "ham", "onion", "onion2", "apple"}, p.Ingredients())
}

func TestNew_RejectsMisplacedIngredients(t *testing.T) {
	_, err := New(sauce, sauce)
	require.ErrorIs(t, err, ErrInvalidPizza)

	_, err = New(dough, cheese)
	require.ErrorIs(t, err, ErrInvalidPizza)

	_, err = New(dough, sauce, dough)
	require.ErrorIs(t, err, ErrInvalidPizza)

	short := rec("short", ingredient.Cheese, 1, 1, 1)
	_, err = New(dough, sauce, short)
	require.ErrorIs(t, err, ErrInvalidPizza)
}

func TestAverageFat_EqualsMeanOfElementwiseSum(t *testing.T) {
	p, err := New(dough, sauce, cheese, ham, onion, apple)
	require.NoError(t, err)

	want := make([]float64, 2)
	for _, i := range []ingredient.Ingredient{dough, sauce, cheese, ham, onion, apple} {
		for k, v := range i.Fat {
			want[k] += v
		}
	}
	assert.InDeltaSlice(t, want, p.FatSeries(), 1e-12)
	assert.InDelta(t, (want[0]+want[1])/2, p.AverageFat(), 1e-12)
}

func TestTaste_WeightsMeanFatByCategory(t *testing.T) {
	p, err := New(dough, sauce, cheese, ham, onion, apple)
	require.NoError(t, err)

	want := 0.05*dough.MeanFat() + 0.2*sauce.MeanFat() + 0.3*cheese.MeanFat() +
		0.1*apple.MeanFat() + 0.3*ham.MeanFat() + 0.05*onion.MeanFat()
	assert.InDelta(t, want, p.Taste(), 1e-12)

	flat := Weights{}
	for _, c := range ingredient.Categories {
		flat[c] = 1
	}
	assert.InDelta(t, p.AverageFat(), p.TasteWith(flat), 1e-12)
}

func TestFatQuantile(t *testing.T) {
	p, err := New(dough, sauce)
	require.NoError(t, err)

	// series [3, 5]
	assert.InDelta(t, 3.0, p.FatQuantile(0), 1e-12)
	assert.InDelta(t, 4.0, p.FatQuantile(0.5), 1e-12)
	assert.InDelta(t, 4.8, p.FatQuantile(0.9), 1e-12)
}

func TestNamed_ReturnsCopy(t *testing.T) {
	p, err := New(dough, sauce)
	require.NoError(t, err)

	named := p.Named("margherita")
	assert.Equal(t, "margherita", named.Name())
	assert.Equal(t, "dough + sauce", p.Name())
	assert.NotSame(t, p, named)
}

func TestAccessorsDoNotExposeSlots(t *testing.T) {
	p, err := New(dough, sauce, cheese)
	require.NoError(t, err)

	got := p.Cheese()
	got[0] = ham
	assert.Equal(t, "cheese", p.Cheese()[0].Name)
}
