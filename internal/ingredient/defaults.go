package ingredient

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSampleCount is the number of fat scenarios in the built-in catalog.
const DefaultSampleCount = 100

const (
	defaultSeed = 20230509

	// scenarioSpread scales the shock shared by every ingredient in one
	// scenario (portioning, oven, supplier batch).
	scenarioSpread = 0.1
)

type nutrition struct {
	name          string
	category      Category
	price         float64
	protein       float64
	carbohydrates float64
	calories      float64
	fatMean       float64
	fatStdDev     float64
}

// Per-portion values used by the built-in catalog.
var defaultNutrition = []nutrition{
	{"classic_dough", Dough, 1.20, 9.0, 76.0, 380, 4.0, 0.5},
	{"thin_dough", Dough, 1.00, 7.0, 58.0, 290, 2.5, 0.4},
	{"wholemeal_dough", Dough, 1.50, 12.0, 66.0, 340, 3.0, 0.6},

	{"tomato_sauce", Sauce, 0.60, 1.5, 8.0, 40, 0.3, 0.1},
	{"cream_sauce", Sauce, 0.90, 2.0, 4.0, 150, 14.0, 2.0},
	{"pesto_sauce", Sauce, 1.30, 3.0, 2.0, 160, 16.0, 2.5},

	{"mozzarella", Cheese, 1.40, 18.0, 2.0, 230, 17.0, 2.0},
	{"cheddar", Cheese, 1.60, 20.0, 1.0, 320, 26.0, 3.0},
	{"parmesan", Cheese, 2.20, 28.0, 3.0, 330, 22.0, 2.5},
	{"gorgonzola", Cheese, 2.40, 16.0, 1.0, 290, 25.0, 3.5},

	{"ham", Meat, 1.80, 16.0, 1.5, 120, 5.0, 1.0},
	{"salami", Meat, 2.00, 13.0, 1.0, 260, 22.0, 3.0},
	{"bacon", Meat, 2.10, 14.0, 0.5, 300, 27.0, 4.0},
	{"chicken", Meat, 2.30, 25.0, 0.0, 140, 3.5, 0.8},

	{"onions", Vegetable, 0.30, 0.5, 4.5, 20, 0.1, 0.05},
	{"pepper", Vegetable, 0.50, 0.5, 3.0, 15, 0.2, 0.05},
	{"mushrooms", Vegetable, 0.70, 1.5, 1.5, 12, 0.2, 0.05},
	{"olives", Vegetable, 0.90, 0.4, 3.0, 70, 7.0, 1.0},
	{"spinach", Vegetable, 0.60, 1.5, 1.0, 12, 0.2, 0.05},

	{"apple", Fruit, 0.60, 0.2, 7.0, 28, 0.1, 0.05},
	{"pineapple", Fruit, 0.80, 0.3, 8.0, 33, 0.1, 0.05},
	{"figs", Fruit, 1.20, 0.5, 12.0, 50, 0.2, 0.05},
}

// Default returns the built-in catalog. Fat samples are drawn from a fixed
// seed, so repeated calls return identical data. Sample k of every ingredient
// shares one scenario shock; summing vectors elementwise across ingredients
// therefore yields a joint fat distribution for a pizza.
func Default() *Catalog {
	scenario := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(defaultSeed, 0)}
	shocks := make([]float64, DefaultSampleCount)
	for k := range shocks {
		shocks[k] = scenario.Rand()
	}

	items := make([]Ingredient, 0, len(defaultNutrition))
	for i, n := range defaultNutrition {
		noise := distuv.Normal{Mu: 0, Sigma: n.fatStdDev, Src: rand.NewPCG(defaultSeed, uint64(i+1))}
		fat := make([]float64, DefaultSampleCount)
		for k := range fat {
			fat[k] = math.Max(0, n.fatMean*(1+scenarioSpread*shocks[k])+noise.Rand())
		}
		items = append(items, Ingredient{
			Name:          n.name,
			Category:      n.category,
			Price:         n.price,
			Protein:       n.protein,
			Carbohydrates: n.carbohydrates,
			Calories:      n.calories,
			Fat:           fat,
		})
	}

	catalog, err := NewCatalog(items...)
	if err != nil {
		panic("ingredient: invalid built-in catalog: " + err.Error())
	}
	return catalog
}
