package pricing

// Settings holds the shop-wide parameters that turn ingredient cost into a
// menu price.
type Settings struct {
	WastePercent    float64
	OverheadFixed   float64
	OverheadPercent float64
	MarginPercent   float64
	TaxEnabled      bool
	TaxPercent      float64
	PackagingCost   float64
}

// Breakdown contains all intermediate and line-item values of the quote.
type Breakdown struct {
	IngredientCost float64 `json:"ingredient_cost"`
	Waste          float64 `json:"waste"`
	Subtotal       float64 `json:"subtotal"`
	Overhead       float64 `json:"overhead"`
	Margin         float64 `json:"margin"`
	Tax            float64 `json:"tax"`
	PackagingCost  float64 `json:"packaging_cost"`
}

// Totals contains roll-up values from the quote.
type Totals struct {
	Total float64 `json:"total"`
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Calculate computes the retail price of a pizza whose ingredients cost
// ingredientCost.
func Calculate(ingredientCost float64, s Settings) Result {
	waste := ingredientCost * (s.WastePercent / 100.0)
	subtotal := ingredientCost + waste
	overhead := s.OverheadFixed + subtotal*(s.OverheadPercent/100.0)
	margin := (s.MarginPercent / 100.0) * (subtotal + overhead)

	tax := 0.0
	if s.TaxEnabled {
		tax = (s.TaxPercent / 100.0) * (subtotal + overhead + margin)
	}

	total := subtotal + overhead + margin + tax + s.PackagingCost

	return Result{
		Breakdown: Breakdown{
			IngredientCost: ingredientCost,
			Waste:          waste,
			Subtotal:       subtotal,
			Overhead:       overhead,
			Margin:         margin,
			Tax:            tax,
			PackagingCost:  s.PackagingCost,
		},
		Totals: Totals{Total: total},
	}
}
