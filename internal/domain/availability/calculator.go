// Package availability provides pure feasibility and costing logic: no side
// effects, no repository access. Callers supply the batch totals; the
// calculator only compares them against scaled recipe requirements.
package availability

import (
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/recipe"
)

// IngredientAvailability is the per-ingredient outcome of a feasibility check.
type IngredientAvailability struct {
	IngredientID id.ID          `json:"ingredientId"`
	Required     types.Quantity `json:"required"`
	Available    types.Quantity `json:"available"`

	// Shortage is zero when available >= required
	Shortage types.Quantity `json:"shortage"`

	IsOptional bool `json:"isOptional"`
}

// Result is the outcome of a feasibility check for one recipe at a given
// serving count.
type Result struct {
	// Feasible is true iff every non-optional line's shortage is zero.
	// Optional shortages never flip feasibility.
	Feasible bool `json:"feasible"`

	Lines []IngredientAvailability `json:"lines"`
}

// Shortages returns the lines with a non-zero shortage.
func (r Result) Shortages() []IngredientAvailability {
	out := make([]IngredientAvailability, 0)
	for _, l := range r.Lines {
		if l.Shortage.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

// Check compares the scaled requirements of a recipe against the available
// totals per ingredient. An ingredient missing from totals (zero active
// batches) counts as available = 0, not an error.
func Check(rec *recipe.Recipe, servings int, totals map[id.ID]types.Quantity) Result {
	requirements := recipe.Scale(rec, servings)

	result := Result{
		Feasible: true,
		Lines:    make([]IngredientAvailability, 0, len(requirements)),
	}

	for _, req := range requirements {
		available := totals[req.IngredientID]

		var shortage types.Quantity
		if available < req.Quantity {
			shortage = req.Quantity - available
		}

		result.Lines = append(result.Lines, IngredientAvailability{
			IngredientID: req.IngredientID,
			Required:     req.Quantity,
			Available:    available,
			Shortage:     shortage,
			IsOptional:   req.IsOptional,
		})

		if shortage.IsPositive() && !req.IsOptional {
			result.Feasible = false
		}
	}

	return result
}

// TotalCost returns the cost of one preparation of the resolved recipe.
func TotalCost(rec *recipe.Resolved) types.Money {
	return rec.TotalCost()
}

// CostPerServing returns the preparation cost divided by serving size.
func CostPerServing(rec *recipe.Resolved) types.Money {
	return rec.CostPerServing()
}

// BatchTotals sums remaining quantity per ingredient from a batch snapshot.
// Helper for callers that already hold the FIFO batch listing.
func BatchTotals(batches []BatchQuantity) map[id.ID]types.Quantity {
	totals := make(map[id.ID]types.Quantity, len(batches))
	for _, b := range batches {
		totals[b.IngredientID] += b.Remaining
	}
	return totals
}

// BatchQuantity is the minimal batch projection the calculator needs.
type BatchQuantity struct {
	IngredientID id.ID
	Remaining    types.Quantity
}
