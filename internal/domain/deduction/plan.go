// Package deduction provides the stock deduction orchestrator: it resolves
// each order line's bill of materials, consumes ingredient batches FIFO and
// records movements, with per-line atomicity and compensating reversal.
package deduction

import (
	"sort"

	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// Allocation is one planned consumption against a single batch.
type Allocation struct {
	BatchID      id.ID          `json:"batchId"`
	IngredientID id.ID          `json:"ingredientId"`
	Quantity     types.Quantity `json:"quantity"`
	UnitCost     types.Money    `json:"unitCost"`
}

// Plan is the output of FIFO batch selection for one ingredient requirement.
type Plan struct {
	Allocations []Allocation `json:"allocations"`

	// Shortage is the unmet remainder; zero when the plan fully covers
	// the requirement
	Shortage types.Quantity `json:"shortage"`
}

// Covered reports whether the plan satisfies the full requirement.
func (p Plan) Covered() bool {
	return p.Shortage.IsZero()
}

// Total returns the planned consumption quantity.
func (p Plan) Total() types.Quantity {
	var total types.Quantity
	for _, a := range p.Allocations {
		total += a.Quantity
	}
	return total
}

// SelectBatchesForConsumption builds a consumption plan for the required
// quantity by walking batches in FIFO order: expiration date ascending, then
// received date ascending. The requirement is split across batches as
// needed. Pure function, separated from the side-effecting commit step so
// the plan-then-commit discipline is testable in isolation.
//
// Batches that are not consumable (wrong status or empty) are skipped, and
// the input order is not trusted: the slice is re-sorted defensively so the
// result is deterministic regardless of caller ordering.
func SelectBatchesForConsumption(batches []entity.Batch, required types.Quantity) Plan {
	sorted := make([]entity.Batch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExpirationDate.Equal(sorted[j].ExpirationDate) {
			return sorted[i].ExpirationDate.Before(sorted[j].ExpirationDate)
		}
		return sorted[i].ReceivedDate.Before(sorted[j].ReceivedDate)
	})

	plan := Plan{Allocations: make([]Allocation, 0, 2)}
	left := required

	for _, b := range sorted {
		if left.IsZero() {
			break
		}
		if !b.IsConsumable() {
			continue
		}

		take := b.QuantityRemaining.Min(left)
		plan.Allocations = append(plan.Allocations, Allocation{
			BatchID:      b.ID,
			IngredientID: b.IngredientID,
			Quantity:     take,
			UnitCost:     b.UnitCost,
		})
		left -= take
	}

	plan.Shortage = left
	return plan
}
