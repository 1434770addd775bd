// Package ingredient provides the Ingredient catalog: master data for every
// perishable item tracked by the batch ledger.
package ingredient

import (
	"context"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/types"
)

// Unit is the canonical unit of measure for an ingredient.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitLiter    Unit = "l"
	UnitMillilit Unit = "ml"
	UnitPiece    Unit = "pcs"
)

// Ingredient is a catalog entry. Batches and recipe lines reference it, so
// it is never physically deleted - only deactivated.
type Ingredient struct {
	entity.BaseEntity

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`

	Unit Unit `db:"unit" json:"unit"`

	// CostPerUnit is the reference cost used for recipe costing.
	// Actual batch costs may differ per lot.
	CostPerUnit types.Money `db:"cost_per_unit" json:"costPerUnit"`

	// MinimumStock is the reorder threshold across all batches
	MinimumStock types.Quantity `db:"minimum_stock" json:"minimumStock"`

	Active bool `db:"active" json:"active"`
}

// New creates an active ingredient.
func New(name, category string, unit Unit, costPerUnit types.Money) *Ingredient {
	return &Ingredient{
		BaseEntity:  entity.NewBaseEntity(),
		Name:        name,
		Category:    category,
		Unit:        unit,
		CostPerUnit: costPerUnit,
		Active:      true,
	}
}

// Validate implements entity.Validatable.
func (i *Ingredient) Validate(ctx context.Context) error {
	if i.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !isValidUnit(i.Unit) {
		return apperror.NewValidation("invalid unit of measure").
			WithDetail("field", "unit").
			WithDetail("value", string(i.Unit))
	}
	if i.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").
			WithDetail("field", "costPerUnit")
	}
	if i.MinimumStock.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minimumStock")
	}
	return nil
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLiter, UnitMillilit, UnitPiece:
		return true
	}
	return false
}
