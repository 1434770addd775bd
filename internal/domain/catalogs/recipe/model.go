// Package recipe provides the Recipe catalog and bill-of-materials resolver:
// the mapping from a sellable product to weighted ingredient requirements
// per serving.
package recipe

import (
	"context"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// Recipe maps a sellable product to its ingredient lines. A recipe
// exclusively owns its lines: deactivating the recipe deactivates them.
type Recipe struct {
	entity.BaseEntity

	// ProductID is the sellable item this recipe produces
	ProductID id.ID `db:"product_id" json:"productId"`

	Name string `db:"name" json:"name"`

	// ServingSize is the number of servings one preparation yields
	ServingSize int `db:"serving_size" json:"servingSize"`

	Active bool `db:"active" json:"active"`

	// TotalCost is the cached cost of one preparation, derived from
	// ingredient cost references. Recomputed on save.
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	// Lines are loaded with the recipe; not a column
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ingredient requirement of a recipe.
type Line struct {
	RecipeID     id.ID `db:"recipe_id" json:"recipeId"`
	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	// QuantityPerServing is the amount of the ingredient one serving needs.
	// Invariant: > 0.
	QuantityPerServing types.Quantity `db:"quantity_per_serving" json:"quantityPerServing"`

	Unit string `db:"unit" json:"unit"`

	// IsOptional lines never block feasibility and are silently skipped
	// when stock runs short
	IsOptional bool `db:"is_optional" json:"isOptional"`

	PreparationOrder int `db:"preparation_order" json:"preparationOrder"`
}

// New creates an active recipe for a product.
func New(productID id.ID, name string, servingSize int) *Recipe {
	return &Recipe{
		BaseEntity:  entity.NewBaseEntity(),
		ProductID:   productID,
		Name:        name,
		ServingSize: servingSize,
		Active:      true,
		TotalCost:   types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product_id is required").
			WithDetail("field", "productId")
	}
	if r.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if r.ServingSize <= 0 {
		return apperror.NewValidation("serving size must be positive").
			WithDetail("field", "servingSize")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("recipe must have at least one ingredient line").
			WithDetail("field", "lines")
	}
	seen := make(map[id.ID]bool, len(r.Lines))
	for i, line := range r.Lines {
		if id.IsNil(line.IngredientID) {
			return apperror.NewValidation("ingredient_id is required").
				WithDetail("line", i)
		}
		if !line.QuantityPerServing.IsPositive() {
			return apperror.NewValidation("quantity per serving must be positive").
				WithDetail("line", i).
				WithDetail("ingredient_id", line.IngredientID.String())
		}
		if seen[line.IngredientID] {
			return apperror.NewValidation("duplicate ingredient line").
				WithDetail("ingredient_id", line.IngredientID.String())
		}
		seen[line.IngredientID] = true
	}
	return nil
}

// RequiredLines returns the non-optional lines.
func (r *Recipe) RequiredLines() []Line {
	out := make([]Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		if !l.IsOptional {
			out = append(out, l)
		}
	}
	return out
}
