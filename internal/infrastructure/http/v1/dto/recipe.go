package dto

import (
	"time"

	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/recipe"
)

// --- Request DTOs ---

// RecipeLineRequest is one ingredient line of a recipe payload.
type RecipeLineRequest struct {
	IngredientID       string         `json:"ingredientId" binding:"required"`
	QuantityPerServing types.Quantity `json:"quantityPerServing" binding:"required"`
	Unit               string         `json:"unit"`
	IsOptional         bool           `json:"isOptional"`
	PreparationOrder   int            `json:"preparationOrder"`
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	ProductID   string              `json:"productId" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	ServingSize int                 `json:"servingSize" binding:"required"`
	Lines       []RecipeLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts DTO to domain entity.
// Malformed ids surface later through entity validation as nil ids.
func (r *CreateRecipeRequest) ToEntity() *recipe.Recipe {
	productID, _ := id.Parse(r.ProductID)
	rec := recipe.New(productID, r.Name, r.ServingSize)
	rec.Lines = linesToEntity(rec.ID, r.Lines)
	return rec
}

// UpdateRecipeRequest is the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Name        string              `json:"name" binding:"required"`
	ServingSize int                 `json:"servingSize" binding:"required"`
	Active      bool                `json:"active"`
	Lines       []RecipeLineRequest `json:"lines" binding:"required"`
	Version     int                 `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateRecipeRequest) ApplyTo(rec *recipe.Recipe) {
	rec.Name = r.Name
	rec.ServingSize = r.ServingSize
	rec.Active = r.Active
	rec.Lines = linesToEntity(rec.ID, r.Lines)
	rec.Version = r.Version
}

func linesToEntity(recipeID id.ID, lines []RecipeLineRequest) []recipe.Line {
	out := make([]recipe.Line, 0, len(lines))
	for _, l := range lines {
		ingredientID, _ := id.Parse(l.IngredientID)
		out = append(out, recipe.Line{
			RecipeID:           recipeID,
			IngredientID:       ingredientID,
			QuantityPerServing: l.QuantityPerServing,
			Unit:               l.Unit,
			IsOptional:         l.IsOptional,
			PreparationOrder:   l.PreparationOrder,
		})
	}
	return out
}

// --- Response DTOs ---

// RecipeLineResponse is one ingredient line of a recipe response.
type RecipeLineResponse struct {
	IngredientID       string         `json:"ingredientId"`
	QuantityPerServing types.Quantity `json:"quantityPerServing"`
	Unit               string         `json:"unit,omitempty"`
	IsOptional         bool           `json:"isOptional"`
	PreparationOrder   int            `json:"preparationOrder"`
}

// RecipeResponse is the response body for a recipe.
type RecipeResponse struct {
	ID          string               `json:"id"`
	ProductID   string               `json:"productId"`
	Name        string               `json:"name"`
	ServingSize int                  `json:"servingSize"`
	Active      bool                 `json:"active"`
	TotalCost   types.Money          `json:"totalCost"`
	Lines       []RecipeLineResponse `json:"lines"`
	Version     int                  `json:"version"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// FromRecipe creates response DTO from domain entity.
func FromRecipe(rec *recipe.Recipe) *RecipeResponse {
	lines := make([]RecipeLineResponse, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		lines = append(lines, RecipeLineResponse{
			IngredientID:       l.IngredientID.String(),
			QuantityPerServing: l.QuantityPerServing,
			Unit:               l.Unit,
			IsOptional:         l.IsOptional,
			PreparationOrder:   l.PreparationOrder,
		})
	}
	return &RecipeResponse{
		ID:          rec.ID.String(),
		ProductID:   rec.ProductID.String(),
		Name:        rec.Name,
		ServingSize: rec.ServingSize,
		Active:      rec.Active,
		TotalCost:   rec.TotalCost,
		Lines:       lines,
		Version:     rec.Version,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
