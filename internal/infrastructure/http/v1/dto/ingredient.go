package dto

import (
	"time"

	"larder/internal/core/types"
	"larder/internal/domain/catalogs/ingredient"
)

// --- Request DTOs ---

// CreateIngredientRequest is the request body for creating an ingredient.
type CreateIngredientRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         ingredient.Unit `json:"unit" binding:"required"`
	CostPerUnit  types.Money     `json:"costPerUnit"`
	MinimumStock types.Quantity  `json:"minimumStock"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateIngredientRequest) ToEntity() *ingredient.Ingredient {
	ing := ingredient.New(r.Name, r.Category, r.Unit, r.CostPerUnit)
	ing.MinimumStock = r.MinimumStock
	return ing
}

// UpdateIngredientRequest is the request body for updating an ingredient.
type UpdateIngredientRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         ingredient.Unit `json:"unit" binding:"required"`
	CostPerUnit  types.Money     `json:"costPerUnit"`
	MinimumStock types.Quantity  `json:"minimumStock"`
	Active       bool            `json:"active"`
	Version      int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateIngredientRequest) ApplyTo(ing *ingredient.Ingredient) {
	ing.Name = r.Name
	ing.Category = r.Category
	ing.Unit = r.Unit
	ing.CostPerUnit = r.CostPerUnit
	ing.MinimumStock = r.MinimumStock
	ing.Active = r.Active
	ing.Version = r.Version
}

// --- Response DTOs ---

// IngredientResponse is the response body for an ingredient.
type IngredientResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Unit         ingredient.Unit `json:"unit"`
	CostPerUnit  types.Money     `json:"costPerUnit"`
	MinimumStock types.Quantity  `json:"minimumStock"`
	Active       bool            `json:"active"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// FromIngredient creates response DTO from domain entity.
func FromIngredient(ing *ingredient.Ingredient) *IngredientResponse {
	return &IngredientResponse{
		ID:           ing.ID.String(),
		Name:         ing.Name,
		Category:     ing.Category,
		Unit:         ing.Unit,
		CostPerUnit:  ing.CostPerUnit,
		MinimumStock: ing.MinimumStock,
		Active:       ing.Active,
		Version:      ing.Version,
		CreatedAt:    ing.CreatedAt,
		UpdatedAt:    ing.UpdatedAt,
	}
}
