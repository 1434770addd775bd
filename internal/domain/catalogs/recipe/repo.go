package recipe

import (
	"context"

	"larder/internal/core/id"
	"larder/internal/domain"
)

// Repository defines the interface for Recipe persistence.
type Repository interface {
	// Create inserts a recipe with its lines
	Create(ctx context.Context, r *Recipe) error

	// GetByID retrieves a recipe with lines
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)

	// GetActiveByProduct retrieves the active recipe for a product,
	// or a NOT_FOUND error when none exists
	GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error)

	// Update replaces the recipe and its lines (with optimistic locking,
	// version bump)
	Update(ctx context.Context, r *Recipe) error

	// SetActive flips the active flag; lines share the recipe lifecycle
	SetActive(ctx context.Context, recipeID id.ID, active bool) error

	// List retrieves recipes with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error)
}
