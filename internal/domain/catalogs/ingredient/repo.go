package ingredient

import (
	"context"

	"larder/internal/core/id"
	"larder/internal/domain"
)

// Repository defines the interface for Ingredient persistence.
type Repository interface {
	// Create inserts a new ingredient
	Create(ctx context.Context, ing *Ingredient) error

	// GetByID retrieves an ingredient by id
	GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error)

	// GetByIDs retrieves multiple ingredients at once (for recipe resolution)
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Ingredient, error)

	// Update modifies an existing ingredient (with optimistic locking)
	Update(ctx context.Context, ing *Ingredient) error

	// SetActive flips the active flag (soft deactivation)
	SetActive(ctx context.Context, ingredientID id.ID, active bool) error

	// List retrieves ingredients with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Ingredient], error)

	// ExistsByName checks name uniqueness within the catalog
	ExistsByName(ctx context.Context, name string) (bool, error)
}
