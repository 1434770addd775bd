package recipe

import (
	"context"
	"fmt"
	"sort"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/ingredient"
	"larder/pkg/logger"
)

// Resolved is a recipe with every line joined to its ingredient's unit and
// current cost reference.
type Resolved struct {
	*Recipe

	// Ingredients holds the joined catalog entries keyed by ingredient id
	Ingredients map[id.ID]*ingredient.Ingredient
}

// TotalCost is the cost of one preparation: sum over lines of
// quantity-per-serving x ingredient cost reference, times serving size.
func (r *Resolved) TotalCost() types.Money {
	perServing := types.ZeroMoney()
	for _, line := range r.Lines {
		ing, ok := r.Ingredients[line.IngredientID]
		if !ok {
			continue
		}
		perServing = perServing.Add(ing.CostPerUnit.Mul(line.QuantityPerServing.Decimal()))
	}
	return perServing.Mul(types.NewMoney(float64(r.ServingSize)))
}

// CostPerServing divides the preparation cost by serving size.
func (r *Resolved) CostPerServing() types.Money {
	if r.ServingSize == 0 {
		return types.ZeroMoney()
	}
	return r.TotalCost().Div(types.NewMoney(float64(r.ServingSize)))
}

// Requirement is one scaled ingredient demand of an order line.
type Requirement struct {
	IngredientID id.ID
	Quantity     types.Quantity
	IsOptional   bool
}

// Scale multiplies every line's quantity-per-serving by the requested
// serving count, preserving preparation order.
func Scale(r *Recipe, servings int) []Requirement {
	lines := make([]Line, len(r.Lines))
	copy(lines, r.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].PreparationOrder < lines[j].PreparationOrder
	})

	out := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		out = append(out, Requirement{
			IngredientID: line.IngredientID,
			Quantity:     line.QuantityPerServing.Mul(servings),
			IsOptional:   line.IsOptional,
		})
	}
	return out
}

// Service provides business logic for the Recipe catalog and BOM resolution.
type Service struct {
	repo        Repository
	ingredients ingredient.Repository
}

// NewService creates a new Recipe service.
func NewService(repo Repository, ingredients ingredient.Repository) *Service {
	return &Service{repo: repo, ingredients: ingredients}
}

// Resolve returns the active recipe for a product with resolved ingredient
// lines. A product without a recipe yields a NO_RECIPE error; callers treat
// it as "no automatic deduction applies", not as a failure.
func (s *Service) Resolve(ctx context.Context, productID id.ID) (*Resolved, error) {
	rec, err := s.repo.GetActiveByProduct(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNoRecipe(productID.String())
		}
		return nil, fmt.Errorf("get recipe for product %s: %w", productID, err)
	}

	return s.resolveLines(ctx, rec)
}

// ResolveByID resolves a recipe by its own id (for availability preview).
func (s *Service) ResolveByID(ctx context.Context, recipeID id.ID) (*Resolved, error) {
	rec, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.resolveLines(ctx, rec)
}

func (s *Service) resolveLines(ctx context.Context, rec *Recipe) (*Resolved, error) {
	ids := make([]id.ID, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		ids = append(ids, line.IngredientID)
	}

	ings, err := s.ingredients.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredients: %w", err)
	}

	for _, line := range rec.Lines {
		if _, ok := ings[line.IngredientID]; !ok {
			return nil, apperror.NewInternalInvariant("recipe line references unknown ingredient").
				WithDetail("recipe_id", rec.ID.String()).
				WithDetail("ingredient_id", line.IngredientID.String())
		}
	}

	return &Resolved{Recipe: rec, Ingredients: ings}, nil
}

// Create validates the recipe, caches its cost and inserts it.
func (s *Service) Create(ctx context.Context, rec *Recipe) error {
	if err := rec.Validate(ctx); err != nil {
		return err
	}

	if err := s.refreshCost(ctx, rec); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	logger.Info(ctx, "recipe created",
		"id", rec.ID,
		"product_id", rec.ProductID,
		"lines", len(rec.Lines),
	)
	return nil
}

// Update validates edits, refreshes the cached cost and bumps the version.
func (s *Service) Update(ctx context.Context, rec *Recipe) error {
	if err := rec.Validate(ctx); err != nil {
		return err
	}
	if err := s.refreshCost(ctx, rec); err != nil {
		return err
	}
	return s.repo.Update(ctx, rec)
}

// Deactivate retires a recipe together with its lines.
func (s *Service) Deactivate(ctx context.Context, recipeID id.ID) error {
	if err := s.repo.SetActive(ctx, recipeID, false); err != nil {
		return err
	}
	logger.Info(ctx, "recipe deactivated", "id", recipeID)
	return nil
}

// GetByID retrieves a recipe with lines.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, recipeID)
}

// List retrieves recipes with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error) {
	return s.repo.List(ctx, filter)
}

// refreshCost recomputes the cached total cost from ingredient references.
func (s *Service) refreshCost(ctx context.Context, rec *Recipe) error {
	resolved, err := s.resolveLines(ctx, rec)
	if err != nil {
		return err
	}
	rec.TotalCost = resolved.TotalCost()
	return nil
}
