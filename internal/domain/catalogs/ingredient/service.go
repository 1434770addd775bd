package ingredient

import (
	"context"
	"fmt"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/pkg/logger"
)

// Service provides business logic for the Ingredient catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Ingredient service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and inserts a new ingredient.
func (s *Service) Create(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByName(ctx, ing.Name)
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("ingredient", "name", ing.Name)
	}

	if err := s.repo.Create(ctx, ing); err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}

	logger.Info(ctx, "ingredient created", "id", ing.ID, "name", ing.Name)
	return nil
}

// GetByID retrieves an ingredient by id.
func (s *Service) GetByID(ctx context.Context, ingredientID id.ID) (*Ingredient, error) {
	return s.repo.GetByID(ctx, ingredientID)
}

// Update validates and persists catalog edits.
func (s *Service) Update(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, ing)
}

// Deactivate soft-deactivates an ingredient. Batches and recipe lines keep
// referencing it; it simply stops appearing in active listings.
func (s *Service) Deactivate(ctx context.Context, ingredientID id.ID) error {
	if err := s.repo.SetActive(ctx, ingredientID, false); err != nil {
		return err
	}
	logger.Info(ctx, "ingredient deactivated", "id", ingredientID)
	return nil
}

// Reactivate re-enables a deactivated ingredient.
func (s *Service) Reactivate(ctx context.Context, ingredientID id.ID) error {
	return s.repo.SetActive(ctx, ingredientID, true)
}

// List retrieves ingredients with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Ingredient], error) {
	return s.repo.List(ctx, filter)
}
