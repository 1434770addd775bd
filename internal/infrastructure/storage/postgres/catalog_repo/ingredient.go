package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"larder/internal/core/id"
	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/infrastructure/storage/postgres"
)

const ingredientsTable = "cat_ingredients"

// IngredientRepo implements ingredient.Repository.
type IngredientRepo struct {
	*BaseCatalogRepo[*ingredient.Ingredient]
	txManager *postgres.TxManager
}

// NewIngredientRepo creates a new ingredient repository.
func NewIngredientRepo(txManager *postgres.TxManager) *IngredientRepo {
	return &IngredientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			ingredientsTable,
			postgres.ExtractDBColumns[ingredient.Ingredient](),
			func() *ingredient.Ingredient { return &ingredient.Ingredient{} },
		),
		txManager: txManager,
	}
}

// GetByIDs retrieves multiple ingredients at once (for recipe resolution).
func (r *IngredientRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*ingredient.Ingredient, error) {
	out := make(map[id.ID]*ingredient.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[ingredient.Ingredient]()...).
		From(ingredientsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*ingredient.Ingredient
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}

	for _, item := range items {
		out[item.ID] = item
	}

	return out, nil
}

// ExistsByName checks name uniqueness within the catalog.
func (r *IngredientRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(ingredientsTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by name: %w", err)
	}

	return true, nil
}

// Ensure interface compliance.
var _ ingredient.Repository = (*IngredientRepo)(nil)
