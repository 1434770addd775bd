package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/infrastructure/storage/postgres"
)

const (
	recipesTable     = "cat_recipes"
	recipeLinesTable = "cat_recipe_lines"
)

// RecipeRepo implements recipe.Repository. A recipe owns its lines, so
// every write touches both tables inside one transaction.
type RecipeRepo struct {
	*BaseCatalogRepo[*recipe.Recipe]
	txManager *postgres.TxManager
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			recipesTable,
			postgres.ExtractDBColumns[recipe.Recipe](),
			func() *recipe.Recipe { return &recipe.Recipe{} },
		),
		txManager: txManager,
	}
}

// Create inserts a recipe with its lines.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseCatalogRepo.Create(ctx, rec); err != nil {
			return err
		}
		return r.insertLines(ctx, rec.ID, rec.Lines)
	})
}

// GetByID retrieves a recipe with lines.
func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	rec, err := r.BaseCatalogRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, []id.ID{recipeID})
	if err != nil {
		return nil, err
	}
	rec.Lines = lines[recipeID]

	return rec, nil
}

// GetActiveByProduct retrieves the active recipe for a product.
func (r *RecipeRepo) GetActiveByProduct(ctx context.Context, productID id.ID) (*recipe.Recipe, error) {
	rec := &recipe.Recipe{}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[recipe.Recipe]()...).
		From(recipesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"active": true}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(recipesTable, productID.String())
		}
		return nil, fmt.Errorf("get by product: %w", err)
	}

	lines, err := r.loadLines(ctx, []id.ID{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Lines = lines[rec.ID]

	return rec, nil
}

// Update replaces the recipe and its lines with optimistic locking.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseCatalogRepo.Update(ctx, rec); err != nil {
			return err
		}

		// Lines have no identity of their own: replace wholesale
		del := r.Builder().
			Delete(recipeLinesTable).
			Where(squirrel.Eq{"recipe_id": rec.ID})

		sql, args, err := del.ToSql()
		if err != nil {
			return fmt.Errorf("build delete lines: %w", err)
		}

		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}

		return r.insertLines(ctx, rec.ID, rec.Lines)
	})
}

// List retrieves recipes with filtering and pagination. Lines are loaded
// for the whole page with one query.
func (r *RecipeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*recipe.Recipe], error) {
	result, err := r.BaseCatalogRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	if len(result.Items) == 0 {
		return result, nil
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, rec := range result.Items {
		ids = append(ids, rec.ID)
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, rec := range result.Items {
		rec.Lines = lines[rec.ID]
	}

	return result, nil
}

func (r *RecipeRepo) insertLines(ctx context.Context, recipeID id.ID, lines []recipe.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().Insert(recipeLinesTable).Columns(
		"recipe_id", "ingredient_id", "quantity_per_serving",
		"unit", "is_optional", "preparation_order",
	)

	for _, l := range lines {
		q = q.Values(
			recipeID, l.IngredientID, l.QuantityPerServing,
			l.Unit, l.IsOptional, l.PreparationOrder,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *RecipeRepo) loadLines(ctx context.Context, recipeIDs []id.ID) (map[id.ID][]recipe.Line, error) {
	q := r.Builder().Select(
		"recipe_id", "ingredient_id", "quantity_per_serving",
		"unit", "is_optional", "preparation_order",
	).From(recipeLinesTable).
		Where(squirrel.Eq{"recipe_id": recipeIDs}).
		OrderBy("recipe_id", "preparation_order", "ingredient_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []recipe.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}

	out := make(map[id.ID][]recipe.Line, len(recipeIDs))
	for _, l := range lines {
		out[l.RecipeID] = append(out[l.RecipeID], l)
	}

	return out, nil
}

// Ensure interface compliance.
var _ recipe.Repository = (*RecipeRepo)(nil)
