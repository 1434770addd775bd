package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/ingredient"
)

type stubRepo struct {
	byProduct map[id.ID]*Recipe
	created   *Recipe
}

func (s *stubRepo) Create(_ context.Context, r *Recipe) error {
	s.created = r
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, recipeID id.ID) (*Recipe, error) {
	for _, r := range s.byProduct {
		if r.ID == recipeID {
			return r, nil
		}
	}
	return nil, apperror.NewNotFound("recipe", recipeID)
}

func (s *stubRepo) GetActiveByProduct(_ context.Context, productID id.ID) (*Recipe, error) {
	r, ok := s.byProduct[productID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", productID)
	}
	return r, nil
}

func (s *stubRepo) Update(context.Context, *Recipe) error    { return nil }
func (s *stubRepo) SetActive(context.Context, id.ID, bool) error { return nil }

func (s *stubRepo) List(context.Context, domain.ListFilter) (domain.ListResult[*Recipe], error) {
	return domain.ListResult[*Recipe]{}, nil
}

type stubIngredients struct {
	items map[id.ID]*ingredient.Ingredient
}

func (s *stubIngredients) Create(context.Context, *ingredient.Ingredient) error { return nil }
func (s *stubIngredients) Update(context.Context, *ingredient.Ingredient) error { return nil }
func (s *stubIngredients) SetActive(context.Context, id.ID, bool) error         { return nil }
func (s *stubIngredients) ExistsByName(context.Context, string) (bool, error)   { return false, nil }

func (s *stubIngredients) GetByID(_ context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	ing, ok := s.items[ingredientID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingredientID)
	}
	return ing, nil
}

func (s *stubIngredients) List(context.Context, domain.ListFilter) (domain.ListResult[*ingredient.Ingredient], error) {
	return domain.ListResult[*ingredient.Ingredient]{}, nil
}

func (s *stubIngredients) GetByIDs(_ context.Context, ids []id.ID) (map[id.ID]*ingredient.Ingredient, error) {
	out := make(map[id.ID]*ingredient.Ingredient, len(ids))
	for _, ingID := range ids {
		if ing, ok := s.items[ingID]; ok {
			out[ingID] = ing
		}
	}
	return out, nil
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func TestScale_MultipliesPerServingQuantities(t *testing.T) {
	flour := id.New()
	sauce := id.New()

	rec := New(id.New(), "Pizza", 1)
	rec.Lines = []Line{
		{IngredientID: sauce, QuantityPerServing: qty(0.1), PreparationOrder: 2},
		{IngredientID: flour, QuantityPerServing: qty(0.25), PreparationOrder: 1},
	}

	reqs := Scale(rec, 4)

	require.Len(t, reqs, 2)
	// Preparation order is preserved regardless of line order.
	assert.Equal(t, flour, reqs[0].IngredientID)
	assert.Equal(t, qty(1), reqs[0].Quantity)
	assert.Equal(t, sauce, reqs[1].IngredientID)
	assert.Equal(t, qty(0.4), reqs[1].Quantity)
}

func TestScale_CarriesOptionalFlag(t *testing.T) {
	basil := id.New()
	rec := New(id.New(), "Pizza", 1)
	rec.Lines = []Line{
		{IngredientID: basil, QuantityPerServing: qty(0.005), IsOptional: true},
	}

	reqs := Scale(rec, 2)

	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IsOptional)
	assert.Equal(t, qty(0.01), reqs[0].Quantity)
}

func TestValidate(t *testing.T) {
	flour := id.New()

	valid := New(id.New(), "Pizza", 2)
	valid.Lines = []Line{{IngredientID: flour, QuantityPerServing: qty(0.25)}}
	require.NoError(t, valid.Validate(context.Background()))

	noLines := New(id.New(), "Pizza", 1)
	assert.Error(t, noLines.Validate(context.Background()))

	zeroQty := New(id.New(), "Pizza", 1)
	zeroQty.Lines = []Line{{IngredientID: flour, QuantityPerServing: 0}}
	assert.Error(t, zeroQty.Validate(context.Background()))

	dup := New(id.New(), "Pizza", 1)
	dup.Lines = []Line{
		{IngredientID: flour, QuantityPerServing: qty(1)},
		{IngredientID: flour, QuantityPerServing: qty(2)},
	}
	assert.Error(t, dup.Validate(context.Background()))

	badServing := New(id.New(), "Pizza", 0)
	badServing.Lines = []Line{{IngredientID: flour, QuantityPerServing: qty(1)}}
	assert.Error(t, badServing.Validate(context.Background()))
}

var (
	_ Repository            = (*stubRepo)(nil)
	_ ingredient.Repository = (*stubIngredients)(nil)
)

func newStubService() (*Service, *stubRepo, *stubIngredients) {
	repo := &stubRepo{byProduct: make(map[id.ID]*Recipe)}
	ings := &stubIngredients{items: make(map[id.ID]*ingredient.Ingredient)}
	return NewService(repo, ings), repo, ings
}

func TestResolve_NoRecipeCode(t *testing.T) {
	svc, _, _ := newStubService()

	_, err := svc.Resolve(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNoRecipe))
}

func TestResolve_JoinsIngredients(t *testing.T) {
	svc, repo, ings := newStubService()

	flour := ingredient.New("Flour", "dry", ingredient.UnitKilogram, types.MustMoney("2.00"))
	ings.items[flour.ID] = flour

	product := id.New()
	rec := New(product, "Pizza", 1)
	rec.Lines = []Line{{IngredientID: flour.ID, QuantityPerServing: qty(0.5)}}
	repo.byProduct[product] = rec

	resolved, err := svc.Resolve(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, resolved.ID)
	assert.Same(t, flour, resolved.Ingredients[flour.ID])
	assert.True(t, resolved.TotalCost().Equal(types.MustMoney("1.00")))
}

func TestResolve_DanglingLineIsInvariantViolation(t *testing.T) {
	svc, repo, _ := newStubService()

	product := id.New()
	rec := New(product, "Pizza", 1)
	rec.Lines = []Line{{IngredientID: id.New(), QuantityPerServing: qty(0.5)}}
	repo.byProduct[product] = rec

	_, err := svc.Resolve(context.Background(), product)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInternalInvariant))
}

func TestCreate_CachesTotalCost(t *testing.T) {
	svc, repo, ings := newStubService()

	flour := ingredient.New("Flour", "dry", ingredient.UnitKilogram, types.MustMoney("2.00"))
	sauce := ingredient.New("Sauce", "wet", ingredient.UnitLiter, types.MustMoney("4.00"))
	ings.items[flour.ID] = flour
	ings.items[sauce.ID] = sauce

	rec := New(id.New(), "Pizza", 2)
	rec.Lines = []Line{
		{IngredientID: flour.ID, QuantityPerServing: qty(0.5)},
		{IngredientID: sauce.ID, QuantityPerServing: qty(0.25)},
	}

	require.NoError(t, svc.Create(context.Background(), rec))
	require.NotNil(t, repo.created)
	// 0.5*2.00 + 0.25*4.00 per serving, two servings per preparation.
	assert.True(t, repo.created.TotalCost.Equal(types.MustMoney("4.00")))
}

func TestRequiredLines(t *testing.T) {
	flour := id.New()
	basil := id.New()
	rec := New(id.New(), "Pizza", 1)
	rec.Lines = []Line{
		{IngredientID: flour, QuantityPerServing: qty(1)},
		{IngredientID: basil, QuantityPerServing: qty(0.01), IsOptional: true},
	}

	required := rec.RequiredLines()
	require.Len(t, required, 1)
	assert.Equal(t, flour, required[0].IngredientID)
}
