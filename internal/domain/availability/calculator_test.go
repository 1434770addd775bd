package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/domain/catalogs/recipe"
)

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func testRecipe(lines ...recipe.Line) *recipe.Recipe {
	rec := recipe.New(id.New(), "test", 1)
	rec.Lines = lines
	return rec
}

func TestCheck_Feasible(t *testing.T) {
	flour := id.New()
	rec := testRecipe(recipe.Line{IngredientID: flour, QuantityPerServing: qty(0.5)})

	result := Check(rec, 4, map[id.ID]types.Quantity{flour: qty(2)})

	assert.True(t, result.Feasible)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, qty(2), result.Lines[0].Required)
	assert.Equal(t, qty(2), result.Lines[0].Available)
	assert.True(t, result.Lines[0].Shortage.IsZero())
	assert.Empty(t, result.Shortages())
}

func TestCheck_RequiredShortageFlipsFeasibility(t *testing.T) {
	flour := id.New()
	rec := testRecipe(recipe.Line{IngredientID: flour, QuantityPerServing: qty(1)})

	result := Check(rec, 3, map[id.ID]types.Quantity{flour: qty(2)})

	assert.False(t, result.Feasible)
	shortages := result.Shortages()
	require.Len(t, shortages, 1)
	assert.Equal(t, qty(1), shortages[0].Shortage)
}

func TestCheck_OptionalShortageDoesNotFlipFeasibility(t *testing.T) {
	flour := id.New()
	basil := id.New()
	rec := testRecipe(
		recipe.Line{IngredientID: flour, QuantityPerServing: qty(1)},
		recipe.Line{IngredientID: basil, QuantityPerServing: qty(0.01), IsOptional: true},
	)

	result := Check(rec, 2, map[id.ID]types.Quantity{flour: qty(5)})

	assert.True(t, result.Feasible)
	shortages := result.Shortages()
	require.Len(t, shortages, 1)
	assert.Equal(t, basil, shortages[0].IngredientID)
	assert.True(t, shortages[0].IsOptional)
}

func TestCheck_MissingIngredientCountsAsZero(t *testing.T) {
	flour := id.New()
	rec := testRecipe(recipe.Line{IngredientID: flour, QuantityPerServing: qty(1)})

	result := Check(rec, 1, map[id.ID]types.Quantity{})

	assert.False(t, result.Feasible)
	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].Available.IsZero())
	assert.Equal(t, qty(1), result.Lines[0].Shortage)
}

func TestBatchTotals(t *testing.T) {
	flour := id.New()
	sugar := id.New()

	totals := BatchTotals([]BatchQuantity{
		{IngredientID: flour, Remaining: qty(5)},
		{IngredientID: flour, Remaining: qty(10)},
		{IngredientID: sugar, Remaining: qty(3)},
	})

	assert.Equal(t, qty(15), totals[flour])
	assert.Equal(t, qty(3), totals[sugar])
}

func TestCosting(t *testing.T) {
	flour := ingredient.New("Flour", "dry", ingredient.UnitKilogram, types.MustMoney("2.00"))
	sauce := ingredient.New("Sauce", "wet", ingredient.UnitLiter, types.MustMoney("4.00"))

	rec := recipe.New(id.New(), "test", 2)
	rec.Lines = []recipe.Line{
		{IngredientID: flour.ID, QuantityPerServing: qty(0.5)},
		{IngredientID: sauce.ID, QuantityPerServing: qty(0.25)},
	}
	resolved := &recipe.Resolved{
		Recipe: rec,
		Ingredients: map[id.ID]*ingredient.Ingredient{
			flour.ID: flour,
			sauce.ID: sauce,
		},
	}

	// Per serving: 0.5*2.00 + 0.25*4.00 = 2.00; one preparation yields 2 servings.
	assert.True(t, TotalCost(resolved).Equal(types.MustMoney("4.00")))
	assert.True(t, CostPerServing(resolved).Equal(types.MustMoney("2.00")))
}
