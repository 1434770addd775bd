package deduction

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/domain/ledger"
)

// fakeTxManager runs the callback directly. The fake repository mutates
// in place, so tests exercise the happy path and plan-phase failures
// (which abort before any write).
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedgerRepo struct {
	batches   map[id.ID]*entity.Batch
	movements []entity.StockMovement
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{batches: make(map[id.ID]*entity.Batch)}
}

func (f *fakeLedgerRepo) CreateBatch(_ context.Context, b *entity.Batch) error {
	cp := *b
	f.batches[b.ID] = &cp
	return nil
}

func (f *fakeLedgerRepo) GetBatch(_ context.Context, batchID id.ID) (*entity.Batch, error) {
	b, ok := f.batches[batchID]
	if !ok {
		return nil, apperror.NewBatchNotFound(batchID)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeLedgerRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*entity.Batch, error) {
	return f.GetBatch(ctx, batchID)
}

func (f *fakeLedgerRepo) ListAvailableBatches(_ context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	out := make([]entity.Batch, 0)
	for _, b := range f.batches {
		if b.IngredientID == ingredientID && b.IsConsumable() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpirationDate.Equal(out[j].ExpirationDate) {
			return out[i].ExpirationDate.Before(out[j].ExpirationDate)
		}
		return out[i].ReceivedDate.Before(out[j].ReceivedDate)
	})
	return out, nil
}

func (f *fakeLedgerRepo) ListAvailableBatchesForUpdate(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	return f.ListAvailableBatches(ctx, ingredientID)
}

func (f *fakeLedgerRepo) UpdateBatchState(_ context.Context, batchID id.ID, remaining types.Quantity, status entity.BatchStatus, expectedVersion int) error {
	b, ok := f.batches[batchID]
	if !ok {
		return apperror.NewBatchNotFound(batchID)
	}
	if b.Version != expectedVersion {
		return apperror.NewConcurrentModification("batch", batchID)
	}
	b.QuantityRemaining = remaining
	b.Status = status
	b.Version++
	return nil
}

func (f *fakeLedgerRepo) ExistsBatchNumber(_ context.Context, ingredientID id.ID, batchNumber string) (bool, error) {
	for _, b := range f.batches {
		if b.IngredientID == ingredientID && b.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerRepo) ListExpiringBatches(context.Context, time.Time) ([]entity.Batch, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) ListActiveBatchesExpiredAt(_ context.Context, asOf time.Time) ([]entity.Batch, error) {
	out := make([]entity.Batch, 0)
	for _, b := range f.batches {
		if b.Status == entity.BatchActive && !b.ExpirationDate.After(asOf) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) InsertMovement(_ context.Context, m entity.StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeLedgerRepo) ListMovementsByReference(_ context.Context, refType entity.ReferenceType, refID string) ([]entity.StockMovement, error) {
	out := make([]entity.StockMovement, 0)
	for _, m := range f.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) MovementHistory(context.Context, id.ID, ledger.MovementFilter) ([]entity.StockMovement, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) SumMovements(_ context.Context, batchID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, m := range f.movements {
		if m.BatchID == batchID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (f *fakeLedgerRepo) StockSummary(context.Context, *id.ID) ([]ledger.StockSummaryRow, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) LowStock(context.Context) ([]ledger.LowStockRow, error) {
	return nil, nil
}

var _ ledger.Repository = (*fakeLedgerRepo)(nil)

type fakeRecipeRepo struct {
	byProduct map[id.ID]*recipe.Recipe
}

func (f *fakeRecipeRepo) Create(context.Context, *recipe.Recipe) error { return nil }
func (f *fakeRecipeRepo) Update(context.Context, *recipe.Recipe) error { return nil }
func (f *fakeRecipeRepo) SetActive(context.Context, id.ID, bool) error { return nil }

func (f *fakeRecipeRepo) GetByID(_ context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	for _, r := range f.byProduct {
		if r.ID == recipeID {
			return r, nil
		}
	}
	return nil, apperror.NewNotFound("recipe", recipeID)
}

func (f *fakeRecipeRepo) GetActiveByProduct(_ context.Context, productID id.ID) (*recipe.Recipe, error) {
	r, ok := f.byProduct[productID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", productID)
	}
	return r, nil
}

func (f *fakeRecipeRepo) List(context.Context, domain.ListFilter) (domain.ListResult[*recipe.Recipe], error) {
	return domain.ListResult[*recipe.Recipe]{}, nil
}

type fakeIngredientRepo struct {
	items map[id.ID]*ingredient.Ingredient
}

func (f *fakeIngredientRepo) Create(context.Context, *ingredient.Ingredient) error { return nil }
func (f *fakeIngredientRepo) Update(context.Context, *ingredient.Ingredient) error { return nil }
func (f *fakeIngredientRepo) SetActive(context.Context, id.ID, bool) error         { return nil }
func (f *fakeIngredientRepo) ExistsByName(context.Context, string) (bool, error)   { return false, nil }

func (f *fakeIngredientRepo) GetByID(_ context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	ing, ok := f.items[ingredientID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingredientID)
	}
	return ing, nil
}

func (f *fakeIngredientRepo) List(context.Context, domain.ListFilter) (domain.ListResult[*ingredient.Ingredient], error) {
	return domain.ListResult[*ingredient.Ingredient]{}, nil
}

func (f *fakeIngredientRepo) GetByIDs(_ context.Context, ids []id.ID) (map[id.ID]*ingredient.Ingredient, error) {
	out := make(map[id.ID]*ingredient.Ingredient, len(ids))
	for _, ingID := range ids {
		if ing, ok := f.items[ingID]; ok {
			out[ingID] = ing
		}
	}
	return out, nil
}

var (
	_ recipe.Repository     = (*fakeRecipeRepo)(nil)
	_ ingredient.Repository = (*fakeIngredientRepo)(nil)
)

// fixture wires a full deduction stack over in-memory storage.
type fixture struct {
	repo      *fakeLedgerRepo
	ledgerSvc *ledger.Service
	recipes   *fakeRecipeRepo
	ings      *fakeIngredientRepo
	svc       *Service
}

func newFixture() *fixture {
	repo := newFakeLedgerRepo()
	txm := fakeTxManager{}
	ledgerSvc := ledger.NewService(repo, txm)
	recipes := &fakeRecipeRepo{byProduct: make(map[id.ID]*recipe.Recipe)}
	ings := &fakeIngredientRepo{items: make(map[id.ID]*ingredient.Ingredient)}
	recipeSvc := recipe.NewService(recipes, ings)
	return &fixture{
		repo:      repo,
		ledgerSvc: ledgerSvc,
		recipes:   recipes,
		ings:      ings,
		svc:       NewService(recipeSvc, ledgerSvc, repo, txm),
	}
}

func (f *fixture) addIngredient(t *testing.T, name string) id.ID {
	t.Helper()
	ing := ingredient.New(name, "test", ingredient.UnitKilogram, types.MustMoney("2.00"))
	f.ings.items[ing.ID] = ing
	return ing.ID
}

func (f *fixture) addBatch(t *testing.T, ingredientID id.ID, number string, qty float64, expiresIn time.Duration) id.ID {
	t.Helper()
	b, err := f.ledgerSvc.CreateBatch(context.Background(), ledger.CreateBatchInput{
		IngredientID:   ingredientID,
		BatchNumber:    number,
		Quantity:       types.NewQuantityFromFloat64(qty),
		UnitCost:       types.MustMoney("1.20"),
		ExpirationDate: time.Now().UTC().Add(expiresIn),
		Actor:          "test",
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) addRecipe(t *testing.T, productID id.ID, lines ...recipe.Line) {
	t.Helper()
	rec := recipe.New(productID, "test recipe", 1)
	rec.Lines = lines
	f.recipes.byProduct[productID] = rec
}

func (f *fixture) remaining(t *testing.T, batchID id.ID) types.Quantity {
	t.Helper()
	b, err := f.repo.GetBatch(context.Background(), batchID)
	require.NoError(t, err)
	return b.QuantityRemaining
}

func TestProcessOrder_ConsumesFIFOAcrossBatches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	b1 := f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	b2 := f.addBatch(t, flour, "B2", 10, 72*time.Hour)

	product := id.New()
	f.addRecipe(t, product, recipe.Line{
		IngredientID:       flour,
		QuantityPerServing: types.NewQuantityFromFloat64(7),
		Unit:               "kg",
	})

	result, err := f.svc.ProcessOrder(ctx, "order-1", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.ProcessedLines, 1)
	assert.True(t, result.FullyProcessed())
	assert.Equal(t, 2, result.MovementsCreated)
	assert.Len(t, result.ProcessedLines[0].MovementLineIDs, 2)

	// The soon-to-expire batch is drained first and depletes.
	assert.Equal(t, types.Quantity(0), f.remaining(t, b1))
	assert.Equal(t, types.NewQuantityFromFloat64(8), f.remaining(t, b2))

	got1, err := f.repo.GetBatch(ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchDepleted, got1.Status)

	outs, err := f.repo.ListMovementsByReference(ctx, entity.RefOrder, "order-1")
	require.NoError(t, err)
	require.Len(t, outs, 2)
	for _, m := range outs {
		assert.Equal(t, entity.MovementOut, m.Type)
		assert.True(t, m.Quantity.IsNegative())
		assert.Equal(t, "chef", m.Actor)
	}

	require.NoError(t, f.ledgerSvc.CheckConservation(ctx, b1))
	require.NoError(t, f.ledgerSvc.CheckConservation(ctx, b2))
}

func TestProcessOrder_SkipsProductWithoutRecipe(t *testing.T) {
	f := newFixture()

	result, err := f.svc.ProcessOrder(context.Background(), "order-2",
		[]OrderLine{{ProductID: id.New(), Quantity: 3}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.SkippedLines, 1)
	assert.Empty(t, result.ProcessedLines)
	assert.Empty(t, result.FailedLines)
	assert.Equal(t, LineSkipped, result.SkippedLines[0].Status)
	assert.Zero(t, result.MovementsCreated)
}

func TestProcessOrder_InsufficientStockLeavesLedgerUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	b1 := f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	b2 := f.addBatch(t, flour, "B2", 10, 72*time.Hour)

	product := id.New()
	f.addRecipe(t, product, recipe.Line{
		IngredientID:       flour,
		QuantityPerServing: types.NewQuantityFromFloat64(20),
		Unit:               "kg",
	})

	result, err := f.svc.ProcessOrder(ctx, "order-3", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.FailedLines, 1)
	failed := result.FailedLines[0]
	require.NotNil(t, failed.Error)
	assert.Equal(t, apperror.CodeInsufficientIngredients, failed.Error.Code)
	assert.Empty(t, failed.MovementLineIDs)

	// Nothing was consumed for the infeasible line.
	assert.Equal(t, types.NewQuantityFromFloat64(5), f.remaining(t, b1))
	assert.Equal(t, types.NewQuantityFromFloat64(10), f.remaining(t, b2))

	outs, err := f.repo.ListMovementsByReference(ctx, entity.RefOrder, "order-3")
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestProcessOrder_ReportsEveryShortage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	sugar := f.addIngredient(t, "Sugar")
	f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	f.addBatch(t, sugar, "B2", 1, 24*time.Hour)

	product := id.New()
	f.addRecipe(t, product,
		recipe.Line{IngredientID: flour, QuantityPerServing: types.NewQuantityFromFloat64(8), Unit: "kg"},
		recipe.Line{IngredientID: sugar, QuantityPerServing: types.NewQuantityFromFloat64(2), Unit: "kg", PreparationOrder: 1},
	)

	result, err := f.svc.ProcessOrder(ctx, "order-10", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.FailedLines, 1)
	failed := result.FailedLines[0]
	require.NotNil(t, failed.Error)
	assert.Equal(t, apperror.CodeInsufficientIngredients, failed.Error.Code)

	// Both shortfalls are reported, not just the first one planned.
	shortages, ok := failed.Error.Details["shortages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, shortages, 2)
	reported := []string{
		shortages[0]["ingredient_id"].(string),
		shortages[1]["ingredient_id"].(string),
	}
	assert.Contains(t, reported, flour.String())
	assert.Contains(t, reported, sugar.String())
}

func TestProcessOrder_OptionalShortageOmitsIngredient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	basil := f.addIngredient(t, "Basil")
	b1 := f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	// No basil batches at all.

	product := id.New()
	f.addRecipe(t, product,
		recipe.Line{IngredientID: flour, QuantityPerServing: types.NewQuantityFromFloat64(2), Unit: "kg"},
		recipe.Line{IngredientID: basil, QuantityPerServing: types.NewQuantityFromFloat64(0.005), Unit: "kg", IsOptional: true, PreparationOrder: 1},
	)

	result, err := f.svc.ProcessOrder(ctx, "order-4", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.ProcessedLines, 1)
	line := result.ProcessedLines[0]
	assert.Equal(t, LineProcessed, line.Status)
	require.Len(t, line.OmittedOptional, 1)
	assert.Equal(t, basil, line.OmittedOptional[0])

	assert.Equal(t, types.NewQuantityFromFloat64(3), f.remaining(t, b1))
}

func TestProcessOrder_RejectsNonPositiveLineQuantity(t *testing.T) {
	f := newFixture()

	result, err := f.svc.ProcessOrder(context.Background(), "order-5",
		[]OrderLine{{ProductID: id.New(), Quantity: 0}}, "chef")
	require.NoError(t, err)

	require.Len(t, result.FailedLines, 1)
	require.NotNil(t, result.FailedLines[0].Error)
	assert.Equal(t, apperror.CodeValidation, result.FailedLines[0].Error.Code)
}

func TestProcessOrder_RequiresOrderID(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ProcessOrder(context.Background(), "", nil, "chef")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRevert_RestoresStockAndIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	b1 := f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	b2 := f.addBatch(t, flour, "B2", 10, 72*time.Hour)

	product := id.New()
	f.addRecipe(t, product, recipe.Line{
		IngredientID:       flour,
		QuantityPerServing: types.NewQuantityFromFloat64(7),
		Unit:               "kg",
	})

	_, err := f.svc.ProcessOrder(ctx, "order-6", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)
	require.Equal(t, types.Quantity(0), f.remaining(t, b1))

	revert, err := f.svc.Revert(ctx, "order-6", "customer cancelled", "manager")
	require.NoError(t, err)
	assert.Equal(t, 2, revert.MovementsReverted)
	assert.Zero(t, revert.AlreadyReverted)
	assert.Empty(t, revert.Failures)

	// Quantities restored, depleted batch resurrected.
	assert.Equal(t, types.NewQuantityFromFloat64(5), f.remaining(t, b1))
	assert.Equal(t, types.NewQuantityFromFloat64(10), f.remaining(t, b2))
	got1, err := f.repo.GetBatch(ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchActive, got1.Status)

	// Reversal movements point back at the outs they compensate.
	reversals, err := f.repo.ListMovementsByReference(ctx, entity.RefReversal, "order-6")
	require.NoError(t, err)
	require.Len(t, reversals, 2)
	for _, m := range reversals {
		assert.Equal(t, entity.MovementReversal, m.Type)
		assert.True(t, m.Quantity.IsPositive())
		require.NotNil(t, m.ReversesLineID)
	}

	// A second revert compensates nothing.
	again, err := f.svc.Revert(ctx, "order-6", "double click", "manager")
	require.NoError(t, err)
	assert.Zero(t, again.MovementsReverted)
	assert.Equal(t, 2, again.AlreadyReverted)
	assert.Equal(t, types.NewQuantityFromFloat64(5), f.remaining(t, b1))

	require.NoError(t, f.ledgerSvc.CheckConservation(ctx, b1))
	require.NoError(t, f.ledgerSvc.CheckConservation(ctx, b2))
}

func TestRevert_FailedCompensationDoesNotBlockOthers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	b1 := f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	b2 := f.addBatch(t, flour, "B2", 10, 72*time.Hour)

	product := id.New()
	f.addRecipe(t, product, recipe.Line{
		IngredientID:       flour,
		QuantityPerServing: types.NewQuantityFromFloat64(7),
		Unit:               "kg",
	})

	_, err := f.svc.ProcessOrder(ctx, "order-9", []OrderLine{{ProductID: product, Quantity: 1}}, "chef")
	require.NoError(t, err)

	// The drained batch gets disposed before the revert comes in.
	require.NoError(t, f.ledgerSvc.DisposeBatch(ctx, b1, "contaminated", "manager"))

	revert, err := f.svc.Revert(ctx, "order-9", "customer cancelled", "manager")
	require.NoError(t, err)

	// The disposed batch's compensation fails alone; the other still reverts.
	assert.Equal(t, 1, revert.MovementsReverted)
	require.Len(t, revert.Failures, 1)
	failure := revert.Failures[0]
	assert.Equal(t, b1, failure.BatchID)
	require.NotNil(t, failure.Error)
	assert.Equal(t, apperror.CodeInvalidBatchState, failure.Error.Code)

	assert.Equal(t, types.NewQuantityFromFloat64(10), f.remaining(t, b2))
	got1, err := f.repo.GetBatch(ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchDisposed, got1.Status)
}

func TestRevert_NoDeductionsIsNoop(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Revert(context.Background(), "never-processed", "mistake", "manager")
	require.NoError(t, err)
	assert.Zero(t, result.MovementsReverted)
	assert.Zero(t, result.AlreadyReverted)
	assert.Empty(t, result.Failures)
}

func TestSimulate_SharedIngredientAccumulates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	f.addBatch(t, flour, "B1", 5, 24*time.Hour)
	f.addBatch(t, flour, "B2", 10, 72*time.Hour)

	productA := id.New()
	f.addRecipe(t, productA, recipe.Line{
		IngredientID: flour, QuantityPerServing: types.NewQuantityFromFloat64(7), Unit: "kg",
	})
	productB := id.New()
	f.addRecipe(t, productB, recipe.Line{
		IngredientID: flour, QuantityPerServing: types.NewQuantityFromFloat64(9), Unit: "kg",
	})

	result, err := f.svc.Simulate(ctx, "order-7", []OrderLine{
		{ProductID: productA, Quantity: 1},
		{ProductID: productB, Quantity: 1},
	})
	require.NoError(t, err)

	// The first line fits; the second sees only what the first left over.
	require.Len(t, result.Lines, 2)
	assert.Equal(t, LineProcessed, result.Lines[0].Status)
	assert.Equal(t, LineFailed, result.Lines[1].Status)
	assert.False(t, result.Feasible)

	shortages := result.Lines[1].Availability.Shortages()
	require.Len(t, shortages, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(1), shortages[0].Shortage)

	// Failed lines consume nothing in the projection.
	assert.Equal(t, types.NewQuantityFromFloat64(8), result.ProjectedRemaining[flour])

	// Simulation never writes.
	outs, err := f.repo.ListMovementsByReference(ctx, entity.RefOrder, "order-7")
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestSimulate_SkipsProductWithoutRecipe(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Simulate(context.Background(), "order-8",
		[]OrderLine{{ProductID: id.New(), Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	assert.Equal(t, LineSkipped, result.Lines[0].Status)
	assert.True(t, result.Feasible)
}

func TestCheckRecipeAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	flour := f.addIngredient(t, "Flour")
	f.addBatch(t, flour, "B1", 5, 24*time.Hour)

	product := id.New()
	f.addRecipe(t, product, recipe.Line{
		IngredientID: flour, QuantityPerServing: types.NewQuantityFromFloat64(2), Unit: "kg",
	})
	rec := f.recipes.byProduct[product]

	result, err := f.svc.CheckRecipeAvailability(ctx, rec.ID, 2)
	require.NoError(t, err)
	assert.True(t, result.Feasible)

	result, err = f.svc.CheckRecipeAvailability(ctx, rec.ID, 3)
	require.NoError(t, err)
	assert.False(t, result.Feasible)
	require.Len(t, result.Shortages(), 1)
	assert.Equal(t, types.NewQuantityFromFloat64(1), result.Shortages()[0].Shortage)

	_, err = f.svc.CheckRecipeAvailability(ctx, rec.ID, 0)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
