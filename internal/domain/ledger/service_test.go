package ledger

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
)

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	batches   map[id.ID]*entity.Batch
	movements []entity.StockMovement
}

func newMemRepo() *memRepo {
	return &memRepo{batches: make(map[id.ID]*entity.Batch)}
}

func (r *memRepo) CreateBatch(_ context.Context, b *entity.Batch) error {
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *memRepo) GetBatch(_ context.Context, batchID id.ID) (*entity.Batch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewBatchNotFound(batchID)
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*entity.Batch, error) {
	return r.GetBatch(ctx, batchID)
}

func (r *memRepo) ListAvailableBatches(_ context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	out := make([]entity.Batch, 0)
	for _, b := range r.batches {
		if b.IngredientID == ingredientID && b.IsConsumable() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpirationDate.Before(out[j].ExpirationDate)
	})
	return out, nil
}

func (r *memRepo) ListAvailableBatchesForUpdate(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	return r.ListAvailableBatches(ctx, ingredientID)
}

func (r *memRepo) UpdateBatchState(_ context.Context, batchID id.ID, remaining types.Quantity, status entity.BatchStatus, expectedVersion int) error {
	b, ok := r.batches[batchID]
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

func (r *memRepo) ExistsBatchNumber(_ context.Context, ingredientID id.ID, batchNumber string) (bool, error) {
	for _, b := range r.batches {
		if b.IngredientID == ingredientID && b.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListExpiringBatches(_ context.Context, before time.Time) ([]entity.Batch, error) {
	out := make([]entity.Batch, 0)
	for _, b := range r.batches {
		if b.IsConsumable() && b.ExpirationDate.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) ListActiveBatchesExpiredAt(_ context.Context, asOf time.Time) ([]entity.Batch, error) {
	out := make([]entity.Batch, 0)
	for _, b := range r.batches {
		if b.Status == entity.BatchActive && !b.ExpirationDate.After(asOf) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) InsertMovement(_ context.Context, m entity.StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *memRepo) ListMovementsByReference(_ context.Context, refType entity.ReferenceType, refID string) ([]entity.StockMovement, error) {
	out := make([]entity.StockMovement, 0)
	for _, m := range r.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) MovementHistory(_ context.Context, ingredientID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	out := make([]entity.StockMovement, 0)
	for _, m := range r.movements {
		if m.IngredientID == ingredientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) SumMovements(_ context.Context, batchID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, m := range r.movements {
		if m.BatchID == batchID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *memRepo) StockSummary(context.Context, *id.ID) ([]StockSummaryRow, error) {
	return nil, nil
}

func (r *memRepo) LowStock(context.Context) ([]LowStockRow, error) {
	return nil, nil
}

var _ Repository = (*memRepo)(nil)

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, passthroughTxManager{}), repo
}

func mustCreateBatch(t *testing.T, svc *Service, ingredientID id.ID, number string, qty float64, expiresIn time.Duration) *entity.Batch {
	t.Helper()
	b, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		IngredientID:   ingredientID,
		BatchNumber:    number,
		Quantity:       types.NewQuantityFromFloat64(qty),
		UnitCost:       types.MustMoney("1.50"),
		ExpirationDate: time.Now().UTC().Add(expiresIn),
		Actor:          "test",
	})
	require.NoError(t, err)
	return b
}

func TestCreateBatch_RecordsReceiptMovement(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 10, 48*time.Hour)

	assert.Equal(t, entity.BatchActive, b.Status)
	assert.Equal(t, types.NewQuantityFromFloat64(10), b.QuantityRemaining)
	assert.Equal(t, b.QuantityRemaining, b.OriginalQuantity)

	receipts, err := repo.ListMovementsByReference(ctx, entity.RefReceipt, "LOT-1")
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, entity.MovementIn, receipts[0].Type)
	assert.Equal(t, types.NewQuantityFromFloat64(10), receipts[0].Quantity)

	// The opening movement balances the books from the first row.
	require.NoError(t, svc.CheckConservation(ctx, b.ID))
}

func TestCreateBatch_RejectsDuplicateNumberPerIngredient(t *testing.T) {
	svc, _ := newTestService()
	ing := id.New()

	mustCreateBatch(t, svc, ing, "LOT-1", 10, 48*time.Hour)

	_, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		IngredientID:   ing,
		BatchNumber:    "LOT-1",
		Quantity:       types.NewQuantityFromFloat64(5),
		UnitCost:       types.MustMoney("1.50"),
		ExpirationDate: time.Now().UTC().Add(24 * time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	// Same number under a different ingredient is fine.
	mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 24*time.Hour)
}

func TestCreateBatch_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		IngredientID:   id.New(),
		BatchNumber:    "LOT-1",
		Quantity:       types.NewQuantityFromFloat64(-1),
		UnitCost:       types.MustMoney("1.50"),
		ExpirationDate: time.Now().UTC().Add(24 * time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestApplyMovement_DepletesAtExactZero(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	m, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(5).Neg(),
		Type:          entity.MovementOut,
		ReferenceType: entity.RefOrder,
		ReferenceID:   "order-1",
		Actor:         "chef",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementOut, m.Type)

	got, err := repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchDepleted, got.Status)
	assert.True(t, got.QuantityRemaining.IsZero())
	require.NoError(t, svc.CheckConservation(ctx, b.ID))
}

func TestApplyMovement_NeverGoesNegative(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	_, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(6).Neg(),
		Type:          entity.MovementOut,
		ReferenceType: entity.RefOrder,
		ReferenceID:   "order-1",
		Actor:         "chef",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	got, err := repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(5), got.QuantityRemaining)
}

func TestApplyMovement_OverRestoreRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	_, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(1),
		Type:          entity.MovementAdjustment,
		ReferenceType: entity.RefAdjustment,
		ReferenceID:   "recount",
		Actor:         "manager",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOverRestore))
}

func TestApplyMovement_ResurrectsDepletedBatch(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	_, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(5).Neg(),
		Type:          entity.MovementOut,
		ReferenceType: entity.RefOrder,
		ReferenceID:   "order-1",
		Actor:         "chef",
	})
	require.NoError(t, err)

	_, err = svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(2),
		Type:          entity.MovementReversal,
		ReferenceType: entity.RefReversal,
		ReferenceID:   "order-1",
		Actor:         "manager",
	})
	require.NoError(t, err)

	got, err := repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchActive, got.Status)
	assert.Equal(t, types.NewQuantityFromFloat64(2), got.QuantityRemaining)
	require.NoError(t, svc.CheckConservation(ctx, b.ID))
}

func TestApplyMovement_NegativeAdjustmentKeepsExpiredStatus(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, time.Hour)

	_, err := svc.ExpireBatches(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)

	got, err := repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BatchExpired, got.Status)

	// Writing off part of an expired batch must not resurrect it.
	_, err = svc.AdjustBatch(ctx, b.ID, types.NewQuantityFromFloat64(1).Neg(), "spoiled", "manager")
	require.NoError(t, err)

	got, err = repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchExpired, got.Status)
	assert.Equal(t, types.NewQuantityFromFloat64(4), got.QuantityRemaining)
}

func TestApplyMovement_DisposedBatchRejectsEverything(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	require.NoError(t, svc.DisposeBatch(ctx, b.ID, "contaminated", "manager"))

	_, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(1),
		Type:          entity.MovementAdjustment,
		ReferenceType: entity.RefAdjustment,
		ReferenceID:   "recount",
		Actor:         "manager",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidBatchState))
}

func TestApplyMovement_ZeroDeltaRejected(t *testing.T) {
	svc, _ := newTestService()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	_, err := svc.ApplyMovement(context.Background(), MovementRequest{
		BatchID:       b.ID,
		Delta:         0,
		Type:          entity.MovementAdjustment,
		ReferenceType: entity.RefAdjustment,
		Actor:         "manager",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestApplyMovement_UnknownBatch(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ApplyMovement(context.Background(), MovementRequest{
		BatchID:       id.New(),
		Delta:         types.NewQuantityFromFloat64(1).Neg(),
		Type:          entity.MovementOut,
		ReferenceType: entity.RefOrder,
		ReferenceID:   "order-1",
		Actor:         "chef",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBatchNotFound))
}

func TestDisposeBatch_WritesOffRemainder(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	require.NoError(t, svc.DisposeBatch(ctx, b.ID, "spoiled", "manager"))

	got, err := repo.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchDisposed, got.Status)
	assert.True(t, got.QuantityRemaining.IsZero())

	wastes, err := repo.ListMovementsByReference(ctx, entity.RefManual, "spoiled")
	require.NoError(t, err)
	require.Len(t, wastes, 1)
	assert.Equal(t, entity.MovementWaste, wastes[0].Type)
	assert.Equal(t, types.NewQuantityFromFloat64(5).Neg(), wastes[0].Quantity)

	require.NoError(t, svc.CheckConservation(ctx, b.ID))

	// Disposal is terminal.
	err = svc.DisposeBatch(ctx, b.ID, "again", "manager")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidBatchState))
}

func TestDisposeBatch_EmptyBatchWritesNoWaste(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	_, err := svc.ApplyMovement(ctx, MovementRequest{
		BatchID:       b.ID,
		Delta:         types.NewQuantityFromFloat64(5).Neg(),
		Type:          entity.MovementOut,
		ReferenceType: entity.RefOrder,
		ReferenceID:   "order-1",
		Actor:         "chef",
	})
	require.NoError(t, err)

	before := len(repo.movements)
	require.NoError(t, svc.DisposeBatch(ctx, b.ID, "cleanup", "manager"))
	assert.Equal(t, before, len(repo.movements))
}

func TestExpireBatches_StatusOnlyTransition(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	ing := id.New()

	stale := mustCreateBatch(t, svc, ing, "LOT-1", 5, time.Hour)
	fresh := mustCreateBatch(t, svc, ing, "LOT-2", 5, 96*time.Hour)

	count, err := svc.ExpireBatches(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	gotStale, err := repo.GetBatch(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchExpired, gotStale.Status)
	// Quantity survives expiry; no movement is recorded.
	assert.Equal(t, types.NewQuantityFromFloat64(5), gotStale.QuantityRemaining)
	require.NoError(t, svc.CheckConservation(ctx, stale.ID))

	gotFresh, err := repo.GetBatch(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchActive, gotFresh.Status)

	// A second run finds nothing left to expire.
	count, err = svc.ExpireBatches(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

// staleExpiryRepo serves a listing snapshot taken before later transitions,
// mimicking a batch changing state between the unlocked scan and the lock.
type staleExpiryRepo struct {
	*memRepo
	snapshot []entity.Batch
}

func (r *staleExpiryRepo) ListActiveBatchesExpiredAt(context.Context, time.Time) ([]entity.Batch, error) {
	return r.snapshot, nil
}

func TestExpireBatches_CountsOnlyAppliedTransitions(t *testing.T) {
	repo := newMemRepo()
	stale := &staleExpiryRepo{memRepo: repo}
	svc := NewService(stale, passthroughTxManager{})
	ctx := context.Background()
	ing := id.New()

	b1 := mustCreateBatch(t, svc, ing, "LOT-1", 5, time.Hour)
	b2 := mustCreateBatch(t, svc, ing, "LOT-2", 5, time.Hour)

	// Both were candidates when the listing ran, but one got disposed before
	// its turn under the lock.
	stale.snapshot = []entity.Batch{*b1, *b2}
	require.NoError(t, svc.DisposeBatch(ctx, b2.ID, "contaminated", "manager"))

	count, err := svc.ExpireBatches(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got1, err := repo.GetBatch(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchExpired, got1.Status)

	got2, err := repo.GetBatch(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchDisposed, got2.Status)
}

func TestGetStockSummary_Classification(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(&summaryRepo{memRepo: repo}, passthroughTxManager{})

	rows, err := svc.GetStockSummary(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, StockOut, rows[0].Status)
	assert.Equal(t, StockLow, rows[1].Status)
	assert.Equal(t, StockOK, rows[2].Status)
}

// summaryRepo overrides StockSummary with fixed rows.
type summaryRepo struct {
	*memRepo
}

func (r *summaryRepo) StockSummary(context.Context, *id.ID) ([]StockSummaryRow, error) {
	return []StockSummaryRow{
		{IngredientName: "out", TotalQuantity: 0, MinimumStock: types.NewQuantityFromFloat64(1)},
		{IngredientName: "low", TotalQuantity: types.NewQuantityFromFloat64(1), MinimumStock: types.NewQuantityFromFloat64(2)},
		{IngredientName: "ok", TotalQuantity: types.NewQuantityFromFloat64(5), MinimumStock: types.NewQuantityFromFloat64(2)},
	}, nil
}

func TestGetExpiringBatches_RejectsNegativeWindow(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetExpiringBatches(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCheckConservation_DetectsCorruption(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := mustCreateBatch(t, svc, id.New(), "LOT-1", 5, 48*time.Hour)

	// Tamper with the movement log behind the service's back.
	repo.movements = repo.movements[:0]

	err := svc.CheckConservation(ctx, b.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInternalInvariant))
}
