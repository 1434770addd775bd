package ledger

import (
	"context"
	"fmt"
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/tx"
	"larder/internal/core/types"
	"larder/pkg/logger"
)

// Service provides business operations for the batch ledger. All quantity
// changes to a batch go through ApplyMovement, which serializes writers via
// a row lock and records the movement in the same transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// CreateBatchInput carries the receipt parameters for a new batch.
type CreateBatchInput struct {
	IngredientID      id.ID
	BatchNumber       string
	Quantity          types.Quantity
	UnitCost          types.Money
	ManufacturingDate *time.Time
	ExpirationDate    time.Time
	ReceivedDate      time.Time
	StorageLocation   string
	Actor             string
}

// CreateBatch records a stock receipt: the batch row plus its opening `in`
// movement, atomically. The receipt movement carries the original quantity
// so the conservation invariant holds from the first row.
func (s *Service) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	b := entity.NewBatch(in.IngredientID, in.BatchNumber, in.Quantity, in.UnitCost)
	b.ManufacturingDate = in.ManufacturingDate
	b.ExpirationDate = in.ExpirationDate
	b.StorageLocation = in.StorageLocation
	if !in.ReceivedDate.IsZero() {
		b.ReceivedDate = in.ReceivedDate
	}

	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsBatchNumber(ctx, in.IngredientID, in.BatchNumber)
	if err != nil {
		return nil, fmt.Errorf("check batch number: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("batch", "batch_number", in.BatchNumber)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateBatch(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		receipt := entity.NewStockMovement(
			b.ID, b.IngredientID, entity.MovementIn, in.Quantity,
			entity.RefReceipt, in.BatchNumber, in.Actor,
		)
		receipt.UnitCost = in.UnitCost
		if err := s.repo.InsertMovement(ctx, receipt); err != nil {
			return fmt.Errorf("record receipt movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch received",
		"batch_id", b.ID,
		"ingredient_id", b.IngredientID,
		"quantity", in.Quantity,
	)
	return b, nil
}

// MovementRequest describes one quantity change to apply to a batch.
type MovementRequest struct {
	BatchID id.ID

	// Delta is signed: negative for consumption, positive for restoration
	Delta types.Quantity

	Type          entity.MovementType
	ReferenceType entity.ReferenceType
	ReferenceID   string

	// ReversesLineID links a reversal to the out movement it compensates
	ReversesLineID *id.ID

	Actor string
}

// ApplyMovement updates a batch's remaining quantity by the signed delta and
// appends the movement row in one transaction. The batch row is locked for
// the duration, so concurrent writers are serialized; the version check
// guards against writers that read the batch before the lock was taken.
//
// Failure modes: BATCH_NOT_FOUND, INVALID_BATCH_STATE (disposed batch),
// INSUFFICIENT_STOCK (result would go negative), OVER_RESTORE (result would
// exceed original quantity), CONCURRENT_MODIFICATION (version mismatch).
// Reaching exactly zero transitions the batch to depleted; a positive delta
// resurrects a depleted or expired batch to active.
func (s *Service) ApplyMovement(ctx context.Context, req MovementRequest) (*entity.StockMovement, error) {
	if req.Delta.IsZero() {
		return nil, apperror.NewValidation("movement delta must be non-zero")
	}

	var movement *entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBatchForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if !b.AcceptsMovements() {
			return apperror.NewInvalidBatchState(b.ID.String(), string(b.Status))
		}

		remaining := b.QuantityRemaining + req.Delta
		if remaining.IsNegative() {
			return apperror.NewInsufficientStock(
				b.ID.String(),
				req.Delta.Neg().Float64(),
				b.QuantityRemaining.Float64(),
			)
		}
		if remaining > b.OriginalQuantity {
			return apperror.NewOverRestore(
				b.ID.String(),
				req.Delta.Float64(),
				(b.OriginalQuantity - b.QuantityRemaining).Float64(),
			)
		}

		status := b.StatusAfterMovement(remaining, req.Delta)
		if err := s.repo.UpdateBatchState(ctx, b.ID, remaining, status, b.Version); err != nil {
			return err
		}

		m := entity.NewStockMovement(
			b.ID, b.IngredientID, req.Type, req.Delta,
			req.ReferenceType, req.ReferenceID, req.Actor,
		)
		m.UnitCost = b.UnitCost
		m.ReversesLineID = req.ReversesLineID
		if err := s.repo.InsertMovement(ctx, m); err != nil {
			return fmt.Errorf("record movement: %w", err)
		}

		movement = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ListAvailableBatches returns consumable batches in FIFO order.
func (s *Service) ListAvailableBatches(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	return s.repo.ListAvailableBatches(ctx, ingredientID)
}

// GetBatch retrieves a batch by id.
func (s *Service) GetBatch(ctx context.Context, batchID id.ID) (*entity.Batch, error) {
	return s.repo.GetBatch(ctx, batchID)
}

// GetStockSummary aggregates quantity and value per ingredient, classifying
// each against its minimum-stock threshold.
func (s *Service) GetStockSummary(ctx context.Context, ingredientID *id.ID) ([]StockSummaryRow, error) {
	rows, err := s.repo.StockSummary(ctx, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	for i := range rows {
		switch {
		case rows[i].TotalQuantity.IsZero():
			rows[i].Status = StockOut
		case rows[i].TotalQuantity < rows[i].MinimumStock:
			rows[i].Status = StockLow
		default:
			rows[i].Status = StockOK
		}
	}
	return rows, nil
}

// GetExpiringBatches returns consumable batches expiring within daysAhead.
func (s *Service) GetExpiringBatches(ctx context.Context, daysAhead int) ([]entity.Batch, error) {
	if daysAhead < 0 {
		return nil, apperror.NewValidation("daysAhead cannot be negative")
	}
	before := time.Now().UTC().AddDate(0, 0, daysAhead)
	return s.repo.ListExpiringBatches(ctx, before)
}

// GetLowStockIngredients returns ingredients below their reorder threshold.
func (s *Service) GetLowStockIngredients(ctx context.Context) ([]LowStockRow, error) {
	return s.repo.LowStock(ctx)
}

// MovementHistory lists recorded movements for an ingredient.
func (s *Service) MovementHistory(ctx context.Context, ingredientID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.MovementHistory(ctx, ingredientID, filter)
}

// ExpireBatches marks active batches past their expiration date as expired.
// Status-only transition: no movement is recorded, quantities are untouched.
// Invoked by an external scheduler; the engine itself runs no timers.
func (s *Service) ExpireBatches(ctx context.Context, asOf time.Time) (int, error) {
	batches, err := s.repo.ListActiveBatchesExpiredAt(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	expired := 0
	for _, b := range batches {
		applied := false
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			locked, err := s.repo.GetBatchForUpdate(ctx, b.ID)
			if err != nil {
				return err
			}
			// Re-check under the lock: the batch may have been consumed to
			// depletion or disposed since the unlocked listing.
			if locked.Status != entity.BatchActive || locked.ExpirationDate.After(asOf) {
				return nil
			}
			if err := s.repo.UpdateBatchState(ctx, locked.ID, locked.QuantityRemaining, entity.BatchExpired, locked.Version); err != nil {
				return err
			}
			applied = true
			return nil
		})
		if err != nil {
			return expired, err
		}
		if applied {
			expired++
		}
	}

	if expired > 0 {
		logger.Info(ctx, "batches expired", "count", expired, "as_of", asOf)
	}
	return expired, nil
}

// DisposeBatch writes off any remaining quantity as waste and puts the batch
// in its terminal state. Only active or expired batches can be disposed;
// once disposed, no further movements are permitted.
func (s *Service) DisposeBatch(ctx context.Context, batchID id.ID, reason, actorID string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b.Status == entity.BatchDisposed {
			return apperror.NewInvalidBatchState(b.ID.String(), string(b.Status))
		}

		if b.QuantityRemaining.IsPositive() {
			waste := entity.NewStockMovement(
				b.ID, b.IngredientID, entity.MovementWaste, b.QuantityRemaining.Neg(),
				entity.RefManual, reason, actorID,
			)
			waste.UnitCost = b.UnitCost
			if err := s.repo.InsertMovement(ctx, waste); err != nil {
				return fmt.Errorf("record waste movement: %w", err)
			}
		}

		if err := s.repo.UpdateBatchState(ctx, b.ID, 0, entity.BatchDisposed, b.Version); err != nil {
			return err
		}

		logger.Info(ctx, "batch disposed",
			"batch_id", b.ID,
			"written_off", b.QuantityRemaining,
			"reason", reason,
		)
		return nil
	})
}

// AdjustBatch records a manual correction against a batch.
func (s *Service) AdjustBatch(ctx context.Context, batchID id.ID, delta types.Quantity, reason, actorID string) (*entity.StockMovement, error) {
	return s.ApplyMovement(ctx, MovementRequest{
		BatchID:       batchID,
		Delta:         delta,
		Type:          entity.MovementAdjustment,
		ReferenceType: entity.RefAdjustment,
		ReferenceID:   reason,
		Actor:         actorID,
	})
}

// CheckConservation verifies that a batch's remaining quantity equals the
// sum of its signed movements. A mismatch means the ledger is corrupt and
// surfaces as a fatal invariant violation - never silently swallowed.
func (s *Service) CheckConservation(ctx context.Context, batchID id.ID) error {
	b, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	sum, err := s.repo.SumMovements(ctx, batchID)
	if err != nil {
		return fmt.Errorf("sum movements: %w", err)
	}
	if sum != b.QuantityRemaining {
		return apperror.NewInternalInvariant("movement sum does not match remaining quantity").
			WithDetail("batch_id", batchID.String()).
			WithDetail("movement_sum", sum.String()).
			WithDetail("quantity_remaining", b.QuantityRemaining.String())
	}
	return nil
}
