// Package ledger provides the batch ledger: per-ingredient quantity state
// maintained as an ordered collection of dated batches, with an append-only
// movement log as the audit trail.
package ledger

import (
	"context"
	"time"

	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// Repository defines persistence operations for batches and movements.
type Repository interface {
	// Batch operations

	// CreateBatch inserts a new batch row
	CreateBatch(ctx context.Context, b *entity.Batch) error

	// GetBatch retrieves a batch by id
	GetBatch(ctx context.Context, batchID id.ID) (*entity.Batch, error)

	// GetBatchForUpdate retrieves a batch with a row lock. Must be called
	// inside a transaction; serializes all quantity changes per batch.
	GetBatchForUpdate(ctx context.Context, batchID id.ID) (*entity.Batch, error)

	// ListAvailableBatches returns active batches with remaining quantity,
	// ordered by expiration date ascending then received date ascending
	// (FIFO with earliest-expiry priority). Ordering is deterministic so
	// consumption is reproducible.
	ListAvailableBatches(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error)

	// ListAvailableBatchesForUpdate is ListAvailableBatches with row locks,
	// giving the consumption planner a consistent snapshot. Must be called
	// inside a transaction.
	ListAvailableBatchesForUpdate(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error)

	// UpdateBatchState persists a new remaining quantity and status,
	// guarded by optimistic versioning: fails with a concurrent
	// modification error when expectedVersion no longer matches.
	UpdateBatchState(ctx context.Context, batchID id.ID, remaining types.Quantity, status entity.BatchStatus, expectedVersion int) error

	// ExistsBatchNumber checks batch number uniqueness per ingredient
	ExistsBatchNumber(ctx context.Context, ingredientID id.ID, batchNumber string) (bool, error)

	// ListExpiringBatches returns consumable batches expiring before the
	// given date, soonest first
	ListExpiringBatches(ctx context.Context, before time.Time) ([]entity.Batch, error)

	// ListActiveBatchesExpiredAt returns active batches whose expiration
	// date has passed as of the given time (for administrative expiry)
	ListActiveBatchesExpiredAt(ctx context.Context, asOf time.Time) ([]entity.Batch, error)

	// Movement operations

	// InsertMovement appends a movement row. Movements are immutable.
	InsertMovement(ctx context.Context, m entity.StockMovement) error

	// ListMovementsByReference retrieves movements by causal reference
	ListMovementsByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]entity.StockMovement, error)

	// MovementHistory returns movements for an ingredient, newest first
	MovementHistory(ctx context.Context, ingredientID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// SumMovements returns the signed movement total for a batch
	// (conservation check input)
	SumMovements(ctx context.Context, batchID id.ID) (types.Quantity, error)

	// Aggregations

	// StockSummary aggregates remaining quantity and value per ingredient,
	// optionally restricted to one ingredient
	StockSummary(ctx context.Context, ingredientID *id.ID) ([]StockSummaryRow, error)

	// LowStock returns ingredients whose total remaining quantity is below
	// their minimum-stock threshold
	LowStock(ctx context.Context) ([]LowStockRow, error)
}

// MovementFilter restricts movement history queries.
type MovementFilter struct {
	BatchID  *id.ID
	Type     *entity.MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// StockLevel classifies an ingredient's aggregate position.
type StockLevel string

const (
	StockOK  StockLevel = "ok"
	StockLow StockLevel = "low"
	StockOut StockLevel = "out"
)

// StockSummaryRow is one ingredient's aggregate stock position.
type StockSummaryRow struct {
	IngredientID   id.ID          `db:"ingredient_id" json:"ingredientId"`
	IngredientName string         `db:"ingredient_name" json:"ingredientName"`
	Unit           string         `db:"unit" json:"unit"`
	TotalQuantity  types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalValue     types.Money    `db:"total_value" json:"totalValue"`
	MinimumStock   types.Quantity `db:"minimum_stock" json:"minimumStock"`
	BatchCount     int            `db:"batch_count" json:"batchCount"`

	// Status derived from threshold comparison; not a column
	Status StockLevel `db:"-" json:"status"`
}

// LowStockRow is one ingredient below its reorder threshold.
type LowStockRow struct {
	IngredientID   id.ID          `db:"ingredient_id" json:"ingredientId"`
	IngredientName string         `db:"ingredient_name" json:"ingredientName"`
	Unit           string         `db:"unit" json:"unit"`
	CurrentStock   types.Quantity `db:"current_stock" json:"currentStock"`
	MinimumStock   types.Quantity `db:"minimum_stock" json:"minimumStock"`
}
