// Package ledger_repo provides the PostgreSQL implementation of the batch
// ledger repository: batch rows guarded by row locks and optimistic
// versioning, plus the append-only movement log.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/ledger"
	"larder/internal/infrastructure/storage/postgres"
)

const (
	batchesTable   = "reg_batches"
	movementsTable = "reg_stock_movements"
)

// fifoOrder is the deterministic consumption order: earliest expiry first,
// ties broken by received date, then id for full reproducibility.
const fifoOrder = "expiration_date ASC, received_date ASC, id ASC"

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new batch ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch inserts a new batch row.
func (r *LedgerRepo) CreateBatch(ctx context.Context, b *entity.Batch) error {
	data := postgres.StructToMap(b)

	q := r.builder.Insert(batchesTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// GetBatch retrieves a batch by id.
func (r *LedgerRepo) GetBatch(ctx context.Context, batchID id.ID) (*entity.Batch, error) {
	return r.getBatch(ctx, batchID, false)
}

// GetBatchForUpdate retrieves a batch with a row lock. Must be called
// inside a transaction.
func (r *LedgerRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*entity.Batch, error) {
	return r.getBatch(ctx, batchID, true)
}

func (r *LedgerRepo) getBatch(ctx context.Context, batchID id.ID, forUpdate bool) (*entity.Batch, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.Batch]()...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b entity.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewBatchNotFound(batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return &b, nil
}

// ListAvailableBatches returns consumable batches in FIFO order.
func (r *LedgerRepo) ListAvailableBatches(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	return r.listAvailable(ctx, ingredientID, false)
}

// ListAvailableBatchesForUpdate is ListAvailableBatches with row locks.
// Must be called inside a transaction; locks are acquired in FIFO order so
// concurrent planners cannot deadlock on the same ingredient.
func (r *LedgerRepo) ListAvailableBatchesForUpdate(ctx context.Context, ingredientID id.ID) ([]entity.Batch, error) {
	return r.listAvailable(ctx, ingredientID, true)
}

func (r *LedgerRepo) listAvailable(ctx context.Context, ingredientID id.ID, forUpdate bool) ([]entity.Batch, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.Batch]()...).
		From(batchesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		Where(squirrel.Eq{"status": entity.BatchActive}).
		Where(squirrel.Gt{"quantity_remaining": 0}).
		OrderBy(fifoOrder)

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []entity.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select available batches: %w", err)
	}

	return batches, nil
}

// UpdateBatchState persists a new remaining quantity and status with
// optimistic locking.
func (r *LedgerRepo) UpdateBatchState(ctx context.Context, batchID id.ID, remaining types.Quantity, status entity.BatchStatus, expectedVersion int) error {
	q := r.builder.
		Update(batchesTable).
		Set("quantity_remaining", remaining).
		Set("status", status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": batchID}).
		Where(squirrel.Eq{"version": expectedVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(batchesTable, batchID.String())
	}

	return nil
}

// ExistsBatchNumber checks batch number uniqueness per ingredient.
func (r *LedgerRepo) ExistsBatchNumber(ctx context.Context, ingredientID id.ID, batchNumber string) (bool, error) {
	q := r.builder.
		Select("1").
		From(batchesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		Where(squirrel.Eq{"batch_number": batchNumber}).
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
		return false, fmt.Errorf("exists batch number: %w", err)
	}

	return true, nil
}

// ListExpiringBatches returns consumable batches expiring before the given
// date, soonest first.
func (r *LedgerRepo) ListExpiringBatches(ctx context.Context, before time.Time) ([]entity.Batch, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.Batch]()...).
		From(batchesTable).
		Where(squirrel.Eq{"status": entity.BatchActive}).
		Where(squirrel.Gt{"quantity_remaining": 0}).
		Where(squirrel.Lt{"expiration_date": before}).
		OrderBy("expiration_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []entity.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select expiring batches: %w", err)
	}

	return batches, nil
}

// ListActiveBatchesExpiredAt returns active batches whose expiration date
// has passed as of the given time.
func (r *LedgerRepo) ListActiveBatchesExpiredAt(ctx context.Context, asOf time.Time) ([]entity.Batch, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.Batch]()...).
		From(batchesTable).
		Where(squirrel.Eq{"status": entity.BatchActive}).
		Where(squirrel.LtOrEq{"expiration_date": asOf}).
		OrderBy("expiration_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []entity.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select expired batches: %w", err)
	}

	return batches, nil
}

// InsertMovement appends a movement row. Movements are immutable.
func (r *LedgerRepo) InsertMovement(ctx context.Context, m entity.StockMovement) error {
	q := r.builder.Insert(movementsTable).Columns(
		"line_id", "batch_id", "ingredient_id", "movement_type",
		"quantity", "unit_cost", "reference_type", "reference_id",
		"reverses_line_id", "actor", "created_at",
	).Values(
		m.LineID, m.BatchID, m.IngredientID, m.Type,
		m.Quantity, m.UnitCost, m.ReferenceType, m.ReferenceID,
		m.ReversesLineID, m.Actor, m.CreatedAt,
	)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// ListMovementsByReference retrieves movements by causal reference.
func (r *LedgerRepo) ListMovementsByReference(ctx context.Context, refType entity.ReferenceType, refID string) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.StockMovement]()...).
		From(movementsTable).
		Where(squirrel.Eq{"reference_type": refType}).
		Where(squirrel.Eq{"reference_id": refID}).
		OrderBy("created_at ASC", "line_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// MovementHistory returns movements for an ingredient, newest first.
func (r *LedgerRepo) MovementHistory(ctx context.Context, ingredientID id.ID, filter ledger.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(postgres.ExtractDBColumns[entity.StockMovement]()...).
		From(movementsTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID})

	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "line_id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

// SumMovements returns the signed movement total for a batch.
func (r *LedgerRepo) SumMovements(ctx context.Context, batchID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reg_stock_movements
		WHERE batch_id = $1
	`

	var totalScaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, batchID).Scan(&totalScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum movements: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

// StockSummary aggregates remaining quantity and value per ingredient.
func (r *LedgerRepo) StockSummary(ctx context.Context, ingredientID *id.ID) ([]ledger.StockSummaryRow, error) {
	q := r.builder.Select(
		"i.id AS ingredient_id",
		"i.name AS ingredient_name",
		"i.unit AS unit",
		"COALESCE(SUM(b.quantity_remaining), 0) AS total_quantity",
		"COALESCE(SUM(b.quantity_remaining * b.unit_cost / 10000), 0) AS total_value",
		"i.minimum_stock AS minimum_stock",
		"COUNT(b.id) FILTER (WHERE b.status = 'active' AND b.quantity_remaining > 0) AS batch_count",
	).
		From("cat_ingredients i").
		LeftJoin(batchesTable + " b ON b.ingredient_id = i.id AND b.status = 'active'").
		Where(squirrel.Eq{"i.active": true}).
		GroupBy("i.id", "i.name", "i.unit", "i.minimum_stock").
		OrderBy("i.name ASC")

	if ingredientID != nil {
		q = q.Where(squirrel.Eq{"i.id": *ingredientID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.StockSummaryRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock summary: %w", err)
	}

	return rows, nil
}

// LowStock returns ingredients whose total remaining quantity is below
// their minimum-stock threshold.
func (r *LedgerRepo) LowStock(ctx context.Context) ([]ledger.LowStockRow, error) {
	sql := `
		SELECT i.id AS ingredient_id,
		       i.name AS ingredient_name,
		       i.unit AS unit,
		       COALESCE(SUM(b.quantity_remaining), 0) AS current_stock,
		       i.minimum_stock AS minimum_stock
		FROM cat_ingredients i
		LEFT JOIN reg_batches b
		       ON b.ingredient_id = i.id AND b.status = 'active'
		WHERE i.active = true AND i.minimum_stock > 0
		GROUP BY i.id, i.name, i.unit, i.minimum_stock
		HAVING COALESCE(SUM(b.quantity_remaining), 0) < i.minimum_stock
		ORDER BY i.name ASC
	`

	var rows []ledger.LowStockRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql); err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	return rows, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
