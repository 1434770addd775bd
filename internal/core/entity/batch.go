package entity

import (
	"context"
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// BatchStatus defines the lifecycle state of a stock batch.
type BatchStatus string

const (
	// BatchActive - batch holds stock available for consumption
	BatchActive BatchStatus = "active"
	// BatchDepleted - quantity-remaining reached zero; a restore movement
	// transitions the batch back to active
	BatchDepleted BatchStatus = "depleted"
	// BatchExpired - administratively marked past expiration; still restorable
	BatchExpired BatchStatus = "expired"
	// BatchDisposed - terminal; no further movements permitted
	BatchDisposed BatchStatus = "disposed"
)

// Batch represents a dated, quantified lot of a single ingredient
// received from a supplier. A batch is exclusively owned by its ingredient;
// quantity-remaining is mutated only through recorded movements.
type Batch struct {
	ID id.ID `db:"id" json:"id"`

	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	// BatchNumber is unique per ingredient
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	// Invariant: 0 <= QuantityRemaining <= OriginalQuantity
	QuantityRemaining types.Quantity `db:"quantity_remaining" json:"quantityRemaining"`
	OriginalQuantity  types.Quantity `db:"original_quantity" json:"originalQuantity"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	ManufacturingDate *time.Time `db:"manufacturing_date" json:"manufacturingDate,omitempty"`
	ExpirationDate    time.Time  `db:"expiration_date" json:"expirationDate"`
	ReceivedDate      time.Time  `db:"received_date" json:"receivedDate"`

	StorageLocation string `db:"storage_location" json:"storageLocation,omitempty"`

	Status BatchStatus `db:"status" json:"status"`

	// Version for optimistic locking; incremented on every applied movement
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBatch creates a batch with full remaining quantity and active status.
func NewBatch(ingredientID id.ID, batchNumber string, quantity types.Quantity, unitCost types.Money) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:                id.New(),
		IngredientID:      ingredientID,
		BatchNumber:       batchNumber,
		QuantityRemaining: quantity,
		OriginalQuantity:  quantity,
		UnitCost:          unitCost,
		ReceivedDate:      now,
		Status:            BatchActive,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate implements Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.IngredientID) {
		return apperror.NewValidation("ingredient_id is required").
			WithDetail("field", "ingredientId")
	}
	if b.BatchNumber == "" {
		return apperror.NewValidation("batch number is required").
			WithDetail("field", "batchNumber")
	}
	if !b.OriginalQuantity.IsPositive() {
		return apperror.NewValidation("original quantity must be positive").
			WithDetail("field", "originalQuantity")
	}
	if b.QuantityRemaining.IsNegative() || b.QuantityRemaining > b.OriginalQuantity {
		return apperror.NewInternalInvariant("quantity remaining outside [0, original]").
			WithDetail("batch_id", b.ID.String())
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}
	if b.ExpirationDate.IsZero() {
		return apperror.NewValidation("expiration date is required").
			WithDetail("field", "expirationDate")
	}
	return nil
}

// IsConsumable returns true if the batch can supply stock.
func (b *Batch) IsConsumable() bool {
	return b.Status == BatchActive && b.QuantityRemaining.IsPositive()
}

// AcceptsMovements returns false only for terminal states.
func (b *Batch) AcceptsMovements() bool {
	return b.Status != BatchDisposed
}

// DaysUntilExpiry returns whole days until expiration (negative if past).
func (b *Batch) DaysUntilExpiry(now time.Time) int {
	return int(b.ExpirationDate.Sub(now).Hours() / 24)
}

// RemainingValue returns remaining quantity valued at the batch unit cost.
func (b *Batch) RemainingValue() types.Money {
	return b.UnitCost.Mul(b.QuantityRemaining.Decimal())
}

// StatusAfterMovement returns the status the batch should hold after a
// movement changes its remaining quantity: reaching zero depletes the batch,
// a positive restore resurrects a depleted or expired batch.
func (b *Batch) StatusAfterMovement(remaining, delta types.Quantity) BatchStatus {
	if remaining.IsZero() {
		return BatchDepleted
	}
	if delta.IsPositive() && (b.Status == BatchDepleted || b.Status == BatchExpired) {
		return BatchActive
	}
	return b.Status
}
