package entity

import (
	"time"

	"larder/internal/core/id"
	"larder/internal/core/types"
)

// MovementType defines the kind of quantity change recorded against a batch.
type MovementType string

const (
	// MovementIn - stock received (batch creation, returns)
	MovementIn MovementType = "in"
	// MovementOut - stock consumed by an order
	MovementOut MovementType = "out"
	// MovementAdjustment - manual correction, either direction
	MovementAdjustment MovementType = "adjustment"
	// MovementWaste - stock discarded (spoilage, disposal)
	MovementWaste MovementType = "waste"
	// MovementReversal - compensating restore of a prior out movement
	MovementReversal MovementType = "reversal"
)

// ReferenceType ties a movement to its cause.
type ReferenceType string

const (
	RefOrder      ReferenceType = "order"
	RefAdjustment ReferenceType = "adjustment"
	RefReversal   ReferenceType = "reversal"
	RefManual     ReferenceType = "manual"
	RefReceipt    ReferenceType = "receipt"
)

// StockMovement is an immutable, signed quantity change recorded against a
// batch. Movements are append-only: they are never updated or deleted, they
// are the audit trail. For every batch the invariant holds at all times:
//
//	quantity_remaining == sum of signed movement quantities
//
// (the receipt movement carries the original quantity, consumption is
// negative, restores are positive).
type StockMovement struct {
	// LineID is the unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	BatchID id.ID `db:"batch_id" json:"batchId"`

	// IngredientID is denormalized from the batch for reporting queries
	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	Type MovementType `db:"movement_type" json:"type"`

	// Quantity is signed: positive for in/reversal, negative for out/waste,
	// either for adjustment
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost snapshots the batch cost at movement time (for consumption
	// reports)
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	ReferenceType ReferenceType `db:"reference_type" json:"referenceType"`
	ReferenceID   string        `db:"reference_id" json:"referenceId"`

	// ReversesLineID points at the out movement this reversal compensates.
	// Nil for non-reversal movements. Makes revert idempotent: an out
	// movement with an existing reversal is never compensated twice.
	ReversesLineID *id.ID `db:"reverses_line_id" json:"reversesLineId,omitempty"`

	// Actor is the user id responsible for the change (audit attribution)
	Actor string `db:"actor" json:"actor"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement line with generated LineID.
func NewStockMovement(batchID, ingredientID id.ID, mt MovementType, qty types.Quantity, refType ReferenceType, refID, actor string) StockMovement {
	return StockMovement{
		LineID:        id.New(),
		BatchID:       batchID,
		IngredientID:  ingredientID,
		Type:          mt,
		Quantity:      qty,
		ReferenceType: refType,
		ReferenceID:   refID,
		Actor:         actor,
		CreatedAt:     time.Now().UTC(),
	}
}

// IsInbound reports whether the movement restores stock.
func (m StockMovement) IsInbound() bool {
	return m.Quantity.IsPositive()
}
