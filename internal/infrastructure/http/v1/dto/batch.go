package dto

import (
	"time"

	"larder/internal/core/entity"
	"larder/internal/core/types"
)

// --- Request DTOs ---

// CreateBatchRequest is the request body for recording a stock receipt.
type CreateBatchRequest struct {
	IngredientID      string         `json:"ingredientId" binding:"required"`
	BatchNumber       string         `json:"batchNumber" binding:"required"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	UnitCost          types.Money    `json:"unitCost"`
	ManufacturingDate *time.Time     `json:"manufacturingDate,omitempty"`
	ExpirationDate    time.Time      `json:"expirationDate" binding:"required"`
	ReceivedDate      *time.Time     `json:"receivedDate,omitempty"`
	StorageLocation   string         `json:"storageLocation"`
}

// AdjustBatchRequest is the request body for a manual quantity correction.
type AdjustBatchRequest struct {
	// Delta is signed: negative shrinks the batch, positive restores
	Delta  types.Quantity `json:"delta" binding:"required"`
	Reason string         `json:"reason" binding:"required"`
}

// DisposeBatchRequest is the request body for disposing a batch.
type DisposeBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ExpireBatchesRequest triggers administrative expiry of overdue batches.
type ExpireBatchesRequest struct {
	// AsOf defaults to now when omitted
	AsOf *time.Time `json:"asOf,omitempty"`
}

// --- Response DTOs ---

// BatchResponse is the response body for a batch.
type BatchResponse struct {
	ID                string             `json:"id"`
	IngredientID      string             `json:"ingredientId"`
	BatchNumber       string             `json:"batchNumber"`
	QuantityRemaining types.Quantity     `json:"quantityRemaining"`
	OriginalQuantity  types.Quantity     `json:"originalQuantity"`
	UnitCost          types.Money        `json:"unitCost"`
	ManufacturingDate *time.Time         `json:"manufacturingDate,omitempty"`
	ExpirationDate    time.Time          `json:"expirationDate"`
	ReceivedDate      time.Time          `json:"receivedDate"`
	StorageLocation   string             `json:"storageLocation,omitempty"`
	Status            entity.BatchStatus `json:"status"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// FromBatch creates response DTO from domain entity.
func FromBatch(b *entity.Batch) *BatchResponse {
	return &BatchResponse{
		ID:                b.ID.String(),
		IngredientID:      b.IngredientID.String(),
		BatchNumber:       b.BatchNumber,
		QuantityRemaining: b.QuantityRemaining,
		OriginalQuantity:  b.OriginalQuantity,
		UnitCost:          b.UnitCost,
		ManufacturingDate: b.ManufacturingDate,
		ExpirationDate:    b.ExpirationDate,
		ReceivedDate:      b.ReceivedDate,
		StorageLocation:   b.StorageLocation,
		Status:            b.Status,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// FromBatches maps a batch slice to response DTOs.
func FromBatches(batches []entity.Batch) []*BatchResponse {
	out := make([]*BatchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, FromBatch(&batches[i]))
	}
	return out
}

// MovementResponse is the response body for a stock movement.
type MovementResponse struct {
	LineID         string               `json:"lineId"`
	BatchID        string               `json:"batchId"`
	IngredientID   string               `json:"ingredientId"`
	Type           entity.MovementType  `json:"type"`
	Quantity       types.Quantity       `json:"quantity"`
	UnitCost       types.Money          `json:"unitCost"`
	ReferenceType  entity.ReferenceType `json:"referenceType"`
	ReferenceID    string               `json:"referenceId"`
	ReversesLineID string               `json:"reversesLineId,omitempty"`
	Actor          string               `json:"actor,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// FromMovement creates response DTO from a movement row.
func FromMovement(m *entity.StockMovement) *MovementResponse {
	resp := &MovementResponse{
		LineID:        m.LineID.String(),
		BatchID:       m.BatchID.String(),
		IngredientID:  m.IngredientID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Actor:         m.Actor,
		CreatedAt:     m.CreatedAt,
	}
	if m.ReversesLineID != nil {
		resp.ReversesLineID = m.ReversesLineID.String()
	}
	return resp
}

// FromMovements maps a movement slice to response DTOs.
func FromMovements(movements []entity.StockMovement) []*MovementResponse {
	out := make([]*MovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, FromMovement(&movements[i]))
	}
	return out
}

// ExpireBatchesResponse reports how many batches were expired.
type ExpireBatchesResponse struct {
	ExpiredCount int `json:"expiredCount"`
}
