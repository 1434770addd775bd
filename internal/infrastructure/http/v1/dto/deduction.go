package dto

import (
	"larder/internal/domain/deduction"
)

// --- Request DTOs ---

// OrderLineRequest is one product position of an order payload.
type OrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// ProcessOrderRequest is the request body for processing an order.
type ProcessOrderRequest struct {
	OrderID string             `json:"orderId" binding:"required"`
	Lines   []OrderLineRequest `json:"lines" binding:"required,min=1"`
}

// SimulateOrderRequest is the request body for a dry-run.
type SimulateOrderRequest struct {
	OrderID string             `json:"orderId"`
	Lines   []OrderLineRequest `json:"lines" binding:"required,min=1"`
}

// RevertOrderRequest is the request body for reverting an order.
type RevertOrderRequest struct {
	Reason string `json:"reason"`
}

// CheckAvailabilityRequest asks whether a recipe is feasible for a number
// of servings.
type CheckAvailabilityRequest struct {
	Servings int `json:"servings" binding:"required,min=1"`
}

// --- Response DTOs ---

// Deduction results serialize directly: the domain result types carry json
// tags and the API contract matches them one to one.

// ProcessOrderResponse aliases the domain result.
type ProcessOrderResponse = deduction.Result

// SimulateOrderResponse aliases the domain simulation result.
type SimulateOrderResponse = deduction.SimulationResult

// RevertOrderResponse aliases the domain revert result.
type RevertOrderResponse = deduction.RevertResult
