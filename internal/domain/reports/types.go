// Package reports provides report generation services over the movement log.
package reports

import (
	"time"

	"larder/internal/core/id"
	"larder/internal/core/types"
)

// GroupBy selects the aggregation dimension for the consumption report.
type GroupBy string

const (
	GroupByIngredient GroupBy = "ingredient"
	GroupByCategory   GroupBy = "category"
)

// ConsumptionReportFilter defines the period and grouping for consumption
// reporting.
type ConsumptionReportFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	GroupBy GroupBy

	// Optional restriction to specific ingredients
	IngredientIDs []id.ID

	// Pagination
	Limit  int
	Offset int
}

// ConsumptionReportItem is one aggregated row: an ingredient or a category,
// depending on grouping.
type ConsumptionReportItem struct {
	EntityID   string         `db:"entity_id" json:"entityId"`
	EntityName string         `db:"entity_name" json:"entityName"`
	Unit       string         `db:"unit" json:"unit,omitempty"`

	// TotalQuantity is the consumed magnitude over the period
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	// TotalCost values consumption at the batch unit costs captured on
	// each movement
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	MovementCount int `db:"movement_count" json:"movementCount"`
}

// ConsumptionReport is the full report.
type ConsumptionReport struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`
	GroupBy  GroupBy   `json:"groupBy"`

	Items      []ConsumptionReportItem `json:"items"`
	TotalItems int                     `json:"totalItems"`

	// Summary
	TotalQuantity types.Quantity `json:"totalQuantity"`
	TotalCost     types.Money    `json:"totalCost"`
}

// ExpiryReportItem is one batch approaching expiration.
type ExpiryReportItem struct {
	BatchID        id.ID          `db:"batch_id" json:"batchId"`
	BatchNumber    string         `db:"batch_number" json:"batchNumber"`
	IngredientID   id.ID          `db:"ingredient_id" json:"ingredientId"`
	IngredientName string         `db:"ingredient_name" json:"ingredientName"`
	Remaining      types.Quantity `db:"remaining" json:"remaining"`
	ValueAtRisk    types.Money    `db:"value_at_risk" json:"valueAtRisk"`
	ExpirationDate time.Time      `db:"expiration_date" json:"expirationDate"`
	DaysLeft       int            `db:"days_left" json:"daysLeft"`
}
