package deduction

import (
	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/availability"
)

// OrderLine is one product position of an incoming order.
type OrderLine struct {
	ProductID id.ID `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// LineStatus classifies the outcome of one order line.
type LineStatus string

const (
	// LineProcessed - batches consumed, movements recorded
	LineProcessed LineStatus = "processed"
	// LineSkipped - product has no recipe; no automatic deduction applies
	LineSkipped LineStatus = "skipped"
	// LineFailed - shortage or ledger error; no movements were committed
	// for this line
	LineFailed LineStatus = "failed"
)

// LineResult is the outcome of processing one order line.
type LineResult struct {
	ProductID id.ID      `json:"productId"`
	Quantity  int        `json:"quantity"`
	Status    LineStatus `json:"status"`

	// MovementLineIDs are the out movements committed for this line
	MovementLineIDs []id.ID `json:"movementLineIds,omitempty"`

	// OmittedOptional lists optional ingredients that were skipped for
	// lack of stock. They never fail the line; recorded for visibility.
	OmittedOptional []id.ID `json:"omittedOptional,omitempty"`

	// Error carries the per-line failure; nil unless Status is failed
	Error *apperror.AppError `json:"error,omitempty"`
}

// Result is the structured outcome of processing an entire order.
// Failures are accumulated here, never thrown past the orchestrator:
// the caller sees partial success as such.
type Result struct {
	OrderID string `json:"orderId"`

	ProcessedLines []LineResult `json:"processedLines"`
	SkippedLines   []LineResult `json:"skippedLines"`
	FailedLines    []LineResult `json:"failedLines"`

	MovementsCreated int `json:"movementsCreated"`
}

// FullyProcessed reports whether every line with a recipe succeeded.
func (r *Result) FullyProcessed() bool {
	return len(r.FailedLines) == 0
}

func (r *Result) addLine(lr LineResult) {
	switch lr.Status {
	case LineProcessed:
		r.ProcessedLines = append(r.ProcessedLines, lr)
		r.MovementsCreated += len(lr.MovementLineIDs)
	case LineSkipped:
		r.SkippedLines = append(r.SkippedLines, lr)
	case LineFailed:
		r.FailedLines = append(r.FailedLines, lr)
	}
}

// SimulatedLine is the dry-run outcome for one order line.
type SimulatedLine struct {
	ProductID id.ID      `json:"productId"`
	Quantity  int        `json:"quantity"`
	Status    LineStatus `json:"status"`

	// Availability is the per-ingredient feasibility detail; empty for
	// skipped lines
	Availability availability.Result `json:"availability"`
}

// SimulationResult previews an order without writing anything.
type SimulationResult struct {
	OrderID string `json:"orderId"`

	Lines []SimulatedLine `json:"lines"`

	// Feasible is true iff no simulated line failed
	Feasible bool `json:"feasible"`

	// ProjectedRemaining holds the per-ingredient totals that would remain
	// after committing every feasible line
	ProjectedRemaining map[id.ID]types.Quantity `json:"projectedRemaining"`
}

// RevertFailure records one compensating movement that could not be applied.
type RevertFailure struct {
	MovementLineID id.ID              `json:"movementLineId"`
	BatchID        id.ID              `json:"batchId"`
	Error          *apperror.AppError `json:"error"`
}

// RevertResult is the outcome of reverting an order's deductions.
// Reverting an order with no prior deductions is a no-op success.
type RevertResult struct {
	OrderID string `json:"orderId"`

	// MovementsReverted counts compensating in movements created
	MovementsReverted int `json:"movementsReverted"`

	// AlreadyReverted counts out movements skipped because a prior revert
	// already compensated them (idempotency)
	AlreadyReverted int `json:"alreadyReverted"`

	Failures []RevertFailure `json:"failures,omitempty"`
}
