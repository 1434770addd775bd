package reports

import (
	"context"
	"time"
)

// Repository defines data access for report generation.
type Repository interface {
	// GetConsumptionReport aggregates out/waste movements over a period,
	// grouped by ingredient or category
	GetConsumptionReport(ctx context.Context, filter ConsumptionReportFilter) (*ConsumptionReport, error)

	// GetExpiryReport lists consumable batches expiring before the given
	// date with the stock value at risk
	GetExpiryReport(ctx context.Context, before time.Time) ([]ExpiryReportItem, error)
}
