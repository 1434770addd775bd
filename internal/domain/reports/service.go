package reports

import (
	"context"
	"time"

	"larder/internal/core/apperror"
)

// Service provides report generation.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetConsumptionReport returns aggregated consumption over a period.
func (s *Service) GetConsumptionReport(ctx context.Context, filter ConsumptionReportFilter) (*ConsumptionReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.ToDate.Before(filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not precede fromDate")
	}
	switch filter.GroupBy {
	case GroupByIngredient, GroupByCategory:
	case "":
		filter.GroupBy = GroupByIngredient
	default:
		return nil, apperror.NewValidation("groupBy must be ingredient or category").
			WithDetail("value", string(filter.GroupBy))
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	return s.repo.GetConsumptionReport(ctx, filter)
}

// GetExpiryReport lists batches expiring within daysAhead with value at risk.
func (s *Service) GetExpiryReport(ctx context.Context, daysAhead int) ([]ExpiryReportItem, error) {
	if daysAhead < 0 {
		return nil, apperror.NewValidation("daysAhead cannot be negative")
	}
	before := time.Now().UTC().AddDate(0, 0, daysAhead)
	return s.repo.GetExpiryReport(ctx, before)
}
