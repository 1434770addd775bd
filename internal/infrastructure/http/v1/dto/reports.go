package dto

import (
	"time"

	"larder/internal/core/id"
	"larder/internal/domain/reports"
)

// ConsumptionReportQuery holds query parameters for the consumption report.
type ConsumptionReportQuery struct {
	FromDate      time.Time `form:"fromDate" time_format:"2006-01-02" binding:"required"`
	ToDate        time.Time `form:"toDate" time_format:"2006-01-02" binding:"required"`
	GroupBy       string    `form:"groupBy"`
	IngredientIDs []string  `form:"ingredientIds"`
	Limit         int       `form:"limit"`
	Offset        int       `form:"offset"`
}

// ToFilter converts query parameters to the domain filter.
// Unparseable ingredient ids are dropped rather than failing the report.
func (q *ConsumptionReportQuery) ToFilter() reports.ConsumptionReportFilter {
	filter := reports.ConsumptionReportFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		GroupBy:  reports.GroupBy(q.GroupBy),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	for _, raw := range q.IngredientIDs {
		if parsed, err := id.Parse(raw); err == nil {
			filter.IngredientIDs = append(filter.IngredientIDs, parsed)
		}
	}
	return filter
}
