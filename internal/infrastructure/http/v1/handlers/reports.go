package handlers

import (
	"github.com/gin-gonic/gin"

	"larder/internal/domain/reports"
	"larder/internal/infrastructure/http/v1/dto"
)

// ReportsHandler provides HTTP handlers for reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Consumption handles GET /reports/consumption.
func (h *ReportsHandler) Consumption(c *gin.Context) {
	var query dto.ConsumptionReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	report, err := h.service.GetConsumptionReport(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// Expiry handles GET /reports/expiry?days=7.
func (h *ReportsHandler) Expiry(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 7)

	items, err := h.service.GetExpiryReport(c.Request.Context(), days)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, items)
}
