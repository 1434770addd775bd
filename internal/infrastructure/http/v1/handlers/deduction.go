package handlers

import (
	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain/deduction"
	"larder/internal/infrastructure/http/v1/dto"
)

// DeductionHandler provides HTTP handlers for order-driven stock deduction.
type DeductionHandler struct {
	*BaseHandler
	service *deduction.Service
}

// NewDeductionHandler creates a new deduction handler.
func NewDeductionHandler(base *BaseHandler, service *deduction.Service) *DeductionHandler {
	return &DeductionHandler{BaseHandler: base, service: service}
}

// ProcessOrder handles POST /orders/process.
// Lines fail independently: the response reports processed, skipped and
// failed lines side by side with HTTP 200.
func (h *DeductionHandler) ProcessOrder(c *gin.Context) {
	var req dto.ProcessOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, ok := h.parseLines(c, req.Lines)
	if !ok {
		return
	}

	result, err := h.service.ProcessOrder(c.Request.Context(), req.OrderID, lines, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Simulate handles POST /orders/simulate - dry-run feasibility preview.
func (h *DeductionHandler) Simulate(c *gin.Context) {
	var req dto.SimulateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, ok := h.parseLines(c, req.Lines)
	if !ok {
		return
	}

	result, err := h.service.Simulate(c.Request.Context(), req.OrderID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Revert handles POST /orders/:orderId/revert - compensate an order's
// deductions. Idempotent: a second revert reports already-reverted lines.
func (h *DeductionHandler) Revert(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		h.Error(c, apperror.NewValidation("order id is required"))
		return
	}

	var req dto.RevertOrderRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Revert(c.Request.Context(), orderID, req.Reason, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// CheckAvailability handles POST /recipes/:id/check-availability.
func (h *DeductionHandler) CheckAvailability(c *gin.Context) {
	recipeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid recipe id format"))
		return
	}

	var req dto.CheckAvailabilityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CheckRecipeAvailability(c.Request.Context(), recipeID, req.Servings)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

func (h *DeductionHandler) parseLines(c *gin.Context, in []dto.OrderLineRequest) ([]deduction.OrderLine, bool) {
	lines := make([]deduction.OrderLine, 0, len(in))
	for _, l := range in {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id format").
				WithDetail("product_id", l.ProductID))
			return nil, false
		}
		lines = append(lines, deduction.OrderLine{
			ProductID: productID,
			Quantity:  l.Quantity,
		})
	}
	return lines, true
}
