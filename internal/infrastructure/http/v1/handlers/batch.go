package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/domain/ledger"
	"larder/internal/infrastructure/http/v1/dto"
	"larder/internal/infrastructure/storage/postgres"
)

// BatchHandler provides HTTP handlers for the batch ledger.
type BatchHandler struct {
	*BaseHandler
	service *ledger.Service
	audit   *postgres.AuditService
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *ledger.Service, audit *postgres.AuditService) *BatchHandler {
	return &BatchHandler{BaseHandler: base, service: service, audit: audit}
}

// Create handles POST /batches - record a stock receipt.
func (h *BatchHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ingredientID, err := id.Parse(req.IngredientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id format"))
		return
	}

	in := ledger.CreateBatchInput{
		IngredientID:      ingredientID,
		BatchNumber:       req.BatchNumber,
		Quantity:          req.Quantity,
		UnitCost:          req.UnitCost,
		ManufacturingDate: req.ManufacturingDate,
		ExpirationDate:    req.ExpirationDate,
		StorageLocation:   req.StorageLocation,
		Actor:             h.GetUserID(c),
	}
	if req.ReceivedDate != nil {
		in.ReceivedDate = *req.ReceivedDate
	}

	b, err := h.service.CreateBatch(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "batch", b.ID, postgres.AuditActionCreate, map[string]any{
		"ingredient_id": b.IngredientID,
		"batch_number":  b.BatchNumber,
		"quantity":      b.OriginalQuantity,
		"unit_cost":     b.UnitCost,
	})

	c.JSON(201, dto.FromBatch(b))
}

// Get handles GET /batches/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// ListAvailable handles GET /ingredients/:id/batches - consumable batches
// in FIFO order.
func (h *BatchHandler) ListAvailable(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id format"))
		return
	}

	batches, err := h.service.ListAvailableBatches(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatches(batches))
}

// Adjust handles POST /batches/:id/adjust - manual quantity correction.
func (h *BatchHandler) Adjust(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AdjustBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.AdjustBatch(c.Request.Context(), batchID, req.Delta, req.Reason, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "batch", batchID, postgres.AuditActionAdjust, map[string]any{
		"delta":            req.Delta,
		"reason":           req.Reason,
		"movement_line_id": m.LineID,
	})

	h.OK(c, dto.FromMovement(m))
}

// Dispose handles POST /batches/:id/dispose - terminal write-off.
func (h *BatchHandler) Dispose(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.DisposeBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.DisposeBatch(c.Request.Context(), batchID, req.Reason, h.GetUserID(c)); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "batch", batchID, postgres.AuditActionDispose, map[string]any{
		"reason": req.Reason,
	})

	h.Success(c, "batch disposed")
}

// Expire handles POST /batches/expire - administrative expiry of overdue
// active batches.
func (h *BatchHandler) Expire(c *gin.Context) {
	var req dto.ExpireBatchesRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	count, err := h.service.ExpireBatches(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ExpireBatchesResponse{ExpiredCount: count})
}

// AuditHistory handles GET /batches/:id/audit - who changed the batch and
// how, newest first.
func (h *BatchHandler) AuditHistory(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if h.audit == nil {
		h.OK(c, []postgres.AuditEntry{})
		return
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), "batch", batchID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

// StockSummary handles GET /stock/summary.
func (h *BatchHandler) StockSummary(c *gin.Context) {
	var ingredientID *id.ID
	if raw := c.Query("ingredientId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ingredient id format"))
			return
		}
		ingredientID = &parsed
	}

	rows, err := h.service.GetStockSummary(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rows)
}

// Expiring handles GET /stock/expiring?days=7.
func (h *BatchHandler) Expiring(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 7)

	batches, err := h.service.GetExpiringBatches(c.Request.Context(), days)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatches(batches))
}

// LowStock handles GET /stock/low.
func (h *BatchHandler) LowStock(c *gin.Context) {
	rows, err := h.service.GetLowStockIngredients(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rows)
}

// MovementHistory handles GET /ingredients/:id/movements.
func (h *BatchHandler) MovementHistory(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id format"))
		return
	}

	filter := ledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("batchId"); raw != "" {
		batchID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batch id format"))
			return
		}
		filter.BatchID = &batchID
	}

	if raw := c.Query("type"); raw != "" {
		mt := entity.MovementType(raw)
		filter.Type = &mt
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date (RFC3339 expected)"))
			return
		}
		filter.FromDate = &from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date (RFC3339 expected)"))
			return
		}
		filter.ToDate = &to
	}

	movements, err := h.service.MovementHistory(c.Request.Context(), ingredientID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovements(movements))
}
