package handlers

import (
	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/infrastructure/http/v1/dto"
	"larder/internal/infrastructure/storage/postgres"
)

// IngredientHandler provides HTTP handlers for the ingredient catalog.
type IngredientHandler struct {
	*BaseHandler
	service *ingredient.Service
	audit   *postgres.AuditService
}

// NewIngredientHandler creates a new ingredient handler.
func NewIngredientHandler(base *BaseHandler, service *ingredient.Service, audit *postgres.AuditService) *IngredientHandler {
	return &IngredientHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /ingredients.
func (h *IngredientHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Category = c.Query("category")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeInactive = c.Query("includeInactive") == "true"

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromIngredient(item)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /ingredients/:id.
func (h *IngredientHandler) Get(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	ing, err := h.service.GetByID(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIngredient(ing))
}

// Create handles POST /ingredients.
func (h *IngredientHandler) Create(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), ing); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "ingredient", ing.ID, postgres.AuditActionCreate, postgres.StructToMap(ing))

	c.JSON(201, dto.FromIngredient(ing))
}

// Update handles PUT /ingredients/:id.
func (h *IngredientHandler) Update(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	before := postgres.StructToMap(existing)
	req.ApplyTo(existing)
	if err := h.service.Update(c.Request.Context(), existing); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "ingredient", ingredientID, postgres.AuditActionUpdate,
		postgres.Diff(before, postgres.StructToMap(existing)))

	h.OK(c, dto.FromIngredient(existing))
}

// Deactivate handles POST /ingredients/:id/deactivate.
func (h *IngredientHandler) Deactivate(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), ingredientID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "ingredient", ingredientID, postgres.AuditActionUpdate, map[string]any{
		"active": map[string]any{"old": true, "new": false},
	})

	h.Success(c, "ingredient deactivated")
}

// Reactivate handles POST /ingredients/:id/reactivate.
func (h *IngredientHandler) Reactivate(c *gin.Context) {
	ingredientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Reactivate(c.Request.Context(), ingredientID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "ingredient", ingredientID, postgres.AuditActionUpdate, map[string]any{
		"active": map[string]any{"old": false, "new": true},
	})

	h.Success(c, "ingredient reactivated")
}
