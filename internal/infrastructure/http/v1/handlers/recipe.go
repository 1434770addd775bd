package handlers

import (
	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/infrastructure/http/v1/dto"
	"larder/internal/infrastructure/storage/postgres"
)

// RecipeHandler provides HTTP handlers for the recipe catalog.
type RecipeHandler struct {
	*BaseHandler
	service *recipe.Service
	audit   *postgres.AuditService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipe.Service, audit *postgres.AuditService) *RecipeHandler {
	return &RecipeHandler{BaseHandler: base, service: service, audit: audit}
}

// List handles GET /recipes.
func (h *RecipeHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
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
		items[i] = dto.FromRecipe(item)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /recipes/:id.
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecipe(rec))
}

// GetByProduct handles GET /recipes/by-product/:productId.
func (h *RecipeHandler) GetByProduct(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id format"))
		return
	}

	resolved, err := h.service.Resolve(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecipe(resolved.Recipe))
}

// Create handles POST /recipes.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "recipe", rec.ID, postgres.AuditActionCreate, map[string]any{
		"product_id":   rec.ProductID,
		"name":         rec.Name,
		"serving_size": rec.ServingSize,
		"lines":        len(rec.Lines),
	})

	c.JSON(201, dto.FromRecipe(rec))
}

// Update handles PUT /recipes/:id.
func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), recipeID)
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

	h.Audit(c, h.audit, "recipe", recipeID, postgres.AuditActionUpdate,
		postgres.Diff(before, postgres.StructToMap(existing)))

	h.OK(c, dto.FromRecipe(existing))
}

// Deactivate handles POST /recipes/:id/deactivate.
func (h *RecipeHandler) Deactivate(c *gin.Context) {
	recipeID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), recipeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, h.audit, "recipe", recipeID, postgres.AuditActionUpdate, map[string]any{
		"active": map[string]any{"old": true, "new": false},
	})

	h.Success(c, "recipe deactivated")
}
