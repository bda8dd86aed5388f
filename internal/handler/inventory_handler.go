package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("/items", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.ListItems)
		inventory.GET("/alerts", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.Alerts)
		inventory.POST("/items", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateItem)
		inventory.POST("/items/:id/adjust", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.AdjustStock)
	}
}

// ListItems retrieves stock levels with derived alerts
// @Summary      List inventory items
// @Description  Retrieves a paginated list of stock items with their current alerts
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  false  "Filter by store"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), c.Query("store_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve inventory: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// Alerts retrieves the active stock alerts for a store
// @Summary      Stock alerts
// @Description  Retrieves low-stock and expiry alerts derived from current state
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) Alerts(c *gin.Context) {
	storeID := c.Query("store_id")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "store_id is required"))
		return
	}

	alerts, err := h.inventoryService.Alerts(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"alerts": alerts,
	}))
}

// CreateItem registers a flavor's stock at a store
// @Summary      Create inventory item
// @Description  Registers a stock item for one flavor at one store, recording opening stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// AdjustStock applies a manual IN/OUT movement to an item
// @Summary      Adjust stock
// @Description  Applies a manual stock movement, recording it in the append-only movement ledger
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Item ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Adjust Stock Payload"
// @Success      200      {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/inventory/items/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.AdjustStock(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientStock) {
			c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}
