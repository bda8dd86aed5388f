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

type RoyaltyHandler struct {
	royaltyService service.RoyaltyService
}

func NewRoyaltyHandler(royaltyService service.RoyaltyService) *RoyaltyHandler {
	return &RoyaltyHandler{royaltyService: royaltyService}
}

func (h *RoyaltyHandler) RegisterRoutes(router *gin.RouterGroup) {
	franchises := router.Group("/api/franchises")
	franchises.Use(middleware.RequireRole(model.RoleAdmin))
	{
		franchises.POST("", h.CreateFranchise)
		franchises.GET("", h.ListFranchises)
		franchises.POST("/:id/royalties/:period", h.RunPeriod)
		franchises.GET("/:id/royalties", h.ListCalculations)
	}
}

// CreateFranchise registers a franchise for royalty billing
// @Summary      Create franchise
// @Description  Registers a franchise with its fee percentages for monthly royalty runs
// @Tags         royalties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateFranchiseRequest  true  "Create Franchise Payload"
// @Success      201      {object}  response.Response{data=service.FranchiseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/franchises [post]
func (h *RoyaltyHandler) CreateFranchise(c *gin.Context) {
	var req service.CreateFranchiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	franchise, err := h.royaltyService.CreateFranchise(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, franchise))
}

// ListFranchises retrieves registered franchises
// @Summary      List franchises
// @Description  Retrieves a paginated list of registered franchises
// @Tags         royalties
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/franchises [get]
func (h *RoyaltyHandler) ListFranchises(c *gin.Context) {
	params := pagination.Parse(c)

	franchises, total, err := h.royaltyService.ListFranchises(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"franchises": franchises,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}

// RunPeriod settles one royalty period for a franchise
// @Summary      Run royalty period
// @Description  Computes fees over the franchise's settled revenue for one YYYY-MM period; re-runs return the stored result
// @Tags         royalties
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Franchise ID"
// @Param        period  path      string  true  "Billing period (YYYY-MM)"
// @Success      200     {object}  response.Response{data=service.RoyaltyCalculationResponse}
// @Failure      400     {object}  response.Response
// @Failure      422     {object}  response.Response
// @Router       /api/franchises/{id}/royalties/{period} [post]
func (h *RoyaltyHandler) RunPeriod(c *gin.Context) {
	calc, err := h.royaltyService.RunPeriod(c.Request.Context(), c.Param("id"), c.Param("period"), c.GetString("userID"))
	if err != nil {
		if errors.Is(err, service.ErrNegativeRevenue) {
			c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "NEGATIVE_REVENUE", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, calc))
}

// ListCalculations retrieves a franchise's royalty history
// @Summary      List royalty calculations
// @Description  Retrieves a paginated royalty run history for one franchise
// @Tags         royalties
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Franchise ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/franchises/{id}/royalties [get]
func (h *RoyaltyHandler) ListCalculations(c *gin.Context) {
	params := pagination.Parse(c)

	calcs, total, err := h.royaltyService.ListCalculations(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"calculations": calcs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}
