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

type EGiftHandler struct {
	egiftService service.EGiftService
}

func NewEGiftHandler(egiftService service.EGiftService) *EGiftHandler {
	return &EGiftHandler{egiftService: egiftService}
}

func (h *EGiftHandler) RegisterRoutes(router *gin.RouterGroup) {
	egifts := router.Group("/api/egifts")
	{
		egifts.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.Issue)
		egifts.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.List)
		egifts.POST("/redeem", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.Redeem)
	}
}

// Issue creates a new e-gift voucher
// @Summary      Issue e-gift
// @Description  Issues a new e-gift with a generated code, balance, region restrictions and expiry
// @Tags         egifts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueEGiftRequest  true  "Issue E-Gift Payload"
// @Success      201      {object}  response.Response{data=service.EGiftResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/egifts [post]
func (h *EGiftHandler) Issue(c *gin.Context) {
	var req service.IssueEGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	gift, err := h.egiftService.Issue(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gift))
}

// Redeem applies an e-gift against an order total
// @Summary      Redeem e-gift
// @Description  Validates and redeems an e-gift, applying its balance against an order total
// @Tags         egifts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RedeemEGiftRequest  true  "Redeem E-Gift Payload"
// @Success      200      {object}  response.Response{data=service.RedeemEGiftResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/egifts/redeem [post]
func (h *EGiftHandler) Redeem(c *gin.Context) {
	var req service.RedeemEGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.egiftService.Redeem(c.Request.Context(), req, nil)
	if err != nil {
		status, code := egiftErrorStatus(err)
		c.JSON(status, response.ErrorWithCode(status, code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// List retrieves issued e-gifts
// @Summary      List e-gifts
// @Description  Retrieves a paginated list of issued e-gifts
// @Tags         egifts
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/egifts [get]
func (h *EGiftHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	gifts, total, err := h.egiftService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve e-gifts: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"egifts": gifts,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

func egiftErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEGiftAlreadyRedeemed):
		return http.StatusConflict, "EGIFT_ALREADY_REDEEMED"
	case errors.Is(err, service.ErrEGiftExpired):
		return http.StatusUnprocessableEntity, "EGIFT_EXPIRED"
	case errors.Is(err, service.ErrEGiftRegionNotAllowed):
		return http.StatusUnprocessableEntity, "EGIFT_REGION_NOT_ALLOWED"
	case errors.Is(err, service.ErrEGiftNonTransferable):
		return http.StatusUnprocessableEntity, "EGIFT_NON_TRANSFERABLE"
	case errors.Is(err, service.ErrEGiftCurrencyMismatch):
		return http.StatusUnprocessableEntity, "EGIFT_CURRENCY_MISMATCH"
	default:
		return http.StatusBadRequest, "EGIFT_INVALID"
	}
}
