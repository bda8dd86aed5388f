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

type PosHandler struct {
	pricingService  service.PricingService
	checkoutService service.CheckoutService
}

func NewPosHandler(pricingService service.PricingService, checkoutService service.CheckoutService) *PosHandler {
	return &PosHandler{
		pricingService:  pricingService,
		checkoutService: checkoutService,
	}
}

func (h *PosHandler) RegisterRoutes(router *gin.RouterGroup) {
	pos := router.Group("/api")
	pos.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier))
	{
		pos.POST("/quotes", h.Quote)
		pos.POST("/checkout", h.Checkout)
		pos.GET("/transactions", h.ListTransactions)
		pos.GET("/transactions/:id", h.GetTransaction)
	}
}

// Quote prices a basket without settling anything
// @Summary      Price a basket
// @Description  Resolves the region and prices each line, reporting rejected lines without failing the basket
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.QuoteRequest  true  "Quote Payload"
// @Success      200      {object}  response.Response{data=service.QuoteResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/quotes [post]
func (h *PosHandler) Quote(c *gin.Context) {
	var req service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "UNKNOWN_REGION", err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// Checkout settles a live sale end to end
// @Summary      Checkout
// @Description  Prices the basket, applies an optional e-gift, captures payment, accrues loyalty points, and settles the transaction
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CheckoutRequest  true  "Checkout Payload"
// @Success      201      {object}  response.Response{data=service.CheckoutResponse}
// @Failure      400      {object}  response.Response
// @Failure      402      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/checkout [post]
func (h *PosHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.checkoutService.Checkout(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		status, code := checkoutErrorStatus(err)
		c.JSON(status, response.ErrorWithCode(status, code, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListTransactions retrieves settled transactions, optionally scoped to a store
// @Summary      List transactions
// @Description  Retrieves a paginated list of settled transactions
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  false  "Filter by store"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/transactions [get]
func (h *PosHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)
	storeID := c.Query("store_id")

	txs, total, err := h.checkoutService.ListTransactions(c.Request.Context(), storeID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve transactions: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

// GetTransaction fetches one settled transaction by ID
// @Summary      Get transaction
// @Description  Fetch one settled transaction with its lines
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/transactions/{id} [get]
func (h *PosHandler) GetTransaction(c *gin.Context) {
	tx, err := h.checkoutService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tx))
}

func checkoutErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		return http.StatusBadRequest, "EMPTY_ORDER"
	case errors.Is(err, service.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "PAYMENT_DECLINED"
	case errors.Is(err, service.ErrDuplicateCheckout):
		return http.StatusConflict, "DUPLICATE_TRANSACTION"
	case errors.Is(err, service.ErrEGiftAlreadyRedeemed):
		return http.StatusConflict, "EGIFT_ALREADY_REDEEMED"
	case errors.Is(err, service.ErrEGiftExpired):
		return http.StatusUnprocessableEntity, "EGIFT_EXPIRED"
	case errors.Is(err, service.ErrEGiftRegionNotAllowed):
		return http.StatusUnprocessableEntity, "EGIFT_REGION_NOT_ALLOWED"
	case errors.Is(err, service.ErrEGiftNonTransferable):
		return http.StatusUnprocessableEntity, "EGIFT_NON_TRANSFERABLE"
	default:
		return http.StatusBadRequest, "CHECKOUT_FAILED"
	}
}
