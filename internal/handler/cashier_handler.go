package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CashierHandler struct {
	cashierService service.CashierService
}

// NewCashierHandler sets up the routing dependencies for staff endpoints
func NewCashierHandler(cashierService service.CashierService) *CashierHandler {
	return &CashierHandler{cashierService: cashierService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CashierHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	// Me route (authenticated — any valid token)
	router.GET("/me", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.GetMe)

	// Protected staff routes
	cashiers := router.Group("/cashiers")
	cashiers.Use(middleware.RequireRole(model.RoleAdmin))
	{
		cashiers.GET("", h.ListCashiers)
		cashiers.GET("/:id", h.GetCashierByID)
		cashiers.POST("", h.CreateCashier)
		cashiers.PUT("/:id", h.UpdateCashier)
		cashiers.DELETE("/:id", h.DeleteCashier)
	}
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login
// @Description  Authenticates a staff member by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *CashierHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.cashierService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	// Set token as HttpOnly cookies
	middleware.SetTokenCookies(c, tokenRes.Token, tokenRes.Token)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout handles POST /logout to clear auth cookies
func (h *CashierHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// GetMe handles GET /me to return the current authenticated staff member
// @Summary      Get current staff member
// @Description  Get the currently authenticated staff member
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.CashierResponse}
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /me [get]
func (h *CashierHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	idStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid User ID format"))
		return
	}

	cashier, err := h.cashierService.GetCashierByID(c.Request.Context(), idStr)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Cashier not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cashier))
}

// CreateCashier handles POST /cashiers
// @Summary      Create a staff account
// @Description  Creates a staff account validating constraints and hashing the password
// @Tags         cashiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCashierRequest  true  "Create Cashier Payload"
// @Success      201      {object}  response.Response{data=service.CashierResponse}
// @Failure      400      {object}  response.Response
// @Router       /cashiers [post]
func (h *CashierHandler) CreateCashier(c *gin.Context) {
	var req service.CreateCashierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cashier, err := h.cashierService.CreateCashier(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, cashier))
}

// ListCashiers handles GET /cashiers with pagination controls
// @Summary      List staff accounts
// @Description  Retrieves a paginated list of staff accounts
// @Tags         cashiers
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /cashiers [get]
func (h *CashierHandler) ListCashiers(c *gin.Context) {
	params := pagination.Parse(c)

	cashiers, total, err := h.cashierService.ListCashiers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch cashiers"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"cashiers": cashiers,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetCashierByID handles GET /cashiers/:id
// @Summary      Get staff account by ID
// @Description  Fetch a single staff account by UUID
// @Tags         cashiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cashier ID"
// @Success      200  {object}  response.Response{data=service.CashierResponse}
// @Failure      404  {object}  response.Response
// @Router       /cashiers/{id} [get]
func (h *CashierHandler) GetCashierByID(c *gin.Context) {
	id := c.Param("id")

	cashier, err := h.cashierService.GetCashierByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cashier))
}

// UpdateCashier handles PUT /cashiers/:id
// @Summary      Update staff account
// @Description  Updates a staff account's details excluding password
// @Tags         cashiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Cashier ID"
// @Param        payload  body      service.UpdateCashierRequest  true  "Update Cashier Payload"
// @Success      200      {object}  response.Response{data=service.CashierResponse}
// @Failure      400      {object}  response.Response
// @Router       /cashiers/{id} [put]
func (h *CashierHandler) UpdateCashier(c *gin.Context) {
	id := c.Param("id")
	var req service.UpdateCashierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cashier, err := h.cashierService.UpdateCashier(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cashier))
}

// DeleteCashier handles DELETE /cashiers/:id
// @Summary      Delete staff account
// @Description  Soft deletes a staff account by ID
// @Tags         cashiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cashier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /cashiers/{id} [delete]
func (h *CashierHandler) DeleteCashier(c *gin.Context) {
	id := c.Param("id")

	err := h.cashierService.DeleteCashier(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Cashier deleted successfully"))
}
