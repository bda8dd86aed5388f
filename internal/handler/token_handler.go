package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService service.TokenService
}

func NewTokenHandler(tokenService service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

func (h *TokenHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/api/tokens")
	tokens.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier))
	{
		tokens.POST("", h.Issue)
		tokens.POST("/validate", h.Validate)
	}
}

type issueTokenRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
}

// Issue mints a short-lived signed QR payload for a loyalty session
// @Summary      Issue QR token
// @Description  Issues a signed, short-lived QR token binding a customer to a register session
// @Tags         tokens
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      issueTokenRequest  true  "Issue Token Payload"
// @Success      201      {object}  response.Response{data=service.QrToken}
// @Failure      400      {object}  response.Response
// @Router       /api/tokens [post]
func (h *TokenHandler) Issue(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	token, err := h.tokenService.Issue(c.Request.Context(), req.CustomerID, req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, token))
}

// Validate checks a scanned QR token
// @Summary      Validate QR token
// @Description  Validates a scanned QR token's age, signature and single-use guarantee
// @Tags         tokens
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.QrToken  true  "Scanned Token"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tokens/validate [post]
func (h *TokenHandler) Validate(c *gin.Context) {
	var token service.QrToken
	if err := c.ShouldBindJSON(&token); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.tokenService.Validate(c.Request.Context(), token); err != nil {
		status, code := tokenErrorStatus(err)
		c.JSON(status, response.ErrorWithCode(status, code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"customer_id": token.CustomerID,
		"session_id":  token.SessionID,
		"valid":       true,
	}))
}

func tokenErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "TOKEN_EXPIRED"
	case errors.Is(err, service.ErrTokenFutureTimestamp):
		return http.StatusUnauthorized, "TOKEN_FUTURE_TIMESTAMP"
	case errors.Is(err, service.ErrTokenInvalidSignature):
		return http.StatusUnauthorized, "TOKEN_INVALID_SIGNATURE"
	case errors.Is(err, service.ErrTokenReplayed):
		return http.StatusConflict, "TOKEN_REPLAYED"
	default:
		return http.StatusBadRequest, "TOKEN_INVALID"
	}
}
