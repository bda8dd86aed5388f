package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RiskHandler struct {
	riskService service.RiskService
}

func NewRiskHandler(riskService service.RiskService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

func (h *RiskHandler) RegisterRoutes(router *gin.RouterGroup) {
	risk := router.Group("/api/risk")
	risk.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		risk.POST("/assessments", h.Assess)
		risk.GET("/assessments", h.ListAssessments)
	}
}

// Assess scores one shift's telemetry for theft patterns
// @Summary      Assess shift risk
// @Description  Scores a shift's scale and till telemetry, flagging weight discrepancies, void abuse and free-product abuse
// @Tags         risk
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RiskAnalysisRequest  true  "Shift Telemetry Payload"
// @Success      201      {object}  response.Response{data=service.RiskAssessmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/risk/assessments [post]
func (h *RiskHandler) Assess(c *gin.Context) {
	var req service.RiskAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	assessment, err := h.riskService.Assess(c.Request.Context(), req, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, assessment))
}

// ListAssessments retrieves stored risk assessments
// @Summary      List risk assessments
// @Description  Retrieves a paginated list of stored shift risk assessments
// @Tags         risk
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  false  "Filter by store"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/risk/assessments [get]
func (h *RiskHandler) ListAssessments(c *gin.Context) {
	params := pagination.Parse(c)

	assessments, total, err := h.riskService.ListAssessments(c.Request.Context(), c.Query("store_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"assessments": assessments,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}
