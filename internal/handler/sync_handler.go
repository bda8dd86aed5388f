package handler

import (
	"errors"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	offlineService  service.OfflineService
	checkoutService service.CheckoutService
}

func NewSyncHandler(offlineService service.OfflineService, checkoutService service.CheckoutService) *SyncHandler {
	return &SyncHandler{
		offlineService:  offlineService,
		checkoutService: checkoutService,
	}
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	offline := router.Group("/api/offline")
	offline.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier))
	{
		offline.GET("/eligibility", h.Eligibility)
		offline.POST("/transactions", h.Capture)
		offline.POST("/sync/:deviceId", h.SyncDevice)
		offline.GET("/failed", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListFailed)
	}

	// Registers that bypass the server-side buffer push their snapshots here.
	router.POST("/api/sync", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCashier), h.Ingest)
}

// Eligibility reports whether a device may keep operating offline
// @Summary      Offline eligibility
// @Description  Checks whether a device is still inside the offline window and buffer limits
// @Tags         offline
// @Security     BearerAuth
// @Produce      json
// @Param        device_id       query     string  true  "Device ID"
// @Param        last_online_at  query     string  true  "Last successful sync time (RFC3339)"
// @Success      200             {object}  response.Response{data=service.EligibilityResponse}
// @Failure      400             {object}  response.Response
// @Router       /api/offline/eligibility [get]
func (h *SyncHandler) Eligibility(c *gin.Context) {
	deviceID := c.Query("device_id")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "device_id is required"))
		return
	}

	lastOnlineAt, err := time.Parse(time.RFC3339, c.Query("last_online_at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "last_online_at must be RFC3339: "+err.Error()))
		return
	}

	eligibility, err := h.offlineService.Eligibility(c.Request.Context(), deviceID, lastOnlineAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, eligibility))
}

// Capture buffers one offline transaction
// @Summary      Capture offline transaction
// @Description  Buffers a transaction taken without connectivity; idempotent by client-generated id
// @Tags         offline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.OfflineCaptureRequest  true  "Offline Capture Payload"
// @Success      201      {object}  response.Response{data=service.OfflineTxResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/offline/transactions [post]
func (h *SyncHandler) Capture(c *gin.Context) {
	var req service.OfflineCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	buffered, err := h.offlineService.Capture(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrOfflineLimitExceeded) {
			c.JSON(http.StatusUnprocessableEntity, response.ErrorWithCode(http.StatusUnprocessableEntity, "OFFLINE_LIMIT_EXCEEDED", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, buffered))
}

// SyncDevice drains a device's offline buffer
// @Summary      Sync device buffer
// @Description  Replays a device's buffered transactions in capture order; one drain per device at a time
// @Tags         offline
// @Security     BearerAuth
// @Produce      json
// @Param        deviceId  path      string  true  "Device ID"
// @Success      200       {object}  response.Response{data=service.SyncReport}
// @Failure      409       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/offline/sync/{deviceId} [post]
func (h *SyncHandler) SyncDevice(c *gin.Context) {
	deviceID := c.Param("deviceId")

	report, err := h.offlineService.SyncDevice(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			c.JSON(http.StatusConflict, response.ErrorWithCode(http.StatusConflict, "SYNC_IN_PROGRESS", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ListFailed retrieves buffered transactions that exhausted their retries
// @Summary      List failed syncs
// @Description  Retrieves buffered transactions that failed all sync attempts and need manual resolution
// @Tags         offline
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  false  "Filter by store"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/offline/failed [get]
func (h *SyncHandler) ListFailed(c *gin.Context) {
	params := pagination.Parse(c)

	failed, total, err := h.offlineService.ListFailed(c.Request.Context(), c.Query("store_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"failed": failed,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// Ingest settles a batch of snapshots pushed directly by a register
// @Summary      Ingest sync batch
// @Description  Settles a batch of transaction snapshots, acknowledging duplicates without re-applying them
// @Tags         offline
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SyncIngestRequest  true  "Sync Batch Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/sync [post]
func (h *SyncHandler) Ingest(c *gin.Context) {
	var req service.SyncIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	results, err := h.checkoutService.Ingest(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"results": results,
	}))
}
