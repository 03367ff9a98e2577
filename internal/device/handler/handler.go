package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gps-tracker/internal/device/model"
	"gps-tracker/internal/device/service"
	"gps-tracker/pkg/utils"
)

type DeviceHandler struct {
	service *service.DeviceService
}

func NewHandler(service *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)
		devices.GET("/:id", h.GetDevice)
		devices.PATCH("/:id", h.UpdateDevice)
		devices.GET("/:id/config", h.GetConfig)
		devices.GET("/:id/status", h.GetStatus)
		devices.GET("/:id/locations", h.LocationHistory)
		devices.GET("/:id/status-history", h.StatusHistory)
	}
	router.GET("/device/:deviceId/exists", h.Exists)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.service.ListDevices(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved", devices)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	device, err := h.service.GetDevice(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Device retrieved", device)
}

func (h *DeviceHandler) Exists(c *gin.Context) {
	exists, err := h.service.Exists(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := h.service.UpdateDevice(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Device updated", device)
}

func (h *DeviceHandler) GetConfig(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cfg, err := h.service.GetConfig(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Device config retrieved", cfg)
}

func (h *DeviceHandler) GetStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Device status retrieved", status)
}

func (h *DeviceHandler) LocationHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	locations, err := h.service.LocationHistory(c.Request.Context(), id, queryLimit(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Location history retrieved", locations)
}

func (h *DeviceHandler) StatusHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	history, err := h.service.StatusHistory(c.Request.Context(), id, queryLimit(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Status history retrieved", history)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
