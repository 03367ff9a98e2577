package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gps-tracker/internal/geofence/model"
	"gps-tracker/internal/geofence/service"
	"gps-tracker/pkg/utils"
)

type GeofenceHandler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *GeofenceHandler {
	return &GeofenceHandler{service: service}
}

func (h *GeofenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices/:id")
	{
		devices.POST("/geofences", h.CreateGeofence)
		devices.GET("/geofences", h.ListGeofences)
		devices.POST("/sync-geofencing", h.SyncGeofencing)
		devices.GET("/alerts", h.ListAlerts)
		devices.GET("/alerts/unread-count", h.UnreadAlertCount)
	}
	geofences := router.Group("/geofences")
	{
		geofences.GET("/:geofenceId", h.GetGeofence)
		geofences.PATCH("/:geofenceId", h.UpdateGeofence)
		geofences.DELETE("/:geofenceId", h.DeleteGeofence)
	}
	router.POST("/alerts/:alertId/read", h.MarkAlertRead)
}

func (h *GeofenceHandler) CreateGeofence(c *gin.Context) {
	deviceID, ok := parseUUID(c, "id", "Invalid device ID")
	if !ok {
		return
	}

	var req model.CreateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	geofence, autoCmd, err := h.service.CreateGeofence(c.Request.Context(), deviceID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	data := gin.H{"geofence": geofence}
	if autoCmd != nil {
		data["monitoringCommand"] = autoCmd
	}
	utils.SuccessResponse(c, http.StatusCreated, "Geofence created", data)
}

func (h *GeofenceHandler) ListGeofences(c *gin.Context) {
	deviceID, ok := parseUUID(c, "id", "Invalid device ID")
	if !ok {
		return
	}

	geofences, err := h.service.ListGeofences(c.Request.Context(), deviceID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Geofences retrieved", geofences)
}

func (h *GeofenceHandler) GetGeofence(c *gin.Context) {
	id, ok := parseUUID(c, "geofenceId", "Invalid geofence ID")
	if !ok {
		return
	}

	geofence, err := h.service.GetGeofence(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Geofence retrieved", geofence)
}

func (h *GeofenceHandler) UpdateGeofence(c *gin.Context) {
	id, ok := parseUUID(c, "geofenceId", "Invalid geofence ID")
	if !ok {
		return
	}

	var req model.UpdateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	geofence, err := h.service.UpdateGeofence(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Geofence updated", geofence)
}

func (h *GeofenceHandler) DeleteGeofence(c *gin.Context) {
	id, ok := parseUUID(c, "geofenceId", "Invalid geofence ID")
	if !ok {
		return
	}

	autoCmd, err := h.service.DeleteGeofence(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	data := gin.H{}
	if autoCmd != nil {
		data["monitoringCommand"] = autoCmd
	}
	utils.SuccessResponse(c, http.StatusOK, "Geofence deleted", data)
}

// SyncGeofencing reconciles the device's monitoring state with its current
// geofence count, repairing a device that missed an enable or disable
// command.
func (h *GeofenceHandler) SyncGeofencing(c *gin.Context) {
	deviceID, ok := parseUUID(c, "id", "Invalid device ID")
	if !ok {
		return
	}

	enabled, count, cmd, err := h.service.Sync(c.Request.Context(), deviceID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	data := gin.H{
		"geofencingEnabled": enabled,
		"geofenceCount":     count,
	}
	if cmd != nil {
		data["command"] = cmd
	}
	utils.SuccessResponse(c, http.StatusOK, "Geofencing state synchronized", data)
}

func (h *GeofenceHandler) ListAlerts(c *gin.Context) {
	deviceID, ok := parseUUID(c, "id", "Invalid device ID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	alerts, err := h.service.ListAlerts(c.Request.Context(), deviceID, limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Alerts retrieved", alerts)
}

func (h *GeofenceHandler) UnreadAlertCount(c *gin.Context) {
	deviceID, ok := parseUUID(c, "id", "Invalid device ID")
	if !ok {
		return
	}

	count, err := h.service.UnreadAlertCount(c.Request.Context(), deviceID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (h *GeofenceHandler) MarkAlertRead(c *gin.Context) {
	alertID, ok := parseUUID(c, "alertId", "Invalid alert ID")
	if !ok {
		return
	}

	if err := h.service.MarkAlertRead(c.Request.Context(), alertID); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Alert marked as read", nil)
}

func parseUUID(c *gin.Context, param, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, message)
		return uuid.Nil, false
	}
	return id, true
}
