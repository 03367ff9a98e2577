package ingestion

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	cmdmodel "gps-tracker/internal/command/model"
	devicemodel "gps-tracker/internal/device/model"
	"gps-tracker/internal/logger"
	appErrors "gps-tracker/pkg/errors"
	"gps-tracker/pkg/utils"
)

// Delay handed to an unregistered device before it reboots. The location
// path waits longer so an in-flight GPS upload can finish.
const (
	rebootDelayLocation  = 10 * time.Second
	rebootDelayHeartbeat = 5 * time.Second
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	device := router.Group("/device")
	{
		device.POST("/register", h.Register)
		device.POST("/:deviceId/location", h.ReportLocation)
		device.POST("/:deviceId/heartbeat", h.Heartbeat)
		device.POST("/:deviceId/commands/:commandId/ack", h.AckCommand)
	}
}

// Register handles POST /api/device/register.
func (h *Handler) Register(c *gin.Context) {
	var req devicemodel.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device data")
		return
	}

	device, created, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Device registered"
	if !created {
		status = http.StatusOK
		message = "Device registration refreshed"
	}
	utils.SuccessResponse(c, status, message, device)
}

// ReportLocation handles POST /api/device/:deviceId/location. An unknown
// device gets a 200 with a synthetic reboot command instead of a 404 so the
// firmware can recover by re-registering.
func (h *Handler) ReportLocation(c *gin.Context) {
	deviceID := c.Param("deviceId")

	device, err := h.service.devices.GetByDeviceID(c.Request.Context(), deviceID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			logger.Warn("Unregistered device attempted location update",
				zap.String("device_id", deviceID),
			)
			c.JSON(http.StatusOK, NewRebootEnvelope(
				"Device not found in database. Location not saved. Please reboot to re-register.",
				rebootDelayLocation,
			))
			return
		}
		utils.HandleError(c, err)
		return
	}

	var report LocationReport
	if err := c.ShouldBindJSON(&report); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid location data")
		return
	}

	location, err := h.service.ReportLocation(c.Request.Context(), device, &report)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Location stored", location)
}

// Heartbeat handles POST /api/device/:deviceId/heartbeat.
func (h *Handler) Heartbeat(c *gin.Context) {
	deviceID := c.Param("deviceId")

	device, err := h.service.devices.GetByDeviceID(c.Request.Context(), deviceID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			logger.Warn("Unregistered device sent heartbeat",
				zap.String("device_id", deviceID),
			)
			c.JSON(http.StatusOK, NewRebootEnvelope(
				"Device not found in database. Please reboot to re-register.",
				rebootDelayHeartbeat,
			))
			return
		}
		utils.HandleError(c, err)
		return
	}

	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid heartbeat data")
		return
	}

	resp, err := h.service.Heartbeat(c.Request.Context(), device, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	// The firmware parses this envelope directly, so it bypasses the
	// dashboard response wrapper.
	c.JSON(http.StatusOK, resp)
}

// AckCommand handles POST /api/device/:deviceId/commands/:commandId/ack.
func (h *Handler) AckCommand(c *gin.Context) {
	commandID, err := uuid.Parse(c.Param("commandId"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid command ID")
		return
	}

	var req cmdmodel.AckCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid acknowledgment data")
		return
	}

	if _, err := h.service.AckCommand(c.Request.Context(), commandID, cmdmodel.CommandStatus(req.Status)); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
