package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gps-tracker/internal/command/model"
	"gps-tracker/internal/command/service"
	"gps-tracker/pkg/utils"
)

type CommandHandler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *CommandHandler {
	return &CommandHandler{service: service}
}

func (h *CommandHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices/:id")
	{
		devices.POST("/commands", h.CreateCommand)
		devices.GET("/commands/pending", h.ListPending)
		devices.GET("/commands", h.ListHistory)
		devices.POST("/lost-mode", h.ToggleLostMode)
	}
	router.POST("/commands/:commandId/cancel", h.CancelCommand)
}

func (h *CommandHandler) CreateCommand(c *gin.Context) {
	deviceID, ok := parseDeviceID(c)
	if !ok {
		return
	}

	var req model.CreateCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd, err := h.service.Create(c.Request.Context(), deviceID, req.CommandType, req.Payload)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Command queued", cmd)
}

func (h *CommandHandler) ListPending(c *gin.Context) {
	deviceID, ok := parseDeviceID(c)
	if !ok {
		return
	}

	commands, err := h.service.ListPending(c.Request.Context(), deviceID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Pending commands retrieved", commands)
}

func (h *CommandHandler) ListHistory(c *gin.Context) {
	deviceID, ok := parseDeviceID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	commands, err := h.service.ListHistory(c.Request.Context(), deviceID, limit, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Command history retrieved", commands)
}

func (h *CommandHandler) CancelCommand(c *gin.Context) {
	commandID, err := uuid.Parse(c.Param("commandId"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid command ID")
		return
	}

	cmd, err := h.service.Cancel(c.Request.Context(), commandID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Command cancelled", cmd)
}

// ToggleLostMode handles the two-step protocol: a same-direction pending
// toggle is answered with 409 and the pending command's id so the dashboard
// can offer cancellation.
func (h *CommandHandler) ToggleLostMode(c *gin.Context) {
	deviceID, ok := parseDeviceID(c)
	if !ok {
		return
	}

	var req model.LostModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.LostMode == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "lostMode is required")
		return
	}

	cmd, err := h.service.ToggleLostMode(c.Request.Context(), deviceID, *req.LostMode)
	if err != nil {
		var conflict *service.LostModeConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{
				"success":   false,
				"error":     "A lost mode command is already pending for this device",
				"code":      "LOST_MODE_ALREADY_PENDING",
				"commandId": conflict.CommandID.String(),
				"canCancel": true,
			})
			return
		}
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Lost mode command queued", cmd)
}

func parseDeviceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device ID")
		return uuid.Nil, false
	}
	return id, true
}
