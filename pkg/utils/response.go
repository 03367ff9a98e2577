package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "gps-tracker/pkg/errors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// HandleError maps service errors to HTTP responses. AppError kinds carry
// their own status; anything else is a 500 with the internals masked.
func HandleError(c *gin.Context, err error) {
	if appErr, ok := appErrors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus(), APIResponse{
			Success: false,
			Error:   appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, APIResponse{
		Success: false,
		Error:   "Internal server error",
	})
}
