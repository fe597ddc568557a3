package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/apperrors"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError renders a domain error with its own status and code.
// Anything that is not an *apperrors.AppError falls back to a 500.
func RespondAppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, JSONResponse{
			Status:  false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}
	RespondError(c, http.StatusInternalServerError, err)
}
