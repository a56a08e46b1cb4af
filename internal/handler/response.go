package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "focusroom/backend/internal/errors"
	"focusroom/backend/internal/model"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

// bindJSON decodes the request body into v and writes the error response
// itself when that fails.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, apperrors.InvalidJSON())
		return false
	}
	return true
}

func writeSnapshot(c *gin.Context, snapshot *model.ActiveTimerSnapshot, apiErr *apperrors.APIError) {
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}
