package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
)

// writeError maps a domain error onto an HTTP status. Unknown errors
// surface as 500 with a generic body; the cause stays in the log.
func writeError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"kind":    apperror.KindInternal,
			"message": "internal server error",
		}})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindInvalidInput, apperror.KindInvalidFilter, apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindNotAllowed, apperror.KindInvalidInviteCode:
		status = http.StatusForbidden
	}

	c.JSON(status, gin.H{"error": appErr})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
