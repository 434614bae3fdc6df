package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskplanner/internal/apperr"
)

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps an engine error kind onto an HTTP status. Internal
// details are never leaked to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

func ownerID(c *gin.Context) int {
	return c.GetInt("user_id")
}
