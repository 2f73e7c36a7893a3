package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trendscout/uts-engine/internal/domain"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMetric),
		errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrVideoInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the uniform error body: a machine-readable kind plus
// a human-readable message.
func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error_kind": domain.ErrorKind(err),
		"error":      err.Error(),
	})
}
