// Package handler holds the thin HTTP layer. Handlers bind, delegate to
// services, and translate errors; business rules stay in internal/service.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/serviconli/citas-api/pkg/errors"
)

// Handler carries the cross-cutting endpoints (health, metrics).
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"time":   time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now(),
	})
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}

// RespondError maps application error codes to HTTP statuses. Invalid
// lifecycle transitions come back as 409 so clients can tell a business
// rejection from a malformed request.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrNotFound:
			status = http.StatusNotFound
		case apperrors.ErrBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrInvalidTransition:
			status = http.StatusConflict
		}
	}
	c.JSON(status, gin.H{"status": "error", "message": err.Error()})
}
