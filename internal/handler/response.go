package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/ai"
	"dispatch/internal/domain"
	"dispatch/internal/middleware"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrVehicleNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrQuoteExpired):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyTerminal),
		errors.Is(err, service.ErrVehicleBusy),
		errors.Is(err, service.ErrDuplicateVehicle):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotVehicleOwner):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoMatchingVehicle):
		return http.StatusServiceUnavailable

	case errors.Is(err, ai.ErrNoSuggestion):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// callerIdentity returns the caller identity or responds 401.
func callerIdentity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "caller identity required"})
		return domain.Identity{}, false
	}
	return id, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
