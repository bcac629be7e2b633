package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/ai"
)

// AdviceHandler serves optional AI route advice.
type AdviceHandler struct {
	advisor ai.RouteAdvisor
}

// NewAdviceHandler creates a new AdviceHandler. A nil advisor answers 503.
func NewAdviceHandler(advisor ai.RouteAdvisor) *AdviceHandler {
	return &AdviceHandler{advisor: advisor}
}

// Advise handles GET /v1/routes/advice?pickup=&drop=
func (h *AdviceHandler) Advise(c *gin.Context) {
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "route advice is not configured"})
		return
	}

	pickup := c.Query("pickup")
	drop := c.Query("drop")
	if pickup == "" || drop == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup and drop are required"})
		return
	}

	advice, err := h.advisor.Advise(c.Request.Context(), pickup, drop)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"advice": advice})
}
