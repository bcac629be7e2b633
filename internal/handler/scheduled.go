package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// ScheduledRideHandler handles HTTP requests for advance bookings.
type ScheduledRideHandler struct {
	scheduledService *service.ScheduledRideService
}

// NewScheduledRideHandler creates a new ScheduledRideHandler.
func NewScheduledRideHandler(scheduledService *service.ScheduledRideService) *ScheduledRideHandler {
	return &ScheduledRideHandler{scheduledService: scheduledService}
}

// ScheduleRideRequest is the HTTP request body for an advance booking.
type ScheduleRideRequest struct {
	Pickup         string `json:"pickup"`
	Drop           string `json:"drop"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	VehicleType    string `json:"vehicle_type"`
	PassengerCount int    `json:"passenger_count"`
}

// ScheduledRideResponse is the HTTP representation of an advance booking.
// Driver and fare are only set on fleet projections.
type ScheduledRideResponse struct {
	ID             string `json:"id"`
	PassengerID    string `json:"passenger_id"`
	PassengerName  string `json:"passenger_name"`
	Pickup         string `json:"pickup"`
	Drop           string `json:"drop"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	VehicleType    string `json:"vehicle_type"`
	PassengerCount int    `json:"passenger_count"`
	Status         string `json:"status"`
	Driver         string `json:"driver,omitempty"`
	Fare           string `json:"fare,omitempty"`
}

// ScheduleRide handles POST /v1/scheduled-rides
func (h *ScheduledRideHandler) ScheduleRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req ScheduleRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.scheduledService.ScheduleRide(c.Request.Context(), service.ScheduleRideRequest{
		Passenger:      caller,
		Pickup:         req.Pickup,
		Drop:           req.Drop,
		Date:           req.Date,
		Time:           req.Time,
		VehicleType:    domain.VehicleType(req.VehicleType),
		PassengerCount: req.PassengerCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toScheduledRideResponse(ride))
}

// GetAll handles GET /v1/scheduled-rides, returning the caller's bookings.
func (h *ScheduledRideHandler) GetAll(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	rides, err := h.scheduledService.ListForPassenger(c.Request.Context(), caller.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ScheduledRideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toScheduledRideResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// GetByID handles GET /v1/scheduled-rides/:id
func (h *ScheduledRideHandler) GetByID(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	ride, err := h.scheduledService.GetScheduledRide(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toScheduledRideResponse(ride))
}

func toScheduledRideResponse(r *domain.ScheduledRide) ScheduledRideResponse {
	return ScheduledRideResponse{
		ID:             r.ID,
		PassengerID:    r.PassengerID,
		PassengerName:  r.PassengerName,
		Pickup:         r.Pickup,
		Drop:           r.Drop,
		Date:           r.Date,
		Time:           r.Time,
		VehicleType:    string(r.VehicleType),
		PassengerCount: r.PassengerCount,
		Status:         string(r.Status),
	}
}
