package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RideHandler handles HTTP requests for quotes and rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// QuoteRequest is the HTTP request body for quoting a trip.
type QuoteRequest struct {
	Pickup         string `json:"pickup"`
	Drop           string `json:"drop"`
	VehicleType    string `json:"vehicle_type"`
	PassengerCount int    `json:"passenger_count"`
}

// RouteResponse is one candidate route.
type RouteResponse struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Traffic        string  `json:"traffic"`
	Path           string  `json:"path"`
	DistanceKm     float64 `json:"distance_km"`
	ETAMinutes     int     `json:"eta_minutes"`
	VehicleType    string  `json:"vehicle_type"`
	PassengerCount int     `json:"passenger_count"`
}

// QuoteResponse is the HTTP response for a quote.
type QuoteResponse struct {
	QuoteID      string          `json:"quote_id"`
	Pickup       string          `json:"pickup"`
	Drop         string          `json:"drop"`
	HasIdleMatch bool            `json:"has_idle_match"`
	Routes       []RouteResponse `json:"routes"`
}

// ConfirmRideRequest is the HTTP request body for confirming a ride. Either
// quote_id with route_id, or pickup, drop and route must be supplied.
type ConfirmRideRequest struct {
	QuoteID string         `json:"quote_id,omitempty"`
	RouteID int            `json:"route_id,omitempty"`
	Pickup  string         `json:"pickup,omitempty"`
	Drop    string         `json:"drop,omitempty"`
	Route   *RouteResponse `json:"route,omitempty"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID              string        `json:"id"`
	PassengerID     string        `json:"passenger_id"`
	PassengerName   string        `json:"passenger_name"`
	Pickup          string        `json:"pickup"`
	Drop            string        `json:"drop"`
	Route           RouteResponse `json:"route"`
	Fare            int           `json:"fare"`
	VehicleID       string        `json:"vehicle_id"`
	DriverName      string        `json:"driver_name"`
	Status          string        `json:"status"`
	CreatedAt       string        `json:"created_at"`
	CompletedAt     string        `json:"completed_at,omitempty"`
	CompletionCause string        `json:"completion_cause,omitempty"`
	CancelledAt     string        `json:"cancelled_at,omitempty"`
	CancelReason    string        `json:"cancel_reason,omitempty"`
}

// Quote handles POST /v1/quotes
func (h *RideHandler) Quote(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.rideService.Quote(c.Request.Context(), caller, service.QuoteRequest{
		Pickup:         req.Pickup,
		Drop:           req.Drop,
		VehicleType:    domain.VehicleType(req.VehicleType),
		PassengerCount: req.PassengerCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := QuoteResponse{
		QuoteID:      result.Batch.ID,
		Pickup:       result.Batch.Pickup,
		Drop:         result.Batch.Drop,
		HasIdleMatch: result.HasIdleMatch,
		Routes:       make([]RouteResponse, 0, len(result.Batch.Routes)),
	}
	for _, r := range result.Batch.Routes {
		response.Routes = append(response.Routes, toRouteResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// Availability handles GET /v1/availability?vehicle_type=&passenger_count=
func (h *RideHandler) Availability(c *gin.Context) {
	vehicleType := domain.VehicleType(c.Query("vehicle_type"))
	passengers, err := strconv.Atoi(c.DefaultQuery("passenger_count", "1"))
	if err != nil || passengers < 1 || !vehicleType.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "vehicle_type and passenger_count are required"})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"vehicle_type":    vehicleType,
		"passenger_count": passengers,
		"available":       h.rideService.HasIdleMatch(vehicleType, passengers),
	})
}

// ConfirmRide handles POST /v1/rides
func (h *RideHandler) ConfirmRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req ConfirmRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var (
		ride *domain.Ride
		err  error
	)
	switch {
	case req.QuoteID != "":
		ride, err = h.rideService.ConfirmQuoted(c.Request.Context(), caller, req.QuoteID, req.RouteID)
	case req.Route != nil:
		ride, err = h.rideService.Confirm(c.Request.Context(), service.ConfirmRequest{
			Passenger: caller,
			Pickup:    req.Pickup,
			Drop:      req.Drop,
			Route:     fromRouteResponse(*req.Route),
		})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quote_id or route is required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.RideFor(caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides. Fleet owners see the rides of their
// vehicles, passengers their own rides.
func (h *RideHandler) GetAll(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var rides []*domain.Ride
	if caller.Role == domain.RoleFleetOwner {
		rides = h.rideService.ListRides(caller.Email)
	} else {
		for _, r := range h.rideService.ListRides("") {
			if r.PassengerID == caller.Email {
				rides = append(rides, r)
			}
		}
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// ActiveRide handles GET /v1/rides/active
func (h *RideHandler) ActiveRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.ActiveRide(caller.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CompleteFor(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req CancelRideRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ride, err := h.rideService.CancelFor(c.Request.Context(), caller, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// SuggestedDestinations handles GET /v1/passengers/me/suggestions
func (h *RideHandler) SuggestedDestinations(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"destinations": h.rideService.SuggestedDestinations(caller.Email),
	})
}

func toRouteResponse(r domain.Route) RouteResponse {
	return RouteResponse{
		ID:             r.ID,
		Name:           r.Name,
		Traffic:        string(r.Traffic),
		Path:           r.Path,
		DistanceKm:     r.DistanceKm,
		ETAMinutes:     r.ETAMinutes,
		VehicleType:    string(r.VehicleType),
		PassengerCount: r.PassengerCount,
	}
}

func fromRouteResponse(r RouteResponse) domain.Route {
	return domain.Route{
		ID:             r.ID,
		Name:           r.Name,
		Traffic:        domain.TrafficStatus(r.Traffic),
		Path:           r.Path,
		DistanceKm:     r.DistanceKm,
		ETAMinutes:     r.ETAMinutes,
		VehicleType:    domain.VehicleType(r.VehicleType),
		PassengerCount: r.PassengerCount,
	}
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:              r.ID,
		PassengerID:     r.PassengerID,
		PassengerName:   r.PassengerName,
		Pickup:          r.Pickup,
		Drop:            r.Drop,
		Route:           toRouteResponse(r.Route),
		Fare:            r.Fare,
		VehicleID:       r.VehicleID,
		DriverName:      r.DriverName,
		Status:          string(r.Status),
		CreatedAt:       formatTime(r.CreatedAt),
		CompletedAt:     formatTime(r.CompletedAt),
		CompletionCause: string(r.CompletionCause),
		CancelledAt:     formatTime(r.CancelledAt),
		CancelReason:    r.CancelReason,
	}
}
