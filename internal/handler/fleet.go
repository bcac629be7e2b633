package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FleetHandler handles HTTP requests of fleet owners.
type FleetHandler struct {
	fleetService     *service.FleetService
	scheduledService *service.ScheduledRideService
	hub              *events.Hub
	logger           *slog.Logger
}

// NewFleetHandler creates a new FleetHandler. hub may be nil, which disables
// the live stream.
func NewFleetHandler(
	fleetService *service.FleetService,
	scheduledService *service.ScheduledRideService,
	hub *events.Hub,
	logger *slog.Logger,
) *FleetHandler {
	return &FleetHandler{
		fleetService:     fleetService,
		scheduledService: scheduledService,
		hub:              hub,
		logger:           logger,
	}
}

// AddVehicleRequest is the HTTP request body for adding a vehicle.
type AddVehicleRequest struct {
	Name              string `json:"name"`
	DriverName        string `json:"driver_name"`
	Location          string `json:"location"`
	Type              string `json:"type"`
	Capacity          int    `json:"capacity"`
	MaintenanceStatus string `json:"maintenance_status,omitempty"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DriverName        string `json:"driver_name"`
	Location          string `json:"location"`
	Type              string `json:"type"`
	Capacity          int    `json:"capacity"`
	MaintenanceStatus string `json:"maintenance_status"`
	Status            string `json:"status"`
	OwnerID           string `json:"owner_id"`
}

// DashboardResponse is the HTTP response for the fleet dashboard.
type DashboardResponse struct {
	TotalVehicles  int            `json:"total_vehicles"`
	ActiveRides    int            `json:"active_rides"`
	CompletedRides int            `json:"completed_rides"`
	Maintenance    map[string]int `json:"maintenance"`
}

// DailyStatsResponse is one row of ride analytics.
type DailyStatsResponse struct {
	Date  string `json:"date"`
	Rides int    `json:"rides"`
	Fare  int    `json:"fare"`
}

// HistoryEntryResponse is one row of ride history.
type HistoryEntryResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Passenger string `json:"passenger"`
	Driver    string `json:"driver"`
	Fare      string `json:"fare"`
	Status    string `json:"status"`
}

// AddVehicle handles POST /v1/fleet/vehicles
func (h *FleetHandler) AddVehicle(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req AddVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.fleetService.AddVehicle(c.Request.Context(), service.AddVehicleRequest{
		Owner:             caller,
		Name:              req.Name,
		DriverName:        req.DriverName,
		Location:          req.Location,
		Type:              domain.VehicleType(req.Type),
		Capacity:          req.Capacity,
		MaintenanceStatus: domain.MaintenanceStatus(req.MaintenanceStatus),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// ListVehicles handles GET /v1/fleet/vehicles
func (h *FleetHandler) ListVehicles(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	vehicles := h.fleetService.ListVehicles(caller.Email)
	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}
	c.JSON(http.StatusOK, response)
}

// RemoveVehicle handles DELETE /v1/fleet/vehicles/:id
func (h *FleetHandler) RemoveVehicle(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	if err := h.fleetService.RemoveVehicle(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /v1/fleet/dashboard
func (h *FleetHandler) Dashboard(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	stats := h.fleetService.Dashboard(caller.Email)
	maintenance := make(map[string]int, len(stats.Maintenance))
	for status, n := range stats.Maintenance {
		maintenance[string(status)] = n
	}
	respondJSON(c, http.StatusOK, DashboardResponse{
		TotalVehicles:  stats.TotalVehicles,
		ActiveRides:    stats.ActiveRides,
		CompletedRides: stats.CompletedRides,
		Maintenance:    maintenance,
	})
}

// Analytics handles GET /v1/fleet/analytics
func (h *FleetHandler) Analytics(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	days := h.fleetService.Analytics(caller.Email)
	response := make([]DailyStatsResponse, 0, len(days))
	for _, d := range days {
		response = append(response, DailyStatsResponse{Date: d.Date, Rides: d.Rides, Fare: d.Fare})
	}
	c.JSON(http.StatusOK, response)
}

// History handles GET /v1/fleet/history
func (h *FleetHandler) History(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	entries, err := h.fleetService.History(c.Request.Context(), caller.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, HistoryEntryResponse(e))
	}
	c.JSON(http.StatusOK, response)
}

// ScheduledRides handles GET /v1/fleet/scheduled-rides
func (h *FleetHandler) ScheduledRides(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	views, err := h.scheduledService.ReconcileScheduled(c.Request.Context(), caller.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ScheduledRideResponse, 0, len(views))
	for _, v := range views {
		r := toScheduledRideResponse(&v.ScheduledRide)
		r.Driver = v.Driver
		r.Fare = v.Fare
		r.Status = string(v.Status)
		response = append(response, r)
	}
	c.JSON(http.StatusOK, response)
}

// Live handles GET /v1/fleet/live, streaming the owner's fleet events over
// a websocket until the client disconnects.
func (h *FleetHandler) Live(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "live updates unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sessionID, err := h.hub.Subscribe(caller.Email, conn)
	if err != nil {
		_ = conn.Close()
		return
	}
	defer h.hub.Unsubscribe(sessionID)

	// The stream is one-way; reading only detects the client going away.
	_ = conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                v.ID,
		Name:              v.Name,
		DriverName:        v.DriverName,
		Location:          v.Location,
		Type:              string(v.Type),
		Capacity:          v.Capacity,
		MaintenanceStatus: string(v.MaintenanceStatus),
		Status:            string(v.Status),
		OwnerID:           v.OwnerID,
	}
}
