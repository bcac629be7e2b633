package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"dispatch/internal/domain"
)

// FleetService handles fleet-owner operations: vehicle management and the
// dashboard, analytics and history views.
type FleetService struct {
	store     *FleetStore
	scheduled *ScheduledRideService
	notifier  *NotificationService
	logger    *slog.Logger
}

// NewFleetService creates a new FleetService. scheduled and notifier may be nil.
func NewFleetService(
	store *FleetStore,
	scheduled *ScheduledRideService,
	notifier *NotificationService,
	logger *slog.Logger,
) *FleetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetService{
		store:     store,
		scheduled: scheduled,
		notifier:  notifier,
		logger:    logger,
	}
}

// AddVehicleRequest contains the parameters for registering a vehicle.
type AddVehicleRequest struct {
	Owner             domain.Identity
	Name              string
	DriverName        string
	Location          string
	Type              domain.VehicleType
	Capacity          int
	MaintenanceStatus domain.MaintenanceStatus // Optional: defaults to Healthy
}

// AddVehicle registers an idle vehicle under the caller's fleet.
func (s *FleetService) AddVehicle(ctx context.Context, req AddVehicleRequest) (*domain.Vehicle, error) {
	if err := validateAddVehicle(req); err != nil {
		return nil, err
	}

	maintenance := req.MaintenanceStatus
	if maintenance == "" {
		maintenance = domain.MaintenanceHealthy
	}

	v := &domain.Vehicle{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(req.Name),
		DriverName:        strings.TrimSpace(req.DriverName),
		Location:          strings.TrimSpace(req.Location),
		Type:              req.Type,
		Capacity:          req.Capacity,
		MaintenanceStatus: maintenance,
		Status:            domain.VehicleStatusIdle,
		OwnerID:           req.Owner.Email,
	}

	if err := s.store.AddVehicle(ctx, v); err != nil {
		s.logger.Error("add vehicle", "vehicle_id", v.ID, "error", err)
		return nil, err
	}

	s.logger.Info("vehicle added", "vehicle_id", v.ID, "owner_id", v.OwnerID, "type", v.Type)
	if s.notifier != nil {
		s.notifier.NotifyVehicleAdded(ctx, v)
	}
	return v, nil
}

// RemoveVehicle deletes one of the caller's idle vehicles.
func (s *FleetService) RemoveVehicle(ctx context.Context, owner domain.Identity, vehicleID string) error {
	if vehicleID == "" {
		return fmt.Errorf("%w: vehicle id is required", ErrInvalidRequest)
	}
	if owner.Email == "" {
		return fmt.Errorf("%w: owner identity is required", ErrInvalidRequest)
	}

	removed, err := s.store.RemoveVehicle(ctx, vehicleID, owner.Email)
	if err != nil {
		return err
	}

	s.logger.Info("vehicle removed", "vehicle_id", removed.ID, "owner_id", removed.OwnerID)
	if s.notifier != nil {
		s.notifier.NotifyVehicleRemoved(ctx, removed)
	}
	return nil
}

// ListVehicles returns ownerID's vehicles, or the whole fleet when ownerID
// is empty.
func (s *FleetService) ListVehicles(ownerID string) []*domain.Vehicle {
	return s.store.Vehicles(ownerID)
}

// Dashboard summarises ownerID's fleet.
func (s *FleetService) Dashboard(ownerID string) domain.FleetStats {
	stats := domain.FleetStats{
		Maintenance: map[domain.MaintenanceStatus]int{
			domain.MaintenanceHealthy:  0,
			domain.MaintenanceDue:      0,
			domain.MaintenanceCritical: 0,
		},
	}

	for _, v := range s.store.Vehicles(ownerID) {
		stats.TotalVehicles++
		stats.Maintenance[v.MaintenanceStatus]++
	}
	for _, r := range s.store.Rides(ownerID) {
		switch r.Status {
		case domain.RideStatusInProgress:
			stats.ActiveRides++
		case domain.RideStatusCompleted:
			stats.CompletedRides++
		}
	}
	return stats
}

// Analytics groups ownerID's completed rides by creation date, oldest first.
func (s *FleetService) Analytics(ownerID string) []domain.DailyRideStats {
	byDate := make(map[string]*domain.DailyRideStats)
	for _, r := range s.store.Rides(ownerID) {
		if r.Status != domain.RideStatusCompleted {
			continue
		}
		date := r.Date()
		day, ok := byDate[date]
		if !ok {
			day = &domain.DailyRideStats{Date: date}
			byDate[date] = day
		}
		day.Rides++
		day.Fare += r.Fare
	}

	result := make([]domain.DailyRideStats, 0, len(byDate))
	for _, day := range byDate {
		result = append(result, *day)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// History returns display rows for ownerID's rides followed by the advance
// bookings the fleet could serve.
func (s *FleetService) History(ctx context.Context, ownerID string) ([]domain.RideHistoryEntry, error) {
	rides := s.store.Rides(ownerID)
	entries := make([]domain.RideHistoryEntry, 0, len(rides))
	for _, r := range rides {
		entries = append(entries, domain.RideHistoryEntry{
			ID:        r.ID,
			Date:      r.Date(),
			Passenger: r.PassengerName,
			Driver:    r.DriverName,
			Fare:      strconv.Itoa(r.Fare),
			Status:    string(r.Status),
		})
	}

	if s.scheduled == nil {
		return entries, nil
	}
	views, err := s.scheduled.ReconcileScheduled(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		entries = append(entries, domain.RideHistoryEntry{
			ID:        v.ID,
			Date:      v.Date,
			Passenger: v.PassengerName,
			Driver:    v.Driver,
			Fare:      v.Fare,
			Status:    string(v.Status),
		})
	}
	return entries, nil
}

func validateAddVehicle(req AddVehicleRequest) error {
	if req.Owner.Email == "" {
		return fmt.Errorf("%w: owner identity is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: vehicle name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.DriverName) == "" {
		return fmt.Errorf("%w: driver name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidRequest, req.Type)
	}
	if req.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidRequest)
	}
	if req.MaintenanceStatus != "" && !req.MaintenanceStatus.Valid() {
		return fmt.Errorf("%w: unknown maintenance status %q", ErrInvalidRequest, req.MaintenanceStatus)
	}
	return nil
}
