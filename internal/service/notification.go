package service

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/events"
)

// NotificationService records fleet lifecycle events and forwards them to
// the configured publishers. Delivery failures are logged, never returned:
// a ride that was persisted stays confirmed even if nobody hears about it.
type NotificationService struct {
	publishers []events.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger, publishers ...events.Publisher) *NotificationService {
	return &NotificationService{
		publishers: publishers,
		logger:     logger,
		now:        time.Now,
	}
}

// NotifyRideConfirmed announces a newly reserved vehicle.
func (s *NotificationService) NotifyRideConfirmed(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.Event{
		Type:      events.RideConfirmed,
		OwnerID:   ride.OwnerID,
		RideID:    ride.ID,
		VehicleID: ride.VehicleID,
		Status:    string(ride.Status),
		Data: map[string]any{
			"passenger": ride.PassengerName,
			"pickup":    ride.Pickup,
			"drop":      ride.Drop,
			"route":     ride.Route.Name,
			"fare":      ride.Fare,
			"driver":    ride.DriverName,
		},
	})
}

// NotifyRideCompleted announces a completed ride and its released vehicle.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.Event{
		Type:      events.RideCompleted,
		OwnerID:   ride.OwnerID,
		RideID:    ride.ID,
		VehicleID: ride.VehicleID,
		Status:    string(ride.Status),
		Data: map[string]any{
			"cause": string(ride.CompletionCause),
			"fare":  ride.Fare,
		},
	})
}

// NotifyRideCancelled announces a cancelled ride and its released vehicle.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.Event{
		Type:      events.RideCancelled,
		OwnerID:   ride.OwnerID,
		RideID:    ride.ID,
		VehicleID: ride.VehicleID,
		Status:    string(ride.Status),
		Data: map[string]any{
			"reason": ride.CancelReason,
		},
	})
}

// NotifyVehicleAdded announces a vehicle joining the fleet.
func (s *NotificationService) NotifyVehicleAdded(ctx context.Context, v *domain.Vehicle) {
	s.send(ctx, events.Event{
		Type:      events.VehicleAdded,
		OwnerID:   v.OwnerID,
		VehicleID: v.ID,
		Status:    string(v.Status),
		Data: map[string]any{
			"name":     v.Name,
			"type":     string(v.Type),
			"capacity": v.Capacity,
		},
	})
}

// NotifyVehicleRemoved announces a vehicle leaving the fleet.
func (s *NotificationService) NotifyVehicleRemoved(ctx context.Context, v *domain.Vehicle) {
	s.send(ctx, events.Event{
		Type:      events.VehicleRemoved,
		OwnerID:   v.OwnerID,
		VehicleID: v.ID,
	})
}

// NotifyRideScheduled announces a new advance booking.
func (s *NotificationService) NotifyRideScheduled(ctx context.Context, sr *domain.ScheduledRide) {
	s.send(ctx, events.Event{
		Type:   events.RideScheduled,
		RideID: sr.ID,
		Status: string(sr.Status),
		Data: map[string]any{
			"date":         sr.Date,
			"time":         sr.Time,
			"vehicle_type": string(sr.VehicleType),
			"passengers":   sr.PassengerCount,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()

	s.logger.Info("fleet event",
		"type", e.Type,
		"ride_id", e.RideID,
		"vehicle_id", e.VehicleID,
		"owner_id", e.OwnerID,
		"status", e.Status,
	)

	for _, p := range s.publishers {
		if err := p.Publish(ctx, e); err != nil {
			s.logger.Warn("publish fleet event", "type", e.Type, "error", err)
		}
	}
}
