package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ScheduledRideServiceOptions holds the optional collaborators of a
// ScheduledRideService.
type ScheduledRideServiceOptions struct {
	Notifier *NotificationService
	Logger   *slog.Logger
	Now      func() time.Time
}

// ScheduledRideService handles advance bookings and their projection onto
// fleets.
type ScheduledRideService struct {
	repo     repository.ScheduledRideRepository
	store    *FleetStore
	notifier *NotificationService
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduledRideService creates a new ScheduledRideService.
func NewScheduledRideService(
	repo repository.ScheduledRideRepository,
	store *FleetStore,
	opts ScheduledRideServiceOptions,
) *ScheduledRideService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ScheduledRideService{
		repo:     repo,
		store:    store,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// ScheduleRideRequest contains the parameters for an advance booking.
type ScheduleRideRequest struct {
	Passenger      domain.Identity
	Pickup         string
	Drop           string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	VehicleType    domain.VehicleType
	PassengerCount int
}

// ScheduleRide records an advance booking. No vehicle is reserved.
func (s *ScheduledRideService) ScheduleRide(ctx context.Context, req ScheduleRideRequest) (*domain.ScheduledRide, error) {
	if err := s.validateScheduleRequest(req); err != nil {
		return nil, err
	}

	ride := &domain.ScheduledRide{
		ID:             uuid.New().String(),
		PassengerID:    req.Passenger.Email,
		PassengerName:  req.Passenger.Name,
		Pickup:         strings.TrimSpace(req.Pickup),
		Drop:           strings.TrimSpace(req.Drop),
		Date:           strings.TrimSpace(req.Date),
		Time:           strings.TrimSpace(req.Time),
		VehicleType:    req.VehicleType,
		PassengerCount: req.PassengerCount,
		Status:         domain.ScheduledRideScheduled,
		CreatedAt:      s.now(),
	}

	if err := s.repo.Create(ctx, ride); err != nil {
		s.logger.Error("schedule ride", "passenger", ride.PassengerID, "error", err)
		return nil, fmt.Errorf("persist scheduled ride: %w", err)
	}

	s.logger.Info("ride scheduled", "scheduled_ride_id", ride.ID, "date", ride.Date, "time", ride.Time)
	if s.notifier != nil {
		s.notifier.NotifyRideScheduled(ctx, ride)
	}
	return ride, nil
}

// GetScheduledRide returns one booking. Passengers may only read their own.
func (s *ScheduledRideService) GetScheduledRide(ctx context.Context, caller domain.Identity, id string) (*domain.ScheduledRide, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: scheduled ride id is required", ErrInvalidRequest)
	}
	ride, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleFleetOwner && ride.PassengerID != caller.Email {
		return nil, repository.ErrNotFound
	}
	return ride, nil
}

// ListForPassenger returns the passenger's bookings, or all bookings when
// passengerID is empty.
func (s *ScheduledRideService) ListForPassenger(ctx context.Context, passengerID string) ([]*domain.ScheduledRide, error) {
	if passengerID == "" {
		return s.repo.GetAll(ctx)
	}
	return s.repo.GetByPassenger(ctx, passengerID)
}

// ReconcileScheduled returns the bookings that ownerID's fleet could serve.
// An empty ownerID reconciles against every vehicle.
func (s *ScheduledRideService) ReconcileScheduled(ctx context.Context, ownerID string) ([]domain.ScheduledRideView, error) {
	scheduled, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Reconcile(scheduled, s.store.Vehicles(ownerID)), nil
}

func (s *ScheduledRideService) validateScheduleRequest(req ScheduleRideRequest) error {
	if req.Passenger.Email == "" {
		return fmt.Errorf("%w: passenger identity is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Time) == "" {
		return fmt.Errorf("%w: time is required", ErrInvalidRequest)
	}
	if err := validateTrip(req.Pickup, req.Drop, req.VehicleType, req.PassengerCount); err != nil {
		return err
	}

	now := s.now()
	date, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(req.Date), now.Location())
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if _, err := time.Parse(domain.TimeLayout, strings.TrimSpace(req.Time)); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidRequest)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return ErrInvalidDate
	}
	return nil
}
