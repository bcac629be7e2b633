package repository

import (
	"context"

	"dispatch/internal/domain"
)

// ScheduledRideRepository defines the persistence operations for advance bookings.
type ScheduledRideRepository interface {
	// Create persists a new scheduled ride.
	Create(ctx context.Context, ride *domain.ScheduledRide) error

	// GetAll retrieves all scheduled rides ordered by creation time.
	GetAll(ctx context.Context) ([]*domain.ScheduledRide, error)

	// GetByID retrieves one scheduled ride. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.ScheduledRide, error)

	// GetByPassenger retrieves the scheduled rides of one passenger.
	GetByPassenger(ctx context.Context, passengerID string) ([]*domain.ScheduledRide, error)
}
