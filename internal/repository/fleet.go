package repository

import (
	"context"

	"dispatch/internal/domain"
)

// FleetRepository persists the vehicle and ride collections owned by the
// fleet store.
type FleetRepository interface {
	// Load returns the persisted fleet. Vehicles are in insertion order.
	Load(ctx context.Context) (*domain.FleetSnapshot, error)

	// Save durably replaces the persisted vehicles with those of the snapshot
	// and writes the rides listed in changed. Rides of the snapshot absent
	// from changed are already persisted. Either everything is written or
	// nothing is.
	Save(ctx context.Context, snapshot *domain.FleetSnapshot, changed []*domain.Ride) error
}
