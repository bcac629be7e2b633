package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// FleetRepository is a PostgreSQL implementation of repository.FleetRepository.
type FleetRepository struct {
	db *sql.DB
}

// Ensure FleetRepository implements repository.FleetRepository.
var _ repository.FleetRepository = (*FleetRepository)(nil)

// NewFleetRepository creates a new PostgreSQL fleet repository.
func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

// Load reads every vehicle and ride.
func (r *FleetRepository) Load(ctx context.Context) (*domain.FleetSnapshot, error) {
	vehicles, err := NewVehicleRepository(r.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	rides, err := NewRideRepository(r.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rides: %w", err)
	}
	return &domain.FleetSnapshot{Vehicles: vehicles, Rides: rides}, nil
}

// Save writes the snapshot in a single transaction. Vehicles missing from
// the snapshot are deleted. Only the changed rides are upserted; rides are
// never deleted.
func (r *FleetRepository) Save(ctx context.Context, snapshot *domain.FleetSnapshot, changed []*domain.Ride) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		vehicles := NewVehicleRepositoryWithTx(tx)
		rides := NewRideRepositoryWithTx(tx)

		ids := make([]string, len(snapshot.Vehicles))
		for i, v := range snapshot.Vehicles {
			ids[i] = v.ID
		}
		if err := vehicles.DeleteExcept(ctx, ids); err != nil {
			return fmt.Errorf("prune vehicles: %w", err)
		}
		for i, v := range snapshot.Vehicles {
			if err := vehicles.Upsert(ctx, v, i); err != nil {
				return fmt.Errorf("save vehicle %s: %w", v.ID, err)
			}
		}

		for _, ride := range changed {
			if err := rides.Upsert(ctx, ride); err != nil {
				return fmt.Errorf("save ride %s: %w", ride.ID, err)
			}
		}
		return nil
	})
}
