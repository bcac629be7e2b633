package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"dispatch/internal/domain"
)

// VehicleRepository reads and writes the vehicles table.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Upsert writes a vehicle at the given position in the fleet order.
func (r *VehicleRepository) Upsert(ctx context.Context, v *domain.Vehicle, position int) error {
	query := `
		INSERT INTO vehicles (id, name, driver_name, location, type, capacity, maintenance_status, status, owner_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			driver_name = EXCLUDED.driver_name,
			location = EXCLUDED.location,
			type = EXCLUDED.type,
			capacity = EXCLUDED.capacity,
			maintenance_status = EXCLUDED.maintenance_status,
			status = EXCLUDED.status,
			owner_id = EXCLUDED.owner_id,
			position = EXCLUDED.position
	`
	_, err := r.q.ExecContext(ctx, query,
		v.ID,
		v.Name,
		v.DriverName,
		v.Location,
		v.Type,
		v.Capacity,
		v.MaintenanceStatus,
		v.Status,
		v.OwnerID,
		position,
	)
	return err
}

// DeleteExcept removes every vehicle whose id is not in keep.
func (r *VehicleRepository) DeleteExcept(ctx context.Context, keep []string) error {
	query := `DELETE FROM vehicles WHERE NOT (id = ANY($1))`
	_, err := r.q.ExecContext(ctx, query, pq.Array(keep))
	return err
}

// GetAll retrieves all vehicles in fleet order.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, name, driver_name, location, type, capacity, maintenance_status, status, COALESCE(owner_id, '')
		FROM vehicles ORDER BY position, id
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.DriverName,
			&v.Location,
			&v.Type,
			&v.Capacity,
			&v.MaintenanceStatus,
			&v.Status,
			&v.OwnerID,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, rows.Err()
}
