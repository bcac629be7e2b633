package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ScheduledRideRepository is a PostgreSQL implementation of repository.ScheduledRideRepository.
type ScheduledRideRepository struct {
	q Querier
}

var _ repository.ScheduledRideRepository = (*ScheduledRideRepository)(nil)

// NewScheduledRideRepository creates a new PostgreSQL scheduled ride repository.
func NewScheduledRideRepository(db *sql.DB) *ScheduledRideRepository {
	return &ScheduledRideRepository{q: db}
}

const scheduledRideColumns = `id, passenger_id, passenger_name, pickup, drop_location, ride_date, ride_time, vehicle_type, passenger_count, status, created_at`

// Create persists a new scheduled ride.
func (r *ScheduledRideRepository) Create(ctx context.Context, ride *domain.ScheduledRide) error {
	query := `INSERT INTO scheduled_rides (` + scheduledRideColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.PassengerName,
		ride.Pickup,
		ride.Drop,
		ride.Date,
		ride.Time,
		ride.VehicleType,
		ride.PassengerCount,
		ride.Status,
		ride.CreatedAt,
	)
	return err
}

// GetAll retrieves all scheduled rides.
func (r *ScheduledRideRepository) GetAll(ctx context.Context) ([]*domain.ScheduledRide, error) {
	query := `SELECT ` + scheduledRideColumns + ` FROM scheduled_rides ORDER BY created_at, id`
	return r.query(ctx, query)
}

// GetByPassenger retrieves the scheduled rides booked by one passenger.
func (r *ScheduledRideRepository) GetByPassenger(ctx context.Context, passengerID string) ([]*domain.ScheduledRide, error) {
	query := `SELECT ` + scheduledRideColumns + ` FROM scheduled_rides WHERE passenger_id = $1 ORDER BY created_at, id`
	return r.query(ctx, query, passengerID)
}

// GetByID retrieves one scheduled ride.
func (r *ScheduledRideRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledRide, error) {
	query := `SELECT ` + scheduledRideColumns + ` FROM scheduled_rides WHERE id = $1`
	sr, err := scanScheduledRide(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sr, nil
}

func (r *ScheduledRideRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScheduledRide, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.ScheduledRide
	for rows.Next() {
		sr, err := scanScheduledRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, sr)
	}
	return rides, rows.Err()
}

func scanScheduledRide(row rowScanner) (*domain.ScheduledRide, error) {
	var sr domain.ScheduledRide
	err := row.Scan(
		&sr.ID,
		&sr.PassengerID,
		&sr.PassengerName,
		&sr.Pickup,
		&sr.Drop,
		&sr.Date,
		&sr.Time,
		&sr.VehicleType,
		&sr.PassengerCount,
		&sr.Status,
		&sr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
