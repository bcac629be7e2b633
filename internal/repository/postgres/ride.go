package postgres

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/domain"
)

// RideRepository reads and writes the rides table.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Upsert persists a ride, overwriting its mutable lifecycle columns.
func (r *RideRepository) Upsert(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, passenger_id, passenger_name, pickup, drop_location,
			route_id, route_name, traffic, path, distance_km, eta_minutes, vehicle_type, passenger_count,
			fare, vehicle_id, driver_name, owner_id, status, created_at,
			completed_at, completion_cause, cancelled_at, cancel_reason
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			completion_cause = EXCLUDED.completion_cause,
			cancelled_at = EXCLUDED.cancelled_at,
			cancel_reason = EXCLUDED.cancel_reason
	`

	var completionCause sql.NullString
	if ride.CompletionCause != "" {
		completionCause = sql.NullString{String: string(ride.CompletionCause), Valid: true}
	}

	var cancelReason sql.NullString
	if ride.CancelReason != "" {
		cancelReason = sql.NullString{String: ride.CancelReason, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.PassengerName,
		ride.Pickup,
		ride.Drop,
		ride.Route.ID,
		ride.Route.Name,
		ride.Route.Traffic,
		ride.Route.Path,
		ride.Route.DistanceKm,
		ride.Route.ETAMinutes,
		ride.Route.VehicleType,
		ride.Route.PassengerCount,
		ride.Fare,
		ride.VehicleID,
		ride.DriverName,
		ride.OwnerID,
		ride.Status,
		ride.CreatedAt,
		nullTime(ride.CompletedAt),
		completionCause,
		nullTime(ride.CancelledAt),
		cancelReason,
	)
	return err
}

// GetAll retrieves all rides ordered by creation time.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT id, passenger_id, passenger_name, pickup, drop_location,
			route_id, route_name, traffic, path, distance_km, eta_minutes, vehicle_type, passenger_count,
			fare, vehicle_id, driver_name, COALESCE(owner_id, ''), status, created_at,
			completed_at, completion_cause, cancelled_at, cancel_reason
		FROM rides ORDER BY created_at, id
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		var ride domain.Ride
		var completedAt, cancelledAt sql.NullTime
		var completionCause, cancelReason sql.NullString
		if err := rows.Scan(
			&ride.ID,
			&ride.PassengerID,
			&ride.PassengerName,
			&ride.Pickup,
			&ride.Drop,
			&ride.Route.ID,
			&ride.Route.Name,
			&ride.Route.Traffic,
			&ride.Route.Path,
			&ride.Route.DistanceKm,
			&ride.Route.ETAMinutes,
			&ride.Route.VehicleType,
			&ride.Route.PassengerCount,
			&ride.Fare,
			&ride.VehicleID,
			&ride.DriverName,
			&ride.OwnerID,
			&ride.Status,
			&ride.CreatedAt,
			&completedAt,
			&completionCause,
			&cancelledAt,
			&cancelReason,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			ride.CompletedAt = completedAt.Time
		}
		if completionCause.Valid {
			ride.CompletionCause = domain.CompletionCause(completionCause.String)
		}
		if cancelledAt.Valid {
			ride.CancelledAt = cancelledAt.Time
		}
		if cancelReason.Valid {
			ride.CancelReason = cancelReason.String
		}
		rides = append(rides, &ride)
	}
	return rides, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
