package events

import (
	"context"
	"time"
)

// Type identifies a fleet lifecycle event.
type Type string

const (
	RideConfirmed  Type = "RIDE_CONFIRMED"
	RideCompleted  Type = "RIDE_COMPLETED"
	RideCancelled  Type = "RIDE_CANCELLED"
	VehicleAdded   Type = "VEHICLE_ADDED"
	VehicleRemoved Type = "VEHICLE_REMOVED"
	RideScheduled  Type = "RIDE_SCHEDULED"
)

// Event is a fleet state change, addressed to the owner of the vehicle
// involved.
type Event struct {
	Type       Type           `json:"type"`
	OwnerID    string         `json:"owner_id,omitempty"`
	RideID     string         `json:"ride_id,omitempty"`
	VehicleID  string         `json:"vehicle_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Key returns the partitioning key for the event.
func (e Event) Key() string {
	if e.RideID != "" {
		return e.RideID
	}
	return e.VehicleID
}

// Publisher delivers events to one downstream channel.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
