package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusInProgress RideStatus = "In Progress"
	RideStatusCompleted  RideStatus = "Completed"
	RideStatusCancelled  RideStatus = "Cancelled"
)

// Terminal reports whether no further transition is possible.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// CompletionCause records what closed a completed ride.
type CompletionCause string

const (
	CompletedManually CompletionCause = "manual"
	CompletedAuto     CompletionCause = "auto"
)

// Ride represents a confirmed trip bound to a vehicle.
type Ride struct {
	ID              string
	PassengerID     string
	PassengerName   string
	Pickup          string
	Drop            string
	Route           Route // Snapshot of the confirmed quote
	Fare            int
	VehicleID       string
	DriverName      string
	OwnerID         string // Owner of the vehicle at confirm time
	Status          RideStatus
	CreatedAt       time.Time
	CompletedAt     time.Time
	CompletionCause CompletionCause
	CancelledAt     time.Time
	CancelReason    string
}

// Clone returns a copy of the ride.
func (r *Ride) Clone() *Ride {
	c := *r
	return &c
}

// Date returns the calendar date the ride was created on.
func (r *Ride) Date() string {
	return r.CreatedAt.Format(DateLayout)
}
