package domain

import "time"

// Layouts used for advance booking fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ScheduledRideStatus represents the state of an advance booking.
type ScheduledRideStatus string

const (
	ScheduledRideScheduled ScheduledRideStatus = "Scheduled"
	ScheduledRidePending   ScheduledRideStatus = "Pending"
	ScheduledRideFulfilled ScheduledRideStatus = "Fulfilled"
)

// ScheduledRide is an advance booking. It is not bound to a vehicle.
type ScheduledRide struct {
	ID             string
	PassengerID    string
	PassengerName  string
	Pickup         string
	Drop           string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	VehicleType    VehicleType
	PassengerCount int
	Status         ScheduledRideStatus
	CreatedAt      time.Time
}

// Placeholder values shown for bookings that no vehicle has been reserved for.
const (
	UnassignedDriver = "Unassigned"
	FareNotAvailable = "N/A"
)

// ScheduledRideView is the fleet-owner projection of a booking their fleet
// could serve.
type ScheduledRideView struct {
	ScheduledRide
	Driver string
	Fare   string
	Status ScheduledRideStatus
}
