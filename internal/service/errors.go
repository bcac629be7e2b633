package service

import "errors"

var (
	// ErrInvalidRequest is returned for missing or malformed input. Nothing is mutated.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidDate is returned when an advance booking date precedes today.
	ErrInvalidDate = errors.New("date is in the past")

	// ErrNoMatchingVehicle is returned when no idle vehicle satisfies the request.
	ErrNoMatchingVehicle = errors.New("no matching vehicle available")

	// ErrAlreadyTerminal is returned when completing or cancelling a ride that already ended.
	ErrAlreadyTerminal = errors.New("ride already completed or cancelled")

	// ErrVehicleBusy is returned when removing a vehicle that is on a ride.
	ErrVehicleBusy = errors.New("vehicle is on a ride")

	// ErrRideNotFound is returned for an unknown ride id.
	ErrRideNotFound = errors.New("ride not found")

	// ErrVehicleNotFound is returned for an unknown vehicle id.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrDuplicateVehicle is returned when adding a vehicle whose id is taken.
	ErrDuplicateVehicle = errors.New("vehicle already exists")

	// ErrNotVehicleOwner is returned when a fleet owner touches another owner's vehicle.
	ErrNotVehicleOwner = errors.New("vehicle belongs to another owner")

	// ErrQuoteExpired is returned when confirming a route from a superseded or expired quote.
	ErrQuoteExpired = errors.New("quote expired or superseded")
)
