package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// FleetStore is the authoritative, mutation-guarded collection of vehicles
// and rides. It is the only component that changes vehicle or ride status.
//
// Every mutation runs under one mutex and is applied to a copy-on-write
// snapshot which is persisted before it replaces the current state, so a
// failed durable write leaves memory untouched.
type FleetStore struct {
	mu    sync.RWMutex
	repo  repository.FleetRepository
	state *domain.FleetSnapshot
}

// NewFleetStore creates an empty FleetStore backed by repo.
func NewFleetStore(repo repository.FleetRepository) *FleetStore {
	return &FleetStore{
		repo:  repo,
		state: &domain.FleetSnapshot{},
	}
}

// Load replaces the in-memory state with the persisted fleet.
func (s *FleetStore) Load(ctx context.Context) error {
	snapshot, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = &domain.FleetSnapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snapshot.Clone()
	return nil
}

// Vehicles returns copies of the vehicles owned by ownerID, or of every
// vehicle when ownerID is empty, in fleet order.
func (s *FleetStore) Vehicles(ownerID string) []*domain.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Vehicle, 0, len(s.state.Vehicles))
	for _, v := range s.state.Vehicles {
		if ownerID == "" || v.OwnerID == ownerID {
			result = append(result, v.Clone())
		}
	}
	return result
}

// Vehicle returns a copy of the vehicle with the given id.
func (s *FleetStore) Vehicle(id string) (*domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.vehicleIndex(id)
	if i < 0 {
		return nil, ErrVehicleNotFound
	}
	return s.state.Vehicles[i].Clone(), nil
}

// Rides returns copies of the rides served by ownerID's vehicles, or of every
// ride when ownerID is empty, oldest first.
func (s *FleetStore) Rides(ownerID string) []*domain.Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Ride, 0, len(s.state.Rides))
	for _, r := range s.state.Rides {
		if ownerID == "" || r.OwnerID == ownerID {
			result = append(result, r.Clone())
		}
	}
	return result
}

// Ride returns a copy of the ride with the given id.
func (s *FleetStore) Ride(id string) (*domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.rideIndex(id)
	if i < 0 {
		return nil, ErrRideNotFound
	}
	return s.state.Rides[i].Clone(), nil
}

// HasIdleMatch reports whether an idle vehicle currently satisfies the request.
func (s *FleetStore) HasIdleMatch(vehicleType domain.VehicleType, passengers int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return HasIdleMatch(s.state.Vehicles, vehicleType, passengers)
}

// AddVehicle appends a vehicle to the fleet.
func (s *FleetStore) AddVehicle(ctx context.Context, v *domain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vehicleIndex(v.ID) >= 0 {
		return ErrDuplicateVehicle
	}
	return s.commit(ctx, nil, func(next *domain.FleetSnapshot) error {
		next.Vehicles = append(next.Vehicles, v.Clone())
		return nil
	})
}

// RemoveVehicle deletes an idle vehicle. ownerID, when set, must match the
// vehicle's owner.
func (s *FleetStore) RemoveVehicle(ctx context.Context, id, ownerID string) (*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.vehicleIndex(id)
	if i < 0 {
		return nil, ErrVehicleNotFound
	}
	removed := s.state.Vehicles[i]
	if ownerID != "" && removed.OwnerID != ownerID {
		return nil, ErrNotVehicleOwner
	}
	if removed.Status == domain.VehicleStatusOnRide {
		return nil, ErrVehicleBusy
	}

	err := s.commit(ctx, nil, func(next *domain.FleetSnapshot) error {
		next.Vehicles = slices.Delete(next.Vehicles, i, i+1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed.Clone(), nil
}

// Reserve atomically finds the first eligible idle vehicle, flips it to
// OnRide and records the ride produced by build. No state changes when no
// vehicle qualifies or the write fails.
func (s *FleetStore) Reserve(
	ctx context.Context,
	vehicleType domain.VehicleType,
	passengers int,
	build func(v *domain.Vehicle) *domain.Ride,
) (*domain.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := FindIdleVehicle(s.state.Vehicles, vehicleType, passengers)
	if match == nil {
		return nil, ErrNoMatchingVehicle
	}
	vi := s.vehicleIndex(match.ID)
	ride := build(match.Clone())
	stored := ride.Clone()

	err := s.commit(ctx, []*domain.Ride{stored}, func(next *domain.FleetSnapshot) error {
		v := match.Clone()
		v.Status = domain.VehicleStatusOnRide
		next.Vehicles[vi] = v
		next.Rides = append(next.Rides, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// Finish moves an in-progress ride to a terminal status and releases its
// vehicle. The terminal check and the write are one atomic step, so of two
// racing calls exactly one succeeds and the other gets ErrAlreadyTerminal.
func (s *FleetStore) Finish(
	ctx context.Context,
	rideID string,
	status domain.RideStatus,
	annotate func(r *domain.Ride),
) (*domain.Ride, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", ErrInvalidRequest, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ri := s.rideIndex(rideID)
	if ri < 0 {
		return nil, ErrRideNotFound
	}
	current := s.state.Rides[ri]
	if current.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	finished := current.Clone()
	finished.Status = status
	if annotate != nil {
		annotate(finished)
	}

	stored := finished.Clone()
	err := s.commit(ctx, []*domain.Ride{stored}, func(next *domain.FleetSnapshot) error {
		next.Rides[ri] = stored
		if vi := s.vehicleIndex(current.VehicleID); vi >= 0 {
			v := next.Vehicles[vi].Clone()
			v.Status = domain.VehicleStatusIdle
			next.Vehicles[vi] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// commit applies fn to a shallow copy of the state, persists it and swaps it
// in. fn must replace, never modify, the records it changes, and every ride
// it adds or replaces must be listed in changed. Callers hold s.mu.
func (s *FleetStore) commit(ctx context.Context, changed []*domain.Ride, fn func(next *domain.FleetSnapshot) error) error {
	next := &domain.FleetSnapshot{
		Vehicles: slices.Clone(s.state.Vehicles),
		Rides:    slices.Clone(s.state.Rides),
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, next, changed); err != nil {
		return fmt.Errorf("persist fleet: %w", err)
	}
	s.state = next
	return nil
}

func (s *FleetStore) vehicleIndex(id string) int {
	return slices.IndexFunc(s.state.Vehicles, func(v *domain.Vehicle) bool { return v.ID == id })
}

func (s *FleetStore) rideIndex(id string) int {
	return slices.IndexFunc(s.state.Rides, func(r *domain.Ride) bool { return r.ID == id })
}
