package tests

import (
	"context"
	"sync"
	"sync/atomic"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK FLEET REPOSITORY
// ──────────────────────────────────────────────

// MockFleetRepository is a mock implementation of FleetRepository.
type MockFleetRepository struct {
	mu       sync.RWMutex
	snapshot *domain.FleetSnapshot

	// Counters for verification
	LoadCallCount int32
	SaveCallCount int32

	// Error injection
	LoadError error
	saveError error
}

// NewMockFleetRepository creates a mock fleet repository holding vehicles.
func NewMockFleetRepository(vehicles ...*domain.Vehicle) *MockFleetRepository {
	m := &MockFleetRepository{snapshot: &domain.FleetSnapshot{}}
	for _, v := range vehicles {
		m.snapshot.Vehicles = append(m.snapshot.Vehicles, v.Clone())
	}
	return m
}

// AddRide seeds a persisted ride.
func (m *MockFleetRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Rides = append(m.snapshot.Rides, ride.Clone())
}

// SetSaveError makes every following Save fail with err. Nil restores saving.
func (m *MockFleetRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockFleetRepository) Load(ctx context.Context) (*domain.FleetSnapshot, error) {
	atomic.AddInt32(&m.LoadCallCount, 1)
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone(), nil
}

func (m *MockFleetRepository) Save(ctx context.Context, snapshot *domain.FleetSnapshot, changed []*domain.Ride) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}

	// Mirror the database: vehicles are replaced, rides are upserted.
	next := &domain.FleetSnapshot{Rides: m.snapshot.Rides}
	for _, v := range snapshot.Vehicles {
		next.Vehicles = append(next.Vehicles, v.Clone())
	}
	for _, r := range changed {
		next.Rides = upsertRide(next.Rides, r.Clone())
	}
	m.snapshot = next
	return nil
}

func upsertRide(rides []*domain.Ride, ride *domain.Ride) []*domain.Ride {
	for i, r := range rides {
		if r.ID == ride.ID {
			out := append([]*domain.Ride(nil), rides...)
			out[i] = ride
			return out
		}
	}
	return append(append([]*domain.Ride(nil), rides...), ride)
}

// Persisted returns a copy of the last saved snapshot for test assertions.
func (m *MockFleetRepository) Persisted() *domain.FleetSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// PersistedVehicle returns the saved copy of a vehicle, or nil.
func (m *MockFleetRepository) PersistedVehicle(id string) *domain.Vehicle {
	for _, v := range m.Persisted().Vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK SCHEDULED RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockScheduledRideRepository is a mock implementation of ScheduledRideRepository.
type MockScheduledRideRepository struct {
	mu    sync.RWMutex
	rides []*domain.ScheduledRide

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
	GetAllError error
}

// NewMockScheduledRideRepository creates a new mock scheduled ride repository.
func NewMockScheduledRideRepository() *MockScheduledRideRepository {
	return &MockScheduledRideRepository{}
}

// AddScheduledRide seeds a booking.
func (m *MockScheduledRideRepository) AddScheduledRide(ride *domain.ScheduledRide) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides = append(m.rides, &copy)
}

func (m *MockScheduledRideRepository) Create(ctx context.Context, ride *domain.ScheduledRide) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddScheduledRide(ride)
	return nil
}

func (m *MockScheduledRideRepository) GetAll(ctx context.Context) ([]*domain.ScheduledRide, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ScheduledRide, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockScheduledRideRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledRide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.ID == id {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockScheduledRideRepository) GetByPassenger(ctx context.Context, passengerID string) ([]*domain.ScheduledRide, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var result []*domain.ScheduledRide
	for _, r := range all {
		if r.PassengerID == passengerID {
			result = append(result, r)
		}
	}
	return result, nil
}

// Count returns the number of stored bookings.
func (m *MockScheduledRideRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK QUOTE STORE
// ──────────────────────────────────────────────

// MockQuoteStore is a mock implementation of QuoteStoreInterface.
type MockQuoteStore struct {
	mu     sync.Mutex
	quotes map[string]*domain.QuoteBatch

	// Error injection
	SaveError error
	GetError  error
}

// NewMockQuoteStore creates a new mock quote store.
func NewMockQuoteStore() *MockQuoteStore {
	return &MockQuoteStore{quotes: make(map[string]*domain.QuoteBatch)}
}

func (m *MockQuoteStore) Save(ctx context.Context, batch *domain.QuoteBatch) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *batch
	m.quotes[batch.PassengerID] = &copy
	return nil
}

func (m *MockQuoteStore) Get(ctx context.Context, passengerID string) (*domain.QuoteBatch, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.quotes[passengerID]
	if !ok {
		return nil, nil
	}
	copy := *batch
	return &copy, nil
}

func (m *MockQuoteStore) Invalidate(ctx context.Context, passengerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quotes, passengerID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.PublishError
}

// Events returns the recorded events of type t, or all events when t is empty.
func (m *MockPublisher) Events(t events.Type) []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []events.Event
	for _, e := range m.events {
		if t == "" || e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Ensure mocks implement interfaces.
var (
	_ repository.FleetRepository         = (*MockFleetRepository)(nil)
	_ repository.ScheduledRideRepository = (*MockScheduledRideRepository)(nil)
	_ redis.QuoteStoreInterface          = (*MockQuoteStore)(nil)
	_ events.Publisher                   = (*MockPublisher)(nil)
)
