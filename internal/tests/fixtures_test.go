package tests

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/logging"
	"dispatch/internal/service"
)

const (
	ownerA = "owner-a@fleet.test"
	ownerB = "owner-b@fleet.test"
)

var (
	alice = domain.Identity{Name: "Alice", Email: "alice@rider.test", Role: domain.RolePassenger}
	bob   = domain.Identity{Name: "Bob", Email: "bob@rider.test", Role: domain.RolePassenger}
)

// fixedClock returns the same instant on every call.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// sequenceSource replays values and then repeats the last one.
type sequenceSource struct {
	values []float64
	next   int
}

func (s *sequenceSource) Float64() float64 {
	if s.next >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.next]
	s.next++
	return v
}

func newVehicle(id string, vt domain.VehicleType, capacity int, owner string) *domain.Vehicle {
	return &domain.Vehicle{
		ID:                id,
		Name:              "Vehicle " + id,
		DriverName:        "Driver " + id,
		Location:          "Depot",
		Type:              vt,
		Capacity:          capacity,
		MaintenanceStatus: domain.MaintenanceHealthy,
		Status:            domain.VehicleStatusIdle,
		OwnerID:           owner,
	}
}

func testRoute(vt domain.VehicleType, passengers int, distance float64) domain.Route {
	return domain.Route{
		ID:             1,
		Name:           "Main St Route",
		Traffic:        domain.TrafficAllClear,
		DistanceKm:     distance,
		ETAMinutes:     11,
		VehicleType:    vt,
		PassengerCount: passengers,
	}
}

func withRoute(r domain.Route, edit func(*domain.Route)) domain.Route {
	edit(&r)
	return r
}

func confirmRequest(passenger domain.Identity, route domain.Route) service.ConfirmRequest {
	return service.ConfirmRequest{
		Passenger: passenger,
		Pickup:    "Central Station",
		Drop:      "Airport",
		Route:     route,
	}
}

type testEnv struct {
	repo      *MockFleetRepository
	store     *service.FleetStore
	rides     *service.RideService
	quotes    *MockQuoteStore
	publisher *MockPublisher
}

// newTestEnv loads a FleetStore from repo and builds a RideService over it.
func newTestEnv(t *testing.T, repo *MockFleetRepository, opts service.RideServiceOptions) *testEnv {
	t.Helper()

	store := service.NewFleetStore(repo)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}

	env := &testEnv{
		repo:      repo,
		store:     store,
		quotes:    NewMockQuoteStore(),
		publisher: NewMockPublisher(),
	}
	if opts.Quotes == nil {
		opts.Quotes = env.quotes
	}
	if opts.Notifier == nil {
		opts.Notifier = service.NewNotificationService(logging.Discard(), env.publisher)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	estimator := service.NewRouteEstimator(service.NewSeededSource(1))
	env.rides = service.NewRideService(store, estimator, opts)
	t.Cleanup(env.rides.Close)
	return env
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
