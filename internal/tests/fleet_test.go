package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/logging"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

var ownerIdentityA = domain.Identity{Name: "Owner A", Email: ownerA, Role: domain.RoleFleetOwner}

type fleetEnv struct {
	*testEnv
	scheduledRepo *MockScheduledRideRepository
	scheduled     *service.ScheduledRideService
	fleet         *service.FleetService
}

func newFleetEnv(t *testing.T, repo *MockFleetRepository, now time.Time) *fleetEnv {
	t.Helper()

	env := newTestEnv(t, repo, service.RideServiceOptions{Now: fixedClock(now)})
	notifier := service.NewNotificationService(logging.Discard(), env.publisher)
	scheduledRepo := NewMockScheduledRideRepository()
	scheduled := service.NewScheduledRideService(scheduledRepo, env.store, service.ScheduledRideServiceOptions{
		Notifier: notifier,
		Logger:   logging.Discard(),
		Now:      fixedClock(now),
	})
	return &fleetEnv{
		testEnv:       env,
		scheduledRepo: scheduledRepo,
		scheduled:     scheduled,
		fleet:         service.NewFleetService(env.store, scheduled, notifier, logging.Discard()),
	}
}

// ──────────────────────────────────────────────
// 1. VEHICLE MANAGEMENT
// ──────────────────────────────────────────────

func TestAddVehicle_DefaultsToIdleAndHealthy(t *testing.T) {
	t.Parallel()

	repo := NewMockFleetRepository()
	env := newFleetEnv(t, repo, time.Now())

	v, err := env.fleet.AddVehicle(context.Background(), service.AddVehicleRequest{
		Owner:      ownerIdentityA,
		Name:       " Sedan 7 ",
		DriverName: "Ravi",
		Location:   "North Depot",
		Type:       domain.VehicleTypeNormal,
		Capacity:   4,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if v.ID == "" {
		t.Error("expected vehicle ID to be set")
	}
	if v.Name != "Sedan 7" {
		t.Errorf("expected trimmed name, got %q", v.Name)
	}
	if v.Status != domain.VehicleStatusIdle {
		t.Errorf("expected status %s, got %s", domain.VehicleStatusIdle, v.Status)
	}
	if v.MaintenanceStatus != domain.MaintenanceHealthy {
		t.Errorf("expected maintenance %s, got %s", domain.MaintenanceHealthy, v.MaintenanceStatus)
	}
	if v.OwnerID != ownerA {
		t.Errorf("expected owner %s, got %s", ownerA, v.OwnerID)
	}
	if repo.PersistedVehicle(v.ID) == nil {
		t.Error("expected vehicle to be persisted")
	}
	if got := len(env.publisher.Events(events.VehicleAdded)); got != 1 {
		t.Errorf("expected 1 vehicle event, got %d", got)
	}
}

func TestAddVehicle_InvalidInput_Rejected(t *testing.T) {
	t.Parallel()

	valid := service.AddVehicleRequest{
		Owner:      ownerIdentityA,
		Name:       "Sedan",
		DriverName: "Ravi",
		Location:   "Depot",
		Type:       domain.VehicleTypeNormal,
		Capacity:   4,
	}

	testCases := []struct {
		name   string
		mutate func(r *service.AddVehicleRequest)
	}{
		{"missing owner", func(r *service.AddVehicleRequest) { r.Owner = domain.Identity{} }},
		{"missing name", func(r *service.AddVehicleRequest) { r.Name = "  " }},
		{"missing driver", func(r *service.AddVehicleRequest) { r.DriverName = "" }},
		{"missing location", func(r *service.AddVehicleRequest) { r.Location = "" }},
		{"unknown type", func(r *service.AddVehicleRequest) { r.Type = "Truck" }},
		{"zero capacity", func(r *service.AddVehicleRequest) { r.Capacity = 0 }},
		{"unknown maintenance", func(r *service.AddVehicleRequest) { r.MaintenanceStatus = "Broken" }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMockFleetRepository()
			env := newFleetEnv(t, repo, time.Now())

			req := valid
			tc.mutate(&req)
			if _, err := env.fleet.AddVehicle(context.Background(), req); !errors.Is(err, service.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if got := repo.SaveCallCount; got != 0 {
				t.Errorf("expected no writes, got %d", got)
			}
		})
	}
}

func TestRemoveVehicle_BusyUntilRideEnds(t *testing.T) {
	t.Parallel()

	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA))
	env := newFleetEnv(t, repo, time.Now())
	ctx := context.Background()

	ride, err := env.rides.Confirm(ctx, confirmRequest(alice, testRoute(domain.VehicleTypeNormal, 1, 2.0)))
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if err := env.fleet.RemoveVehicle(ctx, ownerIdentityA, "v1"); !errors.Is(err, service.ErrVehicleBusy) {
		t.Fatalf("expected ErrVehicleBusy, got %v", err)
	}
	if len(env.fleet.ListVehicles(ownerA)) != 1 {
		t.Fatal("expected busy vehicle to remain in the fleet")
	}

	if _, err := env.rides.Complete(ctx, ride.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := env.fleet.RemoveVehicle(ctx, ownerIdentityA, "v1"); err != nil {
		t.Fatalf("expected removal to succeed, got: %v", err)
	}
	if got := len(env.fleet.ListVehicles("")); got != 0 {
		t.Errorf("expected empty fleet, got %d vehicles", got)
	}
	if repo.PersistedVehicle("v1") != nil {
		t.Error("expected removal to be persisted")
	}

	// Historical rides keep pointing at the removed vehicle.
	if _, err := env.rides.GetRide(ride.ID); err != nil {
		t.Errorf("expected ride to survive vehicle removal, got: %v", err)
	}
}

func TestRemoveVehicle_Errors(t *testing.T) {
	t.Parallel()

	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerB))
	env := newFleetEnv(t, repo, time.Now())
	ctx := context.Background()

	if err := env.fleet.RemoveVehicle(ctx, ownerIdentityA, "v1"); !errors.Is(err, service.ErrNotVehicleOwner) {
		t.Errorf("expected ErrNotVehicleOwner, got %v", err)
	}
	if err := env.fleet.RemoveVehicle(ctx, ownerIdentityA, "missing"); !errors.Is(err, service.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}
	if err := env.fleet.RemoveVehicle(ctx, ownerIdentityA, ""); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. DASHBOARD, ANALYTICS AND HISTORY
// ──────────────────────────────────────────────

func seedOwnerHistory(repo *MockFleetRepository) {
	day1 := time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	repo.AddRide(&domain.Ride{ID: "r1", PassengerName: "Alice", DriverName: "Driver v1", VehicleID: "v1", OwnerID: ownerA, Fare: 15, Status: domain.RideStatusCompleted, CreatedAt: day2})
	repo.AddRide(&domain.Ride{ID: "r2", PassengerName: "Bob", DriverName: "Driver v1", VehicleID: "v1", OwnerID: ownerA, Fare: 16, Status: domain.RideStatusCompleted, CreatedAt: day1})
	repo.AddRide(&domain.Ride{ID: "r3", PassengerName: "Bob", DriverName: "Driver v1", VehicleID: "v1", OwnerID: ownerA, Fare: 17, Status: domain.RideStatusCompleted, CreatedAt: day2})
	repo.AddRide(&domain.Ride{ID: "r4", PassengerName: "Alice", DriverName: "Driver v1", VehicleID: "v1", OwnerID: ownerA, Fare: 15, Status: domain.RideStatusCancelled, CreatedAt: day2})
	repo.AddRide(&domain.Ride{ID: "r5", PassengerName: "Carol", DriverName: "Driver v9", VehicleID: "v9", OwnerID: ownerB, Fare: 20, Status: domain.RideStatusCompleted, CreatedAt: day1})
}

func TestDashboard_CountsOwnFleetOnly(t *testing.T) {
	t.Parallel()

	due := newVehicle("v2", domain.VehicleTypeEmergency, 2, ownerA)
	due.MaintenanceStatus = domain.MaintenanceDue
	repo := NewMockFleetRepository(
		newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA),
		due,
		newVehicle("v9", domain.VehicleTypeNormal, 4, ownerB),
	)
	seedOwnerHistory(repo)
	env := newFleetEnv(t, repo, time.Now())

	if _, err := env.rides.Confirm(context.Background(), confirmRequest(alice, testRoute(domain.VehicleTypeEmergency, 1, 2.0))); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	stats := env.fleet.Dashboard(ownerA)
	if stats.TotalVehicles != 2 {
		t.Errorf("expected 2 vehicles, got %d", stats.TotalVehicles)
	}
	if stats.ActiveRides != 1 {
		t.Errorf("expected 1 active ride, got %d", stats.ActiveRides)
	}
	if stats.CompletedRides != 3 {
		t.Errorf("expected 3 completed rides, got %d", stats.CompletedRides)
	}
	if stats.Maintenance[domain.MaintenanceHealthy] != 1 || stats.Maintenance[domain.MaintenanceDue] != 1 {
		t.Errorf("unexpected maintenance breakdown %v", stats.Maintenance)
	}
	if n, ok := stats.Maintenance[domain.MaintenanceCritical]; !ok || n != 0 {
		t.Errorf("expected Critical bucket present with 0, got %v", stats.Maintenance)
	}
}

func TestAnalytics_GroupsCompletedRidesByDate(t *testing.T) {
	t.Parallel()

	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA))
	seedOwnerHistory(repo)
	env := newFleetEnv(t, repo, time.Now())

	days := env.fleet.Analytics(ownerA)
	want := []domain.DailyRideStats{
		{Date: "2026-10-13", Rides: 1, Fare: 16},
		{Date: "2026-10-14", Rides: 2, Fare: 32},
	}
	if len(days) != len(want) {
		t.Fatalf("expected %v, got %v", want, days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d: expected %+v, got %+v", i, want[i], days[i])
		}
	}
}

func TestHistory_RidesThenReconciledBookings(t *testing.T) {
	t.Parallel()

	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA))
	seedOwnerHistory(repo)
	env := newFleetEnv(t, repo, time.Now())

	env.scheduledRepo.AddScheduledRide(&domain.ScheduledRide{
		ID: "s1", PassengerName: "Dan", Date: "2026-11-01", Time: "08:30",
		VehicleType: domain.VehicleTypeNormal, PassengerCount: 3, Status: domain.ScheduledRideScheduled,
	})
	env.scheduledRepo.AddScheduledRide(&domain.ScheduledRide{
		ID: "s2", PassengerName: "Eve", Date: "2026-11-02", Time: "09:00",
		VehicleType: domain.VehicleTypeEmergency, PassengerCount: 1, Status: domain.ScheduledRideScheduled,
	})

	entries, err := env.fleet.History(context.Background(), ownerA)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 4 rides and 1 booking, got %d entries", len(entries))
	}

	if entries[0].ID != "r1" || entries[0].Fare != "15" || entries[0].Date != "2026-10-14" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[3].Status != string(domain.RideStatusCancelled) || entries[3].Fare != "15" {
		t.Errorf("expected cancelled ride to keep its fare, got %+v", entries[3])
	}

	booking := entries[4]
	if booking.ID != "s1" {
		t.Fatalf("expected booking s1, got %s", booking.ID)
	}
	if booking.Driver != domain.UnassignedDriver || booking.Fare != domain.FareNotAvailable {
		t.Errorf("expected placeholder driver and fare, got %+v", booking)
	}
	if booking.Status != string(domain.ScheduledRidePending) {
		t.Errorf("expected status %s, got %s", domain.ScheduledRidePending, booking.Status)
	}
}

// ──────────────────────────────────────────────
// 3. ADVANCE BOOKINGS
// ──────────────────────────────────────────────

func TestScheduleRide_Validation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	valid := service.ScheduleRideRequest{
		Passenger:      alice,
		Pickup:         "Home",
		Drop:           "Airport",
		Date:           "2026-10-15",
		Time:           "06:15",
		VehicleType:    domain.VehicleTypeNormal,
		PassengerCount: 2,
	}

	testCases := []struct {
		name    string
		mutate  func(r *service.ScheduleRideRequest)
		wantErr error
	}{
		{"today is allowed", func(r *service.ScheduleRideRequest) {}, nil},
		{"future date", func(r *service.ScheduleRideRequest) { r.Date = "2027-01-01" }, nil},
		{"yesterday", func(r *service.ScheduleRideRequest) { r.Date = "2026-10-14" }, service.ErrInvalidDate},
		{"missing date", func(r *service.ScheduleRideRequest) { r.Date = "" }, service.ErrInvalidRequest},
		{"missing time", func(r *service.ScheduleRideRequest) { r.Time = " " }, service.ErrInvalidRequest},
		{"malformed date", func(r *service.ScheduleRideRequest) { r.Date = "15/10/2026" }, service.ErrInvalidRequest},
		{"malformed time", func(r *service.ScheduleRideRequest) { r.Time = "25:99" }, service.ErrInvalidRequest},
		{"missing drop", func(r *service.ScheduleRideRequest) { r.Drop = "" }, service.ErrInvalidRequest},
		{"anonymous", func(r *service.ScheduleRideRequest) { r.Passenger = domain.Identity{} }, service.ErrInvalidRequest},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newFleetEnv(t, NewMockFleetRepository(), now)
			req := valid
			tc.mutate(&req)

			ride, err := env.scheduled.ScheduleRide(context.Background(), req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				if env.scheduledRepo.Count() != 0 {
					t.Error("expected nothing to be stored")
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if ride.Status != domain.ScheduledRideScheduled {
				t.Errorf("expected status %s, got %s", domain.ScheduledRideScheduled, ride.Status)
			}
			if ride.PassengerID != alice.Email {
				t.Errorf("expected passenger %s, got %s", alice.Email, ride.PassengerID)
			}
			if env.scheduledRepo.Count() != 1 {
				t.Error("expected booking to be stored")
			}
		})
	}
}

func TestScheduleRide_ReservesNoVehicle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA))
	env := newFleetEnv(t, repo, now)

	_, err := env.scheduled.ScheduleRide(context.Background(), service.ScheduleRideRequest{
		Passenger: alice, Pickup: "Home", Drop: "Airport", Date: "2026-10-20", Time: "07:00",
		VehicleType: domain.VehicleTypeNormal, PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	v, _ := env.store.Vehicle("v1")
	if v.Status != domain.VehicleStatusIdle {
		t.Errorf("expected vehicle to stay idle, got %s", v.Status)
	}
	if got := repo.SaveCallCount; got != 0 {
		t.Errorf("expected no fleet writes, got %d", got)
	}
	if got := len(env.publisher.Events(events.RideScheduled)); got != 1 {
		t.Errorf("expected 1 scheduled event, got %d", got)
	}
}

func TestScheduleRide_PersistFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	env := newFleetEnv(t, NewMockFleetRepository(), now)
	env.scheduledRepo.CreateError = errors.New("insert failed")

	_, err := env.scheduled.ScheduleRide(context.Background(), service.ScheduleRideRequest{
		Passenger: alice, Pickup: "Home", Drop: "Airport", Date: "2026-10-20", Time: "07:00",
		VehicleType: domain.VehicleTypeNormal, PassengerCount: 1,
	})
	if !errors.Is(err, env.scheduledRepo.CreateError) {
		t.Errorf("expected wrapped persistence error, got %v", err)
	}
}

func TestListForPassenger_FiltersByPassenger(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	env := newFleetEnv(t, NewMockFleetRepository(), now)
	ctx := context.Background()

	for _, p := range []domain.Identity{alice, bob, alice} {
		_, err := env.scheduled.ScheduleRide(ctx, service.ScheduleRideRequest{
			Passenger: p, Pickup: "Home", Drop: "Airport", Date: "2026-10-20", Time: "07:00",
			VehicleType: domain.VehicleTypeNormal, PassengerCount: 1,
		})
		if err != nil {
			t.Fatalf("schedule failed: %v", err)
		}
	}

	mine, err := env.scheduled.ListForPassenger(ctx, alice.Email)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 bookings for alice, got %d", len(mine))
	}

	all, err := env.scheduled.ListForPassenger(ctx, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 bookings in total, got %d", len(all))
	}
}

func TestReconcileScheduled_OwnerFleetDecidesVisibility(t *testing.T) {
	t.Parallel()

	busy := newVehicle("amb", domain.VehicleTypeEmergency, 2, ownerB)
	busy.Status = domain.VehicleStatusOnRide
	repo := NewMockFleetRepository(newVehicle("v1", domain.VehicleTypeNormal, 4, ownerA), busy)
	env := newFleetEnv(t, repo, time.Now())

	env.scheduledRepo.AddScheduledRide(&domain.ScheduledRide{ID: "normal", VehicleType: domain.VehicleTypeNormal, PassengerCount: 4, Status: domain.ScheduledRideScheduled})
	env.scheduledRepo.AddScheduledRide(&domain.ScheduledRide{ID: "emergency", VehicleType: domain.VehicleTypeEmergency, PassengerCount: 1, Status: domain.ScheduledRideScheduled})

	forA, err := env.scheduled.ReconcileScheduled(context.Background(), ownerA)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(forA) != 1 || forA[0].ID != "normal" {
		t.Errorf("expected only the Normal booking for owner A, got %+v", forA)
	}

	// A vehicle on a ride still counts as able to serve a future booking.
	forB, err := env.scheduled.ReconcileScheduled(context.Background(), ownerB)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(forB) != 1 || forB[0].ID != "emergency" {
		t.Errorf("expected only the Emergency booking for owner B, got %+v", forB)
	}
}

func TestGetScheduledRide_PassengerSeesOwnOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	env := newFleetEnv(t, NewMockFleetRepository(), now)
	ctx := context.Background()

	booked, err := env.scheduled.ScheduleRide(ctx, service.ScheduleRideRequest{
		Passenger: alice, Pickup: "Home", Drop: "Airport", Date: "2026-10-20", Time: "07:00",
		VehicleType: domain.VehicleTypeNormal, PassengerCount: 1,
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	got, err := env.scheduled.GetScheduledRide(ctx, alice, booked.ID)
	if err != nil || got.ID != booked.ID {
		t.Errorf("expected alice to read her booking, got %v, %v", got, err)
	}
	if _, err := env.scheduled.GetScheduledRide(ctx, bob, booked.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another passenger, got %v", err)
	}
	if _, err := env.scheduled.GetScheduledRide(ctx, ownerIdentityA, booked.ID); err != nil {
		t.Errorf("expected fleet owner to read the booking, got %v", err)
	}
	if _, err := env.scheduled.GetScheduledRide(ctx, alice, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}
