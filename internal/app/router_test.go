package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/handler"
	"dispatch/internal/logging"
	"dispatch/internal/middleware"
	"dispatch/internal/service"
	"dispatch/internal/tests"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	rides  *service.RideService
}

func newTestServer(t *testing.T, fleet ...*domain.Vehicle) *testServer {
	t.Helper()

	logger := logging.Discard()
	store := service.NewFleetStore(tests.NewMockFleetRepository(fleet...))
	if err := store.Load(t.Context()); err != nil {
		t.Fatalf("load store: %v", err)
	}

	rides := service.NewRideService(store, service.NewRouteEstimator(service.NewSeededSource(3)), service.RideServiceOptions{
		Quotes: tests.NewMockQuoteStore(),
		Logger: logger,
	})
	t.Cleanup(rides.Close)
	scheduled := service.NewScheduledRideService(tests.NewMockScheduledRideRepository(), store, service.ScheduledRideServiceOptions{
		Logger: logger,
	})
	fleetService := service.NewFleetService(store, scheduled, nil, logger)

	router := NewRouter(RouterDeps{
		RideHandler:          handler.NewRideHandler(rides),
		FleetHandler:         handler.NewFleetHandler(fleetService, scheduled, nil, logger),
		ScheduledRideHandler: handler.NewScheduledRideHandler(scheduled),
		AdviceHandler:        handler.NewAdviceHandler(nil),
	})
	return &testServer{router: router, rides: rides}
}

func (s *testServer) do(t *testing.T, method, path string, who domain.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who.Email != "" {
		req.Header.Set(middleware.UserNameHeader, who.Name)
		req.Header.Set(middleware.UserEmailHeader, who.Email)
		req.Header.Set(middleware.UserRoleHeader, string(who.Role))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

var (
	passenger = domain.Identity{Name: "Asha", Email: "asha@example.com", Role: domain.RolePassenger}
	stranger  = domain.Identity{Name: "Kiran", Email: "kiran@example.com", Role: domain.RolePassenger}
	owner     = domain.Identity{Name: "Fleet Co", Email: "ops@fleet.example.com", Role: domain.RoleFleetOwner}
)

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodGet, "/health", domain.Identity{}, nil); w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}
}

func TestRouter_QuoteConfirmComplete(t *testing.T) {
	s := newTestServer(t, &domain.Vehicle{
		ID: "v1", Name: "Sedan", DriverName: "Ravi", Type: domain.VehicleTypeNormal, Capacity: 4,
		MaintenanceStatus: domain.MaintenanceHealthy, Status: domain.VehicleStatusIdle, OwnerID: owner.Email,
	})

	w := s.do(t, http.MethodPost, "/v1/quotes", passenger, handler.QuoteRequest{
		Pickup: "Station", Drop: "Airport", VehicleType: "Normal", PassengerCount: 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /v1/quotes = %d: %s", w.Code, w.Body.String())
	}
	quote := decode[handler.QuoteResponse](t, w)
	if len(quote.Routes) != 3 || !quote.HasIdleMatch {
		t.Fatalf("unexpected quote %+v", quote)
	}

	w = s.do(t, http.MethodPost, "/v1/rides", passenger, handler.ConfirmRideRequest{QuoteID: quote.QuoteID, RouteID: 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /v1/rides = %d: %s", w.Code, w.Body.String())
	}
	ride := decode[handler.RideResponse](t, w)
	if ride.VehicleID != "v1" || ride.Status != string(domain.RideStatusInProgress) {
		t.Errorf("unexpected ride %+v", ride)
	}

	w = s.do(t, http.MethodGet, "/v1/availability?vehicle_type=Normal&passenger_count=1", passenger, nil)
	if got := decode[map[string]any](t, w); got["available"] != false {
		t.Errorf("expected no availability while the only vehicle is busy, got %v", got)
	}

	w = s.do(t, http.MethodPost, "/v1/rides", passenger, handler.ConfirmRideRequest{QuoteID: quote.QuoteID, RouteID: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("reusing a consumed quote = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodPost, "/v1/rides/"+ride.ID+"/complete", passenger, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete = %d: %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodPost, "/v1/rides/"+ride.ID+"/cancel", passenger, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("cancel after complete = %d, want 409", w.Code)
	}

	w = s.do(t, http.MethodGet, "/v1/rides", passenger, nil)
	if rides := decode[[]handler.RideResponse](t, w); len(rides) != 1 {
		t.Errorf("passenger sees %d rides, want 1", len(rides))
	}
}

func TestRouter_ConfirmWithoutVehicle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/rides", passenger, handler.ConfirmRideRequest{
		Pickup: "Station",
		Drop:   "Airport",
		Route: &handler.RouteResponse{
			ID: 1, Name: "Main St Route", Traffic: "All Clear", DistanceKm: 2.1,
			ETAMinutes: 11, VehicleType: "Emergency", PassengerCount: 1,
		},
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("confirm on empty fleet = %d, want 503", w.Code)
	}
}

func TestRouter_RidesScopedToCaller(t *testing.T) {
	s := newTestServer(t, &domain.Vehicle{
		ID: "v1", Name: "Sedan", DriverName: "Ravi", Type: domain.VehicleTypeNormal, Capacity: 4,
		MaintenanceStatus: domain.MaintenanceHealthy, Status: domain.VehicleStatusIdle, OwnerID: owner.Email,
	})

	w := s.do(t, http.MethodPost, "/v1/quotes", passenger, handler.QuoteRequest{
		Pickup: "Station", Drop: "Airport", VehicleType: "Normal", PassengerCount: 1,
	})
	quote := decode[handler.QuoteResponse](t, w)
	w = s.do(t, http.MethodPost, "/v1/rides", passenger, handler.ConfirmRideRequest{QuoteID: quote.QuoteID, RouteID: 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /v1/rides = %d: %s", w.Code, w.Body.String())
	}
	ride := decode[handler.RideResponse](t, w)
	path := "/v1/rides/" + ride.ID

	if w := s.do(t, http.MethodGet, path, domain.Identity{}, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous read = %d, want 401", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, stranger, nil); w.Code != http.StatusNotFound {
		t.Errorf("other passenger read = %d, want 404", w.Code)
	}
	if w := s.do(t, http.MethodPost, path+"/complete", stranger, nil); w.Code != http.StatusNotFound {
		t.Errorf("other passenger complete = %d, want 404", w.Code)
	}
	if w := s.do(t, http.MethodPost, path+"/cancel", domain.Identity{}, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous cancel = %d, want 401", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, owner, nil); w.Code != http.StatusOK {
		t.Errorf("vehicle owner read = %d, want 200", w.Code)
	}
	if w := s.do(t, http.MethodPost, path+"/cancel", passenger, nil); w.Code != http.StatusOK {
		t.Errorf("passenger cancel = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRouter_RequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/v1/quotes", domain.Identity{}, handler.QuoteRequest{}); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous quote = %d, want 401", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/v1/fleet/vehicles", passenger, nil); w.Code != http.StatusForbidden {
		t.Errorf("passenger on fleet route = %d, want 403", w.Code)
	}
}

func TestRouter_FleetVehicles(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/fleet/vehicles", owner, handler.AddVehicleRequest{
		Name: "Ambulance 1", DriverName: "Meera", Location: "Central", Type: "Emergency", Capacity: 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add vehicle = %d: %s", w.Code, w.Body.String())
	}
	added := decode[handler.VehicleResponse](t, w)
	if added.Status != string(domain.VehicleStatusIdle) || added.MaintenanceStatus != string(domain.MaintenanceHealthy) {
		t.Errorf("unexpected vehicle %+v", added)
	}

	w = s.do(t, http.MethodGet, "/v1/fleet/dashboard", owner, nil)
	dash := decode[handler.DashboardResponse](t, w)
	if dash.TotalVehicles != 1 || dash.Maintenance["Healthy"] != 1 {
		t.Errorf("unexpected dashboard %+v", dash)
	}

	w = s.do(t, http.MethodDelete, "/v1/fleet/vehicles/"+added.ID, owner, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("remove vehicle = %d, want 204", w.Code)
	}
	w = s.do(t, http.MethodDelete, "/v1/fleet/vehicles/"+added.ID, owner, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("remove missing vehicle = %d, want 404", w.Code)
	}
}

func TestRouter_ScheduleRideInPast(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/scheduled-rides", passenger, handler.ScheduleRideRequest{
		Pickup: "Home", Drop: "Airport", Date: "2001-01-01", Time: "07:00", VehicleType: "Normal", PassengerCount: 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("schedule in the past = %d, want 400", w.Code)
	}
}

func TestRouter_AdviceUnavailable(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/routes/advice?pickup=A&drop=B", passenger, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("advice without advisor = %d, want 503", w.Code)
	}
}
