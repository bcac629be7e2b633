package service

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"dispatch/internal/domain"
)

const (
	minRouteDistanceKm = 2.0
	routeDistanceSpan  = 0.5
	minutesPerKm       = 5.0
	maxETAJitter       = 2.0

	farePerKm = 5.0
	baseFare  = 5.0
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// NewSeededSource returns a deterministic RandomSource.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type routeTemplate struct {
	name    string
	traffic domain.TrafficStatus
	path    string
}

// Candidate routes are alternatives for one request, one per traffic class.
var routeTemplates = []routeTemplate{
	{name: "Main St Route", traffic: domain.TrafficAllClear, path: "M 100 450 C 150 300, 250 250, 350 280 S 500 350, 600 300 S 750 200, 800 150"},
	{name: "Highway Route", traffic: domain.TrafficBusy, path: "M 100 450 C 180 480, 280 400, 400 380 S 550 420, 650 350 S 780 250, 800 150"},
	{name: "City Bypass", traffic: domain.TrafficMuchBusy, path: "M 100 450 Q 200 550, 400 500 T 650 400 Q 750 350, 800 150"},
}

// RouteEstimator produces candidate routes with synthetic distance and ETA.
type RouteEstimator struct {
	mu  sync.Mutex
	rng RandomSource
}

// NewRouteEstimator creates a RouteEstimator. A nil source uses the
// process-wide generator.
func NewRouteEstimator(rng RandomSource) *RouteEstimator {
	if rng == nil {
		rng = globalRandom{}
	}
	return &RouteEstimator{rng: rng}
}

// QuoteRequest contains the parameters for quoting a trip.
type QuoteRequest struct {
	Pickup         string
	Drop           string
	VehicleType    domain.VehicleType
	PassengerCount int
}

// Quote returns exactly three candidate routes for the request.
func (e *RouteEstimator) Quote(req QuoteRequest) ([]domain.Route, error) {
	if err := validateTrip(req.Pickup, req.Drop, req.VehicleType, req.PassengerCount); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	routes := make([]domain.Route, 0, len(routeTemplates))
	for i, tmpl := range routeTemplates {
		distance := roundTenth(minRouteDistanceKm + e.rng.Float64()*routeDistanceSpan)
		eta := math.Round(distance*minutesPerKm*tmpl.traffic.Factor() + e.rng.Float64()*maxETAJitter)
		routes = append(routes, domain.Route{
			ID:             i + 1,
			Name:           tmpl.name,
			Traffic:        tmpl.traffic,
			Path:           tmpl.path,
			DistanceKm:     distance,
			ETAMinutes:     int(eta),
			VehicleType:    req.VehicleType,
			PassengerCount: req.PassengerCount,
		})
	}
	return routes, nil
}

// NewQuoteBatch wraps freshly quoted routes for a passenger.
func NewQuoteBatch(passengerID string, req QuoteRequest, routes []domain.Route) *domain.QuoteBatch {
	return &domain.QuoteBatch{
		ID:          uuid.New().String(),
		PassengerID: passengerID,
		Pickup:      strings.TrimSpace(req.Pickup),
		Drop:        strings.TrimSpace(req.Drop),
		Routes:      routes,
	}
}

// ValidateRoute checks that r is a route the estimator could have quoted:
// a known id carrying its own traffic class, a distance inside the quoted
// range and a positive ETA no longer than the slowest quote.
func ValidateRoute(r domain.Route) error {
	if r.ID < 1 || r.ID > len(routeTemplates) {
		return fmt.Errorf("%w: unknown route %d", ErrInvalidRequest, r.ID)
	}
	if want := routeTemplates[r.ID-1].traffic; r.Traffic != want {
		return fmt.Errorf("%w: route %d has traffic %q, want %q", ErrInvalidRequest, r.ID, r.Traffic, want)
	}
	maxDistance := minRouteDistanceKm + routeDistanceSpan
	if math.IsNaN(r.DistanceKm) || r.DistanceKm < minRouteDistanceKm || r.DistanceKm > maxDistance {
		return fmt.Errorf("%w: route distance %v km outside [%v, %v]", ErrInvalidRequest, r.DistanceKm, minRouteDistanceKm, maxDistance)
	}
	if r.ETAMinutes < 1 || r.ETAMinutes > maxQuotedETA() {
		return fmt.Errorf("%w: route eta %d minutes outside [1, %d]", ErrInvalidRequest, r.ETAMinutes, maxQuotedETA())
	}
	return nil
}

func maxQuotedETA() int {
	slowest := (minRouteDistanceKm + routeDistanceSpan) * minutesPerKm * domain.TrafficMuchBusy.Factor()
	return int(math.Round(slowest + maxETAJitter))
}

// Fare computes the charge for a confirmed route. Traffic does not affect it.
func Fare(distanceKm float64) int {
	return int(math.Floor(distanceKm*farePerKm + baseFare))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func validateTrip(pickup, drop string, vehicleType domain.VehicleType, passengers int) error {
	if strings.TrimSpace(pickup) == "" {
		return fmt.Errorf("%w: pickup is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(drop) == "" {
		return fmt.Errorf("%w: drop is required", ErrInvalidRequest)
	}
	if !vehicleType.Valid() {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidRequest, vehicleType)
	}
	if passengers < 1 {
		return fmt.Errorf("%w: passenger count must be at least 1", ErrInvalidRequest)
	}
	return nil
}
