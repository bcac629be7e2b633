package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"

	"dispatch/internal/domain"
	"dispatch/internal/observability"
	"dispatch/internal/redis"
)

// DefaultAutoCompleteAfter is how long an in-progress ride runs before it
// completes on its own.
const DefaultAutoCompleteAfter = 20 * time.Second

// DefaultAutoCompleteRetry is how long a failed auto-complete waits before
// it runs again.
const DefaultAutoCompleteRetry = 5 * time.Second

const suggestedDestinationLimit = 3

// RideServiceOptions holds the optional collaborators of a RideService.
type RideServiceOptions struct {
	// AutoCompleteAfter is the auto-complete delay. Zero disables it.
	AutoCompleteAfter time.Duration
	// AutoCompleteRetry delays the next attempt after a failed auto-complete.
	// Zero uses DefaultAutoCompleteRetry.
	AutoCompleteRetry time.Duration
	// Quotes keeps the latest quote per passenger. Nil disables ConfirmQuoted.
	Quotes   redis.QuoteStoreInterface
	Notifier *NotificationService
	Logger   *slog.Logger
	Now      func() time.Time
}

// RideService manages the ride lifecycle: quoting, confirmation, manual and
// timed completion, and cancellation.
type RideService struct {
	store             *FleetStore
	estimator         *RouteEstimator
	quotes            redis.QuoteStoreInterface
	notifier          *NotificationService
	timers            *AutoCompleter
	autoCompleteAfter time.Duration
	autoCompleteRetry time.Duration
	logger            *slog.Logger
	now               func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(store *FleetStore, estimator *RouteEstimator, opts RideServiceOptions) *RideService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AutoCompleteRetry <= 0 {
		opts.AutoCompleteRetry = DefaultAutoCompleteRetry
	}
	return &RideService{
		store:             store,
		estimator:         estimator,
		quotes:            opts.Quotes,
		notifier:          opts.Notifier,
		timers:            NewAutoCompleter(),
		autoCompleteAfter: opts.AutoCompleteAfter,
		autoCompleteRetry: opts.AutoCompleteRetry,
		logger:            opts.Logger,
		now:               opts.Now,
	}
}

// QuoteResult contains a fresh quote batch and whether it can be served now.
type QuoteResult struct {
	Batch        *domain.QuoteBatch
	HasIdleMatch bool
}

// Quote generates three candidate routes for the request and makes them the
// passenger's current quote, superseding any earlier one.
func (s *RideService) Quote(ctx context.Context, passenger domain.Identity, req QuoteRequest) (*QuoteResult, error) {
	routes, err := s.estimator.Quote(req)
	if err != nil {
		return nil, err
	}
	batch := NewQuoteBatch(passenger.Email, req, routes)
	observability.QuotesTotal.Inc()

	if s.quotes != nil && passenger.Email != "" {
		if err := s.quotes.Save(ctx, batch); err != nil {
			s.logger.Warn("cache quote", "passenger", passenger.Email, "error", err)
		}
	}

	return &QuoteResult{
		Batch:        batch,
		HasIdleMatch: s.store.HasIdleMatch(req.VehicleType, req.PassengerCount),
	}, nil
}

// HasIdleMatch reports whether an idle vehicle could serve the request now.
func (s *RideService) HasIdleMatch(vehicleType domain.VehicleType, passengers int) bool {
	return s.store.HasIdleMatch(vehicleType, passengers)
}

// ConfirmRequest contains the parameters for confirming a route.
type ConfirmRequest struct {
	Passenger domain.Identity
	Pickup    string
	Drop      string
	Route     domain.Route
}

// Confirm reserves the first eligible idle vehicle for the route and records
// an in-progress ride. The fare is fixed here from the route distance.
func (s *RideService) Confirm(ctx context.Context, req ConfirmRequest) (*domain.Ride, error) {
	if err := s.validateConfirmRequest(req); err != nil {
		return nil, err
	}

	start := s.now()
	fare := Fare(req.Route.DistanceKm)

	segment := newrelic.FromContext(ctx).StartSegment("fleet.reserve")
	ride, err := s.store.Reserve(ctx, req.Route.VehicleType, req.Route.PassengerCount, func(v *domain.Vehicle) *domain.Ride {
		return &domain.Ride{
			ID:            uuid.New().String(),
			PassengerID:   req.Passenger.Email,
			PassengerName: req.Passenger.Name,
			Pickup:        strings.TrimSpace(req.Pickup),
			Drop:          strings.TrimSpace(req.Drop),
			Route:         req.Route,
			Fare:          fare,
			VehicleID:     v.ID,
			DriverName:    v.DriverName,
			OwnerID:       v.OwnerID,
			Status:        domain.RideStatusInProgress,
			CreatedAt:     s.now(),
		}
	})
	segment.End()
	if err != nil {
		if errors.Is(err, ErrNoMatchingVehicle) {
			observability.NoMatchTotal.Inc()
		} else {
			s.logger.Error("confirm ride", "passenger", req.Passenger.Email, "error", err)
		}
		return nil, err
	}

	observability.ConfirmsTotal.Inc()
	observability.ActiveRides.Inc()
	observability.ConfirmLatency.Observe(s.now().Sub(start).Seconds())
	s.logger.Info("ride confirmed",
		"ride_id", ride.ID,
		"vehicle_id", ride.VehicleID,
		"status", ride.Status,
		"fare", ride.Fare,
	)

	s.arm(ride.ID, s.autoCompleteAfter)

	if s.quotes != nil && req.Passenger.Email != "" {
		if err := s.quotes.Invalidate(ctx, req.Passenger.Email); err != nil {
			s.logger.Warn("invalidate quote", "passenger", req.Passenger.Email, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyRideConfirmed(ctx, ride)
	}

	return ride, nil
}

// ConfirmQuoted confirms a route from the passenger's current quote. Routes
// from a superseded or expired batch fail with ErrQuoteExpired.
func (s *RideService) ConfirmQuoted(ctx context.Context, passenger domain.Identity, batchID string, routeID int) (*domain.Ride, error) {
	if batchID == "" || passenger.Email == "" {
		return nil, fmt.Errorf("%w: quote id and passenger are required", ErrInvalidRequest)
	}
	if s.quotes == nil {
		return nil, ErrQuoteExpired
	}

	batch, err := s.quotes.Get(ctx, passenger.Email)
	if err != nil {
		return nil, fmt.Errorf("load quote: %w", err)
	}
	if batch == nil || batch.ID != batchID {
		return nil, ErrQuoteExpired
	}
	route, ok := batch.Route(routeID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown route %d", ErrInvalidRequest, routeID)
	}

	return s.Confirm(ctx, ConfirmRequest{
		Passenger: passenger,
		Pickup:    batch.Pickup,
		Drop:      batch.Drop,
		Route:     route,
	})
}

// Complete marks an in-progress ride completed and releases its vehicle.
func (s *RideService) Complete(ctx context.Context, rideID string) (*domain.Ride, error) {
	return s.finish(ctx, rideID, domain.RideStatusCompleted, domain.CompletedManually, "")
}

// Cancel marks an in-progress ride cancelled and releases its vehicle. The
// quoted fare is kept on the record.
func (s *RideService) Cancel(ctx context.Context, rideID, reason string) (*domain.Ride, error) {
	return s.finish(ctx, rideID, domain.RideStatusCancelled, "", reason)
}

// CompleteFor completes a ride on behalf of caller, who must be allowed to
// see it.
func (s *RideService) CompleteFor(ctx context.Context, caller domain.Identity, rideID string) (*domain.Ride, error) {
	if _, err := s.RideFor(caller, rideID); err != nil {
		return nil, err
	}
	return s.Complete(ctx, rideID)
}

// CancelFor cancels a ride on behalf of caller, who must be allowed to see it.
func (s *RideService) CancelFor(ctx context.Context, caller domain.Identity, rideID, reason string) (*domain.Ride, error) {
	if _, err := s.RideFor(caller, rideID); err != nil {
		return nil, err
	}
	return s.Cancel(ctx, rideID, reason)
}

func (s *RideService) finish(
	ctx context.Context,
	rideID string,
	status domain.RideStatus,
	cause domain.CompletionCause,
	reason string,
) (*domain.Ride, error) {
	if rideID == "" {
		return nil, fmt.Errorf("%w: ride id is required", ErrInvalidRequest)
	}

	s.timers.Cancel(rideID)

	ride, err := s.store.Finish(ctx, rideID, status, func(r *domain.Ride) {
		at := s.now()
		if status == domain.RideStatusCompleted {
			r.CompletedAt = at
			r.CompletionCause = cause
		} else {
			r.CancelledAt = at
			r.CancelReason = strings.TrimSpace(reason)
		}
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyTerminal) && !errors.Is(err, ErrRideNotFound) {
			s.logger.Error("finish ride", "ride_id", rideID, "status", status, "error", err)
			s.rearm(rideID)
		}
		return nil, err
	}

	s.recordFinished(ctx, ride)
	return ride, nil
}

// autoComplete is the timer callback for rideID.
func (s *RideService) autoComplete(rideID string) {
	ctx := context.Background()
	ride, err := s.store.Finish(ctx, rideID, domain.RideStatusCompleted, func(r *domain.Ride) {
		r.CompletedAt = s.now()
		r.CompletionCause = domain.CompletedAuto
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyTerminal) || errors.Is(err, ErrRideNotFound) {
			s.logger.Debug("auto-complete skipped", "ride_id", rideID, "reason", err)
			return
		}
		s.logger.Error("auto-complete ride", "ride_id", rideID, "retry_in", s.autoCompleteRetry, "error", err)
		s.retry(rideID)
		return
	}

	s.logger.Info("ride auto-completed", "ride_id", rideID, "vehicle_id", ride.VehicleID)
	s.recordFinished(ctx, ride)
}

func (s *RideService) recordFinished(ctx context.Context, ride *domain.Ride) {
	observability.ActiveRides.Dec()
	s.logger.Info("ride finished",
		"ride_id", ride.ID,
		"vehicle_id", ride.VehicleID,
		"status", ride.Status,
	)

	if ride.Status == domain.RideStatusCompleted {
		observability.CompletionsTotal.WithLabelValues(string(ride.CompletionCause)).Inc()
		if s.notifier != nil {
			s.notifier.NotifyRideCompleted(ctx, ride)
		}
		return
	}

	observability.CancellationsTotal.Inc()
	if s.notifier != nil {
		s.notifier.NotifyRideCancelled(ctx, ride)
	}
}

// Resume re-arms auto-complete for every in-progress ride in the store,
// using whatever is left of each ride's delay. It returns the number of
// rides resumed.
func (s *RideService) Resume() int {
	resumed := 0
	for _, r := range s.store.Rides("") {
		if r.Status != domain.RideStatusInProgress {
			continue
		}
		resumed++
		s.arm(r.ID, s.remaining(r))
	}
	observability.ActiveRides.Set(float64(resumed))
	if resumed > 0 {
		s.logger.Info("resumed in-progress rides", "count", resumed)
	}
	return resumed
}

// rearm restores the timer of a ride whose manual transition failed.
func (s *RideService) rearm(rideID string) {
	r, err := s.store.Ride(rideID)
	if err != nil || r.Status != domain.RideStatusInProgress {
		return
	}
	s.arm(rideID, s.remaining(r))
}

// retry re-arms a ride whose timed completion failed, after the fixed retry
// delay.
func (s *RideService) retry(rideID string) {
	r, err := s.store.Ride(rideID)
	if err != nil || r.Status != domain.RideStatusInProgress {
		return
	}
	s.arm(rideID, s.autoCompleteRetry)
}

func (s *RideService) remaining(r *domain.Ride) time.Duration {
	left := r.CreatedAt.Add(s.autoCompleteAfter).Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

func (s *RideService) arm(rideID string, d time.Duration) {
	if s.autoCompleteAfter <= 0 {
		return
	}
	s.timers.Schedule(rideID, d, func() { s.autoComplete(rideID) })
}

// PendingAutoCompletions returns the number of armed auto-complete timers.
func (s *RideService) PendingAutoCompletions() int {
	return s.timers.Pending()
}

// GetRide returns the ride with the given id.
func (s *RideService) GetRide(rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, fmt.Errorf("%w: ride id is required", ErrInvalidRequest)
	}
	return s.store.Ride(rideID)
}

// RideFor returns the ride if caller is its passenger or owns the vehicle
// that served it. Any other caller gets ErrRideNotFound.
func (s *RideService) RideFor(caller domain.Identity, rideID string) (*domain.Ride, error) {
	ride, err := s.GetRide(rideID)
	if err != nil {
		return nil, err
	}
	if caller.Email == "" || (ride.PassengerID != caller.Email && ride.OwnerID != caller.Email) {
		return nil, ErrRideNotFound
	}
	return ride, nil
}

// ListRides returns the rides served by ownerID's vehicles, or all rides
// when ownerID is empty.
func (s *RideService) ListRides(ownerID string) []*domain.Ride {
	return s.store.Rides(ownerID)
}

// ActiveRide returns the passenger's most recent in-progress ride.
func (s *RideService) ActiveRide(passengerID string) (*domain.Ride, error) {
	rides := s.store.Rides("")
	for i := len(rides) - 1; i >= 0; i-- {
		r := rides[i]
		if r.PassengerID == passengerID && r.Status == domain.RideStatusInProgress {
			return r, nil
		}
	}
	return nil, ErrRideNotFound
}

// SuggestedDestinations returns up to three drop labels ordered by how often
// they were ridden to, ties keeping first appearance. An empty passengerID
// counts every ride.
func (s *RideService) SuggestedDestinations(passengerID string) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range s.store.Rides("") {
		if passengerID != "" && r.PassengerID != passengerID {
			continue
		}
		if r.Drop == "" {
			continue
		}
		if counts[r.Drop] == 0 {
			order = append(order, r.Drop)
		}
		counts[r.Drop]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if len(order) > suggestedDestinationLimit {
		order = order[:suggestedDestinationLimit]
	}
	return order
}

// Close stops every pending auto-complete timer and waits for callbacks
// already running.
func (s *RideService) Close() {
	s.timers.Stop()
}

func (s *RideService) validateConfirmRequest(req ConfirmRequest) error {
	if req.Passenger.Email == "" {
		return fmt.Errorf("%w: passenger identity is required", ErrInvalidRequest)
	}
	if err := validateTrip(req.Pickup, req.Drop, req.Route.VehicleType, req.Route.PassengerCount); err != nil {
		return err
	}
	return ValidateRoute(req.Route)
}
