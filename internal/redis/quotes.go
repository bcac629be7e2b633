package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

// DefaultQuoteTTL bounds how long a passenger may sit on a quote before
// confirming it.
const DefaultQuoteTTL = 10 * time.Minute

const quotePrefix = "quote:passenger:"

// QuoteCache keeps the latest quote batch per passenger. Writing a new batch
// replaces the previous one, which makes its routes unconfirmable.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteCache creates a new QuoteCache. A non-positive ttl uses DefaultQuoteTTL.
func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{client: client, ttl: ttl}
}

type cachedRoute struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Traffic        string  `json:"traffic"`
	Path           string  `json:"path"`
	DistanceKm     float64 `json:"distance_km"`
	ETAMinutes     int     `json:"eta_minutes"`
	VehicleType    string  `json:"vehicle_type"`
	PassengerCount int     `json:"passenger_count"`
}

type cachedQuote struct {
	ID          string        `json:"id"`
	PassengerID string        `json:"passenger_id"`
	Pickup      string        `json:"pickup"`
	Drop        string        `json:"drop"`
	Routes      []cachedRoute `json:"routes"`
}

// Save stores batch as the passenger's current quote.
func (c *QuoteCache) Save(ctx context.Context, batch *domain.QuoteBatch) error {
	cq := cachedQuote{
		ID:          batch.ID,
		PassengerID: batch.PassengerID,
		Pickup:      batch.Pickup,
		Drop:        batch.Drop,
		Routes:      make([]cachedRoute, 0, len(batch.Routes)),
	}
	for _, r := range batch.Routes {
		cq.Routes = append(cq.Routes, cachedRoute{
			ID:             r.ID,
			Name:           r.Name,
			Traffic:        string(r.Traffic),
			Path:           r.Path,
			DistanceKm:     r.DistanceKm,
			ETAMinutes:     r.ETAMinutes,
			VehicleType:    string(r.VehicleType),
			PassengerCount: r.PassengerCount,
		})
	}

	data, err := json.Marshal(cq)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quotePrefix+batch.PassengerID, data, c.ttl).Err()
}

// Get returns the passenger's current quote, or nil on a cache miss.
func (c *QuoteCache) Get(ctx context.Context, passengerID string) (*domain.QuoteBatch, error) {
	data, err := c.client.Get(ctx, quotePrefix+passengerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cq cachedQuote
	if err := json.Unmarshal(data, &cq); err != nil {
		return nil, err
	}

	batch := &domain.QuoteBatch{
		ID:          cq.ID,
		PassengerID: cq.PassengerID,
		Pickup:      cq.Pickup,
		Drop:        cq.Drop,
		Routes:      make([]domain.Route, 0, len(cq.Routes)),
	}
	for _, r := range cq.Routes {
		batch.Routes = append(batch.Routes, domain.Route{
			ID:             r.ID,
			Name:           r.Name,
			Traffic:        domain.TrafficStatus(r.Traffic),
			Path:           r.Path,
			DistanceKm:     r.DistanceKm,
			ETAMinutes:     r.ETAMinutes,
			VehicleType:    domain.VehicleType(r.VehicleType),
			PassengerCount: r.PassengerCount,
		})
	}
	return batch, nil
}

// Invalidate removes the passenger's current quote.
func (c *QuoteCache) Invalidate(ctx context.Context, passengerID string) error {
	return c.client.Del(ctx, quotePrefix+passengerID).Err()
}
