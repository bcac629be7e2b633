package redis

import (
	"context"

	"dispatch/internal/domain"
)

// QuoteStoreInterface defines the interface for per-passenger quote sessions.
type QuoteStoreInterface interface {
	Save(ctx context.Context, batch *domain.QuoteBatch) error
	Get(ctx context.Context, passengerID string) (*domain.QuoteBatch, error)
	Invalidate(ctx context.Context, passengerID string) error
}

// Ensure concrete types implement interfaces.
var _ QuoteStoreInterface = (*QuoteCache)(nil)
