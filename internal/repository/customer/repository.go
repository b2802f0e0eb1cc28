package customer

import (
	"context"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// Repository stores customer aggregates keyed by phone number. Writes for
// different customers never touch each other's rows.
type Repository interface {
	// GetByPhone returns the aggregate or domain.ErrNotFound.
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	// Upsert writes the whole aggregate.
	Upsert(ctx context.Context, c *domain.Customer) error
}
