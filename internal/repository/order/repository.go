package order

import (
	"context"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// Repository is the durable order store. Orders are immutable after creation
// except for status transitions.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	// ListByNumberPrefix returns orders whose order number starts with the
	// prefix (the YYYYMMDD date component), newest first.
	ListByNumberPrefix(ctx context.Context, prefix string) ([]domain.Order, error)
	// CountActive counts orders still in the kitchen (pending or preparing).
	CountActive(ctx context.Context) (int, error)
}
