// Package session stores per-conversation state. Two interchangeable
// backends sit behind Store: Redis, whose per-key expiry gives TTL semantics
// natively, and an in-process map fallback that enforces TTL and a capacity
// bound itself. Callers cannot tell which backend is active; a read past
// expiry behaves exactly like a read of an unknown id.
package session

import (
	"context"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

// Store is the session persistence contract.
type Store interface {
	// Peek returns the session or nil without creating one.
	Peek(ctx context.Context, callID string) (*domain.Session, error)
	// Save persists the session and resets its TTL.
	Save(ctx context.Context, callID string, sess *domain.Session) error
	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, callID string) error
	// Close releases backend resources.
	Close() error
}
