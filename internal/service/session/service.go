package session

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
	sessionrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/session"
)

// Service layers the conversation-facing session lifecycle over a Store:
// get-or-create semantics, the contamination safety net and explicit
// destruction at end of call.
type Service struct {
	store     sessionrepo.Store
	turnLimit int
	logger    *log.Logger
}

// New builds the service. turnLimit is the conversation length below which
// an inherited non-empty cart is treated as stale; pass 0 or less to disable
// the contamination check.
func New(store sessionrepo.Store, turnLimit int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, turnLimit: turnLimit, logger: logger}
}

// Get loads the session for the call, creating an empty one if absent. An
// empty call id is a usage error by the transport adapter.
func (s *Service) Get(ctx context.Context, callID string) (*domain.Session, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, domain.Validationf("call id is required")
	}
	sess, err := s.store.Peek(ctx, callID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return domain.NewSession(callID), nil
	}
	return sess, nil
}

// GetForTurn behaves like Get but also applies the contamination check: a
// freshly-started conversation (fewer than turnLimit prior turns) found to
// already own a non-empty cart has its stale session discarded. This guards
// against the voice platform reusing a call id for an unrelated conversation.
// It is a heuristic safety net, not a correctness guarantee: a legitimately
// short turn count can discard a real cart. Callers that cannot report a
// turn count should pass a negative value to skip the check.
func (s *Service) GetForTurn(ctx context.Context, callID string, turnCount int) (*domain.Session, error) {
	sess, err := s.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if s.turnLimit > 0 && turnCount >= 0 && turnCount < s.turnLimit && len(sess.Cart) > 0 {
		s.logger.Printf("session %s: discarding stale cart (%d items) on turn %d", callID, len(sess.Cart), turnCount)
		if err := s.store.Delete(ctx, callID); err != nil {
			return nil, err
		}
		return domain.NewSession(callID), nil
	}
	return sess, nil
}

// Save persists the session.
func (s *Service) Save(ctx context.Context, callID string, sess *domain.Session) error {
	if strings.TrimSpace(callID) == "" {
		return domain.Validationf("call id is required")
	}
	return s.store.Save(ctx, callID, sess)
}

// Delete destroys the session, typically at end of call or after a
// successful order.
func (s *Service) Delete(ctx context.Context, callID string) error {
	return s.store.Delete(ctx, callID)
}
