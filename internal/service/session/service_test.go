package session

import (
	"context"
	"testing"
	"time"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

type stubStore struct {
	sessions map[string]*domain.Session
	deletes  []string
	peekErr  error
	saveErr  error
}

func newStubStore() *stubStore {
	return &stubStore{sessions: map[string]*domain.Session{}}
}

func (s *stubStore) Peek(_ context.Context, callID string) (*domain.Session, error) {
	if s.peekErr != nil {
		return nil, s.peekErr
	}
	return s.sessions[callID], nil
}

func (s *stubStore) Save(_ context.Context, callID string, sess *domain.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[callID] = sess
	return nil
}

func (s *stubStore) Delete(_ context.Context, callID string) error {
	s.deletes = append(s.deletes, callID)
	delete(s.sessions, callID)
	return nil
}

func (s *stubStore) Close() error { return nil }

func TestGetCreatesWhenAbsent(t *testing.T) {
	svc := New(newStubStore(), 3, nil)

	sess, err := svc.Get(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess == nil || sess.CallID != "call-1" || len(sess.Cart) != 0 {
		t.Fatalf("got %+v", sess)
	}
}

func TestGetEmptyIDIsValidationError(t *testing.T) {
	svc := New(newStubStore(), 3, nil)

	if _, err := svc.Get(context.Background(), "  "); !domain.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestGetForTurnDiscardsContaminatedSession(t *testing.T) {
	store := newStubStore()
	stale := domain.NewSession("call-1")
	stale.Cart = append(stale.Cart, domain.LineItem{ItemID: "mansaf", Quantity: 2, CreatedAt: time.Now()})
	store.sessions["call-1"] = stale

	svc := New(store, 3, nil)

	sess, err := svc.GetForTurn(context.Background(), "call-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Cart) != 0 {
		t.Fatalf("stale cart inherited: %+v", sess.Cart)
	}
	if len(store.deletes) != 1 || store.deletes[0] != "call-1" {
		t.Fatalf("stale session not deleted: %v", store.deletes)
	}
}

func TestGetForTurnKeepsEstablishedConversation(t *testing.T) {
	store := newStubStore()
	sess := domain.NewSession("call-1")
	sess.Cart = append(sess.Cart, domain.LineItem{ItemID: "mansaf", Quantity: 1})
	store.sessions["call-1"] = sess

	svc := New(store, 3, nil)

	got, err := svc.GetForTurn(context.Background(), "call-1", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Cart) != 1 {
		t.Fatalf("established cart discarded: %+v", got.Cart)
	}
}

func TestGetForTurnUnknownTurnCountSkipsCheck(t *testing.T) {
	store := newStubStore()
	sess := domain.NewSession("call-1")
	sess.Cart = append(sess.Cart, domain.LineItem{ItemID: "mansaf", Quantity: 1})
	store.sessions["call-1"] = sess

	svc := New(store, 3, nil)

	got, err := svc.GetForTurn(context.Background(), "call-1", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Cart) != 1 {
		t.Fatal("cart discarded despite unknown turn count")
	}
}
