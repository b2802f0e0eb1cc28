package domain

import "time"

// Session is the per-conversation mutable state, keyed by the call id the
// voice platform assigns. It is owned by exactly one conversation: created on
// first access, destroyed on end-of-call or successful order creation.
type Session struct {
	CallID   string          `json:"callId"`
	Cart     []LineItem      `json:"cart"`
	Metadata SessionMetadata `json:"metadata"`
}

type SessionMetadata struct {
	StartTime             time.Time `json:"startTime"`
	PickupTime            string    `json:"pickupTime,omitempty"`
	PickupTimeISO         string    `json:"pickupTimeISO,omitempty"`
	EstimatedReadyTime    string    `json:"estimatedReadyTime,omitempty"`
	EstimatedReadyTimeISO string    `json:"estimatedReadyTimeISO,omitempty"`
	CustomerName          string    `json:"customerName,omitempty"`
	CustomerPhone         string    `json:"customerPhone,omitempty"`
	LastAction            string    `json:"lastAction,omitempty"`
}

// NewSession returns an empty session for the given call.
func NewSession(callID string) *Session {
	return &Session{
		CallID:   callID,
		Cart:     []LineItem{},
		Metadata: SessionMetadata{StartTime: time.Now().UTC()},
	}
}

// HasPickupTime reports whether either an explicit pickup time or an
// estimated ready time has been recorded for the session.
func (s *Session) HasPickupTime() bool {
	return s.Metadata.PickupTime != "" || s.Metadata.EstimatedReadyTime != ""
}
