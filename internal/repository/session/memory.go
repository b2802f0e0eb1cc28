package session

import (
	"context"
	"sync"
	"time"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

type memoryEntry struct {
	sess         *domain.Session
	insertedAt   time.Time
	lastAccessed time.Time
}

// MemoryStore is the in-process fallback backend. It enforces the two
// policies Redis provides for free: TTL eviction (checked lazily on read and
// by a periodic sweep) and a capacity bound that evicts the oldest-inserted
// entry before admitting a new one. Reads refresh the last-accessed time so
// active conversations stay alive.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	ttl         time.Duration
	maxSessions int

	sweeper *time.Ticker
	done    chan struct{}

	// now is swapped out in tests to step the clock.
	now func() time.Time
}

// MemoryConfig tunes the fallback store. Zero values fall back to
// 30 minutes TTL, 1000 sessions and a 1 minute sweep.
type MemoryConfig struct {
	TTL           time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

// NewMemory builds a MemoryStore and starts its background sweep.
func NewMemory(cfg MemoryConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	s := &MemoryStore{
		entries:     make(map[string]*memoryEntry),
		ttl:         cfg.TTL,
		maxSessions: cfg.MaxSessions,
		sweeper:     time.NewTicker(cfg.SweepInterval),
		done:        make(chan struct{}),
		now:         time.Now,
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Peek(_ context.Context, callID string) (*domain.Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[callID]
	if !ok {
		return nil, nil
	}
	if now.Sub(entry.lastAccessed) > s.ttl {
		// Expired: indistinguishable from a never-created session.
		delete(s.entries, callID)
		return nil, nil
	}
	entry.lastAccessed = now
	return entry.sess, nil
}

func (s *MemoryStore) Save(_ context.Context, callID string, sess *domain.Session) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[callID]; ok {
		entry.sess = sess
		entry.lastAccessed = now
		return nil
	}

	if len(s.entries) >= s.maxSessions {
		s.evictOldestLocked()
	}
	s.entries[callID] = &memoryEntry{sess: sess, insertedAt: now, lastAccessed: now}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, callID)
	return nil
}

// Close stops the background sweep.
func (s *MemoryStore) Close() error {
	s.sweeper.Stop()
	close(s.done)
	return nil
}

// Len reports the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldestLocked removes the single oldest-inserted entry. Bounded-size
// policy, not strict LRU.
func (s *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, entry := range s.entries {
		if oldestID == "" || entry.insertedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = entry.insertedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}

func (s *MemoryStore) sweepLoop() {
	for {
		select {
		case <-s.sweeper.C:
			s.sweep(s.now())
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if now.Sub(entry.lastAccessed) > s.ttl {
			delete(s.entries, id)
		}
	}
}
