package vault

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStateTTL is how long an issued OAuth state stays redeemable.
const DefaultStateTTL = 10 * time.Minute

type stateEntry struct {
	provider  string
	athleteID uuid.UUID
	issuedAt  time.Time
}

// StateStore holds pending OAuth authorization states in memory. States are
// single-use: the first callback consumes them, a replay fails. Expired
// entries are swept opportunistically on Issue. Good enough for a
// single-process deployment; a scaled-out one needs a shared TTL store so any
// process can handle the callback.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewStateStore creates a store with the given TTL.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue registers a new state token for an authorization redirect.
func (s *StateStore) Issue(provider string, athleteID uuid.UUID) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[token] = stateEntry{
		provider:  provider,
		athleteID: athleteID,
		issuedAt:  s.now(),
	}
	return token
}

// Consume redeems a state token exactly once. Unknown, already-consumed, and
// expired tokens all report ok=false.
func (s *StateStore) Consume(token string) (provider string, athleteID uuid.UUID, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.entries[token]
	if !found {
		return "", uuid.Nil, false
	}
	delete(s.entries, token)

	if s.now().Sub(entry.issuedAt) > s.ttl {
		return "", uuid.Nil, false
	}
	return entry.provider, entry.athleteID, true
}

func (s *StateStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for token, entry := range s.entries {
		if entry.issuedAt.Before(cutoff) {
			delete(s.entries, token)
		}
	}
}
