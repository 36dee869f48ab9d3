package token

import (
	"sync"
	"time"
)

// RevocationStore maps revoked token ids (jti) to their natural expiry.
// Presence of a jti means the token is invalid regardless of signature
// validity. The store is injected so a multi-instance deployment can swap
// the process-local map for a shared external store without touching the
// service contract.
type RevocationStore interface {
	// Revoke inserts a jti with the token's natural expiry.
	Revoke(jti string, expiresAt time.Time)

	// IsRevoked is a membership test. Safe under concurrent Revoke.
	IsRevoked(jti string) bool

	// Cleanup removes entries whose expiry has passed and reports how many
	// were swept. Garbage collection only: an expired token is already
	// invalid through its own exp claim.
	Cleanup(now time.Time) int
}

// MemoryRevocationStore is the process-local registry. A restart silently
// forgets revocations still within their TTL; multi-instance deployments
// need an external store behind the same interface.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> natural expiry
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
	}
}

func (s *MemoryRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
}

func (s *MemoryRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[jti]
	return ok
}

func (s *MemoryRevocationStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
			swept++
		}
	}
	return swept
}

// Len reports current registry size, for metrics and tests.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
