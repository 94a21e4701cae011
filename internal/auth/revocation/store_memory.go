// Package revocation keeps the list of access tokens that must no longer be
// accepted, keyed by jti. Entries live only as long as the token would have.
package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a process-local token revocation list for single-instance
// deployments and tests.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.now().Add(ttl)
	t.sweepLocked()
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	until, ok := t.revoked[jti]
	return ok && t.now().Before(until), nil
}

// sweepLocked drops entries whose tokens have expired anyway.
func (t *InMemoryTRL) sweepLocked() {
	now := t.now()
	for jti, until := range t.revoked {
		if !now.Before(until) {
			delete(t.revoked, jti)
		}
	}
}
