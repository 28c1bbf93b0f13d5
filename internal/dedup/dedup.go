// Package dedup guards against running the same matching cycle twice.
//
// A [Claimer] hands out a key at most once until its TTL lapses or it is released.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Claimer grants exclusive, expiring ownership of a key.
type Claimer interface {
	// Claim reports true if the caller now owns key, false if someone already does.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release gives up ownership so the key can be claimed again.
	Release(ctx context.Context, key string) error
}

// CycleKey is the claim key for a listing's matching cycle.
func CycleKey(listingID string) string {
	return "cycle:" + listingID
}

// MemoryClaimer is a process-local [Claimer]. Expired keys are purged lazily on Claim.
type MemoryClaimer struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryClaimer creates an empty [MemoryClaimer].
func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{claims: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryClaimer) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, exp := range c.claims {
		if !exp.IsZero() && !now.Before(exp) {
			delete(c.claims, k)
		}
	}

	if _, held := c.claims[key]; held {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.claims[key] = exp
	return true, nil
}

func (c *MemoryClaimer) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, key)
	return nil
}

// Len returns the number of live claims.
func (c *MemoryClaimer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claims)
}
