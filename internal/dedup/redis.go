package dedup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keySeparator     = ":"
	claimPrefix      = "claim"
	placeholderValue = "1"
)

// ErrClaimStore wraps failures talking to the claim backend.
var ErrClaimStore = errors.New("claim store unavailable")

// RedisClaimer is a [Claimer] shared by every engine pointed at the same Redis, built on SET NX.
type RedisClaimer struct {
	client    redis.Cmdable
	namespace string
}

// NewRedisClaimer creates a [RedisClaimer] whose keys are prefixed with namespace.
func NewRedisClaimer(client redis.Cmdable, namespace string) *RedisClaimer {
	return &RedisClaimer{client: client, namespace: namespace}
}

// Key returns the Redis key for a claim, e.g. "pawalert:claim:cycle:pet-1".
func (c *RedisClaimer) Key(key string) string {
	parts := make([]string, 0, 3)
	if c.namespace != "" {
		parts = append(parts, c.namespace)
	}
	return strings.Join(append(parts, claimPrefix, key), keySeparator)
}

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.Key(key), placeholderValue, ttl).Result()
	if err != nil {
		return false, errors.Join(ErrClaimStore, err)
	}
	return ok, nil
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.Key(key)).Err(); err != nil {
		return errors.Join(ErrClaimStore, err)
	}
	return nil
}
