package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardPrefix = "billing:activation:"

// ActivationGuard is a short-lived lock around charge activation so that a
// replayed return URL hitting another instance does not activate twice.
type ActivationGuard struct {
	client *redis.Client
}

func NewActivationGuard(client *redis.Client) *ActivationGuard {
	return &ActivationGuard{client: client}
}

// Acquire takes the lock for key. It returns false when another holder has it.
func (g *ActivationGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, guardPrefix+key, "1", ttl).Result()
}

func (g *ActivationGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, guardPrefix+key).Err()
}
