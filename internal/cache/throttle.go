package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle allows one action per key per window.
type Throttle struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

func NewThrottle(rdb *redis.Client, prefix string, window time.Duration) *Throttle {
	return &Throttle{rdb: rdb, prefix: prefix, window: window}
}

// Allow claims the slot for key. It returns false while a previous claim is
// still inside the window.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := t.rdb.SetNX(ctx, t.prefix+key, time.Now().UTC().Format(time.RFC3339), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the claim for key, e.g. after the guarded action failed.
func (t *Throttle) Release(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, t.prefix+key).Err()
}
