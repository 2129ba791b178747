package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper prevents the same record being notified twice within a window.
type Deduper interface {
	// Claim reserves key for ttl. It reports false when key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim so a failed delivery can be requested again.
	Release(ctx context.Context, key string) error
}

// MemoryDeduper keeps claims in process.
type MemoryDeduper struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{claims: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	d.claims[key] = now.Add(ttl)
	d.sweep(now)
	return true, nil
}

func (d *MemoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, key)
	return nil
}

// sweep drops expired claims. Callers hold mu.
func (d *MemoryDeduper) sweep(now time.Time) {
	for k, expires := range d.claims {
		if !now.Before(expires) {
			delete(d.claims, k)
		}
	}
}

const redisKeyPrefix = "notification:file-number:"

// RedisDeduper shares claims across instances with SET NX.
type RedisDeduper struct {
	client redis.Cmdable
}

func NewRedisDeduper(client redis.Cmdable) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, redisKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
