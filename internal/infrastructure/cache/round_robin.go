package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRoundRobin keeps one lead-rotation counter per tenant in Redis so
// every API instance draws from the same sequence.
type RedisRoundRobin struct {
	client redis.UniversalClient
}

// NewRedisRoundRobin creates a Redis-backed rotation cursor
func NewRedisRoundRobin(client redis.UniversalClient) *RedisRoundRobin {
	return &RedisRoundRobin{client: client}
}

func roundRobinKey(tenantID uuid.UUID) string {
	return keyPrefix + "leads:rr:" + tenantID.String()
}

// Next returns the next slot in [0, n) for the tenant.
func (r *RedisRoundRobin) Next(ctx context.Context, tenantID uuid.UUID, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("round robin over %d candidates", n)
	}
	v, err := r.client.Incr(ctx, roundRobinKey(tenantID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance round robin cursor: %w", err)
	}
	return int((v - 1) % int64(n)), nil
}

// InMemoryRoundRobin is the single-process rotation cursor.
type InMemoryRoundRobin struct {
	mu       sync.Mutex
	counters map[uuid.UUID]int64
}

// NewInMemoryRoundRobin creates an in-memory rotation cursor
func NewInMemoryRoundRobin() *InMemoryRoundRobin {
	return &InMemoryRoundRobin{counters: make(map[uuid.UUID]int64)}
}

// Next returns the next slot in [0, n) for the tenant.
func (r *InMemoryRoundRobin) Next(_ context.Context, tenantID uuid.UUID, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("round robin over %d candidates", n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.counters[tenantID]
	r.counters[tenantID] = v + 1
	return int(v % int64(n)), nil
}
