package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ThrottleConfig bounds failed logins per key within a window.
type ThrottleConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultThrottleConfig allows 5 failures per 15 minutes.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{MaxAttempts: 5, Window: 15 * time.Minute}
}

// ThrottleKey builds the per-account key for a login attempt.
func ThrottleKey(tenantCode, email string) string {
	return strings.ToUpper(strings.TrimSpace(tenantCode)) + ":" + strings.ToLower(strings.TrimSpace(email))
}

// RedisLoginThrottle counts failed logins with INCR and a window TTL.
type RedisLoginThrottle struct {
	client redis.UniversalClient
	cfg    ThrottleConfig
}

// NewRedisLoginThrottle creates a Redis-backed login throttle
func NewRedisLoginThrottle(client redis.UniversalClient, cfg ThrottleConfig) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client, cfg: cfg}
}

func throttleKey(key string) string {
	return keyPrefix + "login:fail:" + key
}

// Blocked reports whether key has used up its attempts, and for how long.
func (t *RedisLoginThrottle) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	k := throttleKey(key)
	n, err := t.client.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read login throttle: %w", err)
	}
	if n < t.cfg.MaxAttempts {
		return false, 0, nil
	}
	ttl, err := t.client.TTL(ctx, k).Result()
	if err != nil {
		return true, t.cfg.Window, nil
	}
	return true, ttl, nil
}

// RecordFailure counts one failed attempt. The window starts at the first
// failure.
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, key string) error {
	k := throttleKey(key)
	n, err := t.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, k, t.cfg.Window).Err(); err != nil {
			return fmt.Errorf("failed to set login throttle window: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *RedisLoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, throttleKey(key)).Err()
}

type attempts struct {
	count   int
	expires time.Time
}

// InMemoryLoginThrottle is the single-process login throttle.
type InMemoryLoginThrottle struct {
	mu      sync.Mutex
	cfg     ThrottleConfig
	entries map[string]attempts
	now     func() time.Time
}

// NewInMemoryLoginThrottle creates an in-memory login throttle
func NewInMemoryLoginThrottle(cfg ThrottleConfig) *InMemoryLoginThrottle {
	return &InMemoryLoginThrottle{cfg: cfg, entries: make(map[string]attempts), now: time.Now}
}

func (t *InMemoryLoginThrottle) current(key string) attempts {
	a, ok := t.entries[key]
	if ok && !t.now().Before(a.expires) {
		delete(t.entries, key)
		return attempts{}
	}
	return a
}

// Blocked reports whether key has used up its attempts, and for how long.
func (t *InMemoryLoginThrottle) Blocked(_ context.Context, key string) (bool, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.current(key)
	if a.count < t.cfg.MaxAttempts {
		return false, 0, nil
	}
	return true, a.expires.Sub(t.now()), nil
}

// RecordFailure counts one failed attempt.
func (t *InMemoryLoginThrottle) RecordFailure(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.current(key)
	if a.count == 0 {
		a.expires = t.now().Add(t.cfg.Window)
	}
	a.count++
	t.entries[key] = a
	return nil
}

// Reset clears the counter after a successful login.
func (t *InMemoryLoginThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}
