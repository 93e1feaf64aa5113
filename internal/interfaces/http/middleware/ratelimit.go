package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remotive/saleshub/internal/interfaces/http/dto"
)

// Rate limit response headers.
const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// RateLimiter is a fixed-window counter per key, held in process memory.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	used    int
	resetAt time.Time
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryIn is the time left until the key's window resets.
	RetryIn time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// each key. Idle keys are swept every two windows.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, b := range rl.buckets {
			if now.After(b.resetAt) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Take spends one request from key's window.
func (rl *RateLimiter) Take(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(rl.window)}
		rl.buckets[key] = b
	}
	d := Decision{RetryIn: b.resetAt.Sub(now)}
	if b.used >= rl.limit {
		return d
	}
	b.used++
	d.Allowed = true
	d.Remaining = rl.limit - b.used
	return d
}

// Allow reports whether key may make another request.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Take(key).Allowed
}

// Remaining returns what is left of key's current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || !rl.now().Before(b.resetAt) {
		return rl.limit
	}
	return rl.limit - b.used
}

// RateLimit limits dashboard traffic by client IP, scoped to the caller's
// dealership once authenticated.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		key := c.ClientIP()
		if caller, ok := GetCaller(c); ok {
			key = caller.TenantID.String() + ":" + key
		}
		return key
	})
}

// AuthRateLimit guards the unauthenticated login and refresh endpoints. Its
// keys are prefixed so they never share a bucket with API traffic.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return "auth:" + c.ClientIP()
	})
}

// InboundRateLimit limits a lead feed per API key. It runs before the key
// is checked, so unknown keys are limited too; requests without a key fall
// back to the client IP.
func InboundRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, InboundRateKey)
}

// InboundRateKey buckets inbound traffic by a digest of the API key so raw
// keys are never held in the limiter.
func InboundRateKey(c *gin.Context) string {
	key := c.GetHeader(APIKeyHeader)
	if key == "" {
		return "inbound-ip:" + c.ClientIP()
	}
	sum := sha256.Sum256([]byte(key))
	return "inbound:" + hex.EncodeToString(sum[:8])
}

// RateLimitByKey limits requests by the key keyFunc extracts.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Take(keyFunc(c))
		reset := strconv.Itoa(int(math.Ceil(d.RetryIn.Seconds())))
		c.Header(RateLimitLimitHeader, strconv.Itoa(limiter.limit))
		c.Header(RateLimitRemainingHeader, strconv.Itoa(d.Remaining))
		c.Header(RateLimitResetHeader, reset)
		if !d.Allowed {
			c.Header("Retry-After", reset)
			abortWithError(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
