package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// Key identifies the client. Defaults to the real client IP.
	Key func(c echo.Context) string
}

// DefaultRateLimitConfig allows a burst of three regenerations and one more
// every ten seconds per client.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 0.1,
		BurstSize:         3,
	}
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
	}
}

// take consumes one token. When none is left it reports how many seconds
// until the next one.
func (b *tokenBucket) take(now time.Time) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(b.maxTokens, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/b.refillRate) + 1
}

// bucketStore holds one bucket per client. A bucket untouched for idle has
// refilled completely and is equivalent to a new one, so it is dropped on the
// next sweep. Sweeps run lazily from bucket at most once per idle period.
type bucketStore struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	cfg       RateLimitConfig
	idle      time.Duration
	lastSweep time.Time
}

func newBucketStore(cfg RateLimitConfig, now time.Time) *bucketStore {
	s := &bucketStore{buckets: make(map[string]*tokenBucket), cfg: cfg, lastSweep: now}
	if cfg.RequestsPerSecond > 0 {
		s.idle = time.Duration(float64(cfg.BurstSize) / cfg.RequestsPerSecond * float64(time.Second))
		s.idle = max(s.idle, time.Second)
	}
	return s
}

func (s *bucketStore) bucket(key string, now time.Time) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idle > 0 && now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	b, ok := s.buckets[key]
	if !ok {
		b = newTokenBucket(s.cfg.RequestsPerSecond, s.cfg.BurstSize, now)
		s.buckets[key] = b
	}
	return b
}

// sweep must be called with s.mu held.
func (s *bucketStore) sweep(now time.Time) {
	for key, b := range s.buckets {
		b.mu.Lock()
		stale := now.Sub(b.lastRefill) >= s.idle
		b.mu.Unlock()
		if stale {
			delete(s.buckets, key)
		}
	}
	s.lastSweep = now
}

// RateLimit answers 429 with Retry-After once a client drains its bucket.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) echo.MiddlewareFunc {
	if cfg.Key == nil {
		cfg.Key = func(c echo.Context) string { return c.RealIP() }
	}
	store := newBucketStore(cfg, now())
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t := now()
			ok, retry := store.bucket(cfg.Key(c), t).take(t)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retry))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
