package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func limited(cfg RateLimitConfig, clock *fakeClock) echo.HandlerFunc {
	return rateLimit(cfg, clock.now)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func serve(e *echo.Echo, h echo.HandlerFunc, key string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/hr/generate", nil)
	req.Header.Set(echo.HeaderXRealIP, key)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_WithinBurst(t *testing.T) {
	e := echo.New()
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limited(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5}, clock)

	for i := 0; i < 5; i++ {
		rec, err := serve(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limited(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 1}, clock)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	rec, err := serve(e, h, "10.0.0.1")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	retry, perr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if perr != nil || retry != 3 {
		t.Errorf("expected Retry-After 3, got %q", rec.Header().Get("Retry-After"))
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", got)
	}
}

func TestRateLimit_Refills(t *testing.T) {
	e := echo.New()
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limited(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}, clock)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := serve(e, h, "10.0.0.1"); err == nil {
		t.Fatal("expected second request to be limited")
	}
	clock.t = clock.t.Add(1500 * time.Millisecond)
	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("expected refill after 1.5s, got %v", err)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limited(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}, clock)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := serve(e, h, "10.0.0.1"); err == nil {
		t.Fatal("expected 10.0.0.1 to be limited")
	}
	if _, err := serve(e, h, "10.0.0.2"); err != nil {
		t.Fatalf("expected 10.0.0.2 to have its own bucket, got %v", err)
	}
}

func TestRateLimit_CustomKey(t *testing.T) {
	e := echo.New()
	clock := &fakeClock{t: time.Unix(0, 0)}
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		Key:               func(echo.Context) string { return "shared" },
	}
	h := limited(cfg, clock)

	if _, err := serve(e, h, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := serve(e, h, "10.0.0.2"); err == nil {
		t.Fatal("expected a shared key to share the bucket")
	}
}

func TestTokenBucket_ZeroRate(t *testing.T) {
	now := time.Unix(0, 0)
	b := newTokenBucket(0, 1, now)
	if ok, _ := b.take(now); !ok {
		t.Fatal("expected the initial token")
	}
	if ok, retry := b.take(now.Add(time.Hour)); ok || retry != 1 {
		t.Errorf("expected (false, 1), got (%v, %d)", ok, retry)
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 0.1 || cfg.BurstSize != 3 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestBucketStore_EvictsIdleBuckets(t *testing.T) {
	t0 := time.Unix(0, 0)
	s := newBucketStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}, t0)
	if s.idle != 2*time.Second {
		t.Fatalf("expected a 2s idle period, got %v", s.idle)
	}

	s.bucket("a", t0).take(t0)
	s.bucket("b", t0).take(t0)
	t1 := t0.Add(time.Second)
	s.bucket("a", t1).take(t1)

	t2 := t0.Add(2500 * time.Millisecond)
	s.bucket("c", t2).take(t2)

	if _, ok := s.buckets["b"]; ok {
		t.Error("expected the idle bucket to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := s.buckets[k]; !ok {
			t.Errorf("expected bucket %s to be kept", k)
		}
	}
}

func TestBucketStore_ZeroRateNeverEvicts(t *testing.T) {
	t0 := time.Unix(0, 0)
	s := newBucketStore(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1}, t0)
	s.bucket("a", t0).take(t0)
	later := t0.Add(24 * time.Hour)
	s.bucket("b", later).take(later)
	if len(s.buckets) != 2 {
		t.Errorf("expected both buckets kept, got %d", len(s.buckets))
	}
}
