package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get: got miss, want hit")
	}
	if got.(string) != "value" {
		t.Errorf("Get: got %v, want value", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Error("Get on absent key: got hit, want miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("key", "value")

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("key"); ok {
		t.Error("Get after TTL: got hit, want miss")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("key", "value")
	c.Invalidate("key")
	if _, ok := c.Get("key"); ok {
		t.Error("Get after Invalidate: got hit, want miss")
	}
}

func TestCacheFlush(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Flush: got hit, want miss")
	}
}

// ── RateLimiter ──

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst within capacity took %v, want immediate", elapsed)
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(1, 200*time.Millisecond)
	ctx := context.Background()

	rl.Wait(ctx) // consume the only token

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second Wait returned after %v, want a refill delay", elapsed)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Wait(context.Background()) // exhaust

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
}

// ── DoGet ──

func TestDoGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("User-Agent: got %q", ua)
		}
		if got := r.Header.Get("X-Custom"); got != "yes" {
			t.Errorf("custom header: got %q, want yes", got)
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.URL, map[string]string{"X-Custom": "yes"})
	if err != nil {
		t.Fatalf("DoGet: %v", err)
	}
	defer body.Close()

	if status != http.StatusOK {
		t.Errorf("status: got %d, want 200", status)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "payload" {
		t.Errorf("body: got %q", data)
	}
}

func TestDoGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, status, err := DoGet(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("status: got %d, want 429", status)
	}

	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("error type: got %T, want *ErrHTTP", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("ErrHTTP.StatusCode: got %d, want 429", httpErr.StatusCode)
	}
}
