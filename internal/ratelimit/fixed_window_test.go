package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterAllowsWithinQuota(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("ip-1") || !limiter.Allow("ip-1") {
		t.Fatal("requests within quota should pass")
	}
	if limiter.Allow("ip-1") {
		t.Fatal("request above quota should be blocked")
	}
	if !limiter.Allow("ip-2") {
		t.Fatal("quota is per key")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("ip-1") {
		t.Fatal("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterRequiresRedisAddr(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "test:ratelimit", 1, time.Second); err == nil {
		t.Fatal("expected constructor error for empty redis addr")
	}
}
