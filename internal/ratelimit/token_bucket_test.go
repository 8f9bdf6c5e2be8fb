package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowNilLimiterPassesEverything(t *testing.T) {
	var limiter *TokenBucket

	result, err := limiter.Allow(context.Background(), "ratelimit:webhook:stripe", 10, 20)
	if err != nil {
		t.Fatalf("nil limiter should not error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("nil limiter should allow everything")
	}
}

func TestNewTokenBucketNilClient(t *testing.T) {
	if limiter := NewTokenBucket(nil); limiter != nil {
		t.Fatalf("expected nil limiter for nil client")
	}
}

func TestAllowWithoutClientPassesEverything(t *testing.T) {
	limiter := &TokenBucket{client: nil}

	result, err := limiter.Allow(context.Background(), "key", 10, 20)
	if err != nil || !result.Allowed {
		t.Fatalf("limiter without client should allow, got %v %v", result, err)
	}
}

func TestDefaultBucketTTL(t *testing.T) {
	cases := []struct {
		rate  float64
		burst int
		want  time.Duration
	}{
		{rate: 10, burst: 20, want: 4 * time.Second},
		{rate: 1, burst: 1, want: 2 * time.Second},
		{rate: 0, burst: 20, want: time.Second},
		{rate: 100, burst: 1, want: time.Second},
	}
	for _, tc := range cases {
		if got := defaultBucketTTL(tc.rate, tc.burst); got != tc.want {
			t.Fatalf("ttl(%v, %d) = %v, want %v", tc.rate, tc.burst, got, tc.want)
		}
	}
}

func TestCastHelpers(t *testing.T) {
	if got := castToInt(int64(1)); got != 1 {
		t.Fatalf("castToInt(int64) = %d", got)
	}
	if got := castToInt("3"); got != 3 {
		t.Fatalf("castToInt(string) = %d", got)
	}
	if got := castToFloat("19.5"); got != 19.5 {
		t.Fatalf("castToFloat(string) = %v", got)
	}
	if got := castToFloat(int64(4)); got != 4 {
		t.Fatalf("castToFloat(int64) = %v", got)
	}
}
