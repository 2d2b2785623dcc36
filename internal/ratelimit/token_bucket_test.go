package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesWithinBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)
	for i := 0; i < 3; i++ {
		if !tb.Allow(1) {
			t.Fatalf("expected token %d to be available", i)
		}
	}
	if tb.Allow(1) {
		t.Fatal("expected burst to be exhausted")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	if !tb.Allow(1) {
		t.Fatal("expected initial token available")
	}
	if tb.Allow(1) {
		t.Fatal("expected bucket exhausted immediately after consuming burst")
	}
	tb.lastRefill = tb.lastRefill.Add(-2 * time.Second)
	if !tb.Allow(1) {
		t.Fatal("expected token refilled after elapsed time")
	}
}
