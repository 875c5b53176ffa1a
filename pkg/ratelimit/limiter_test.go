package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after waiting
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestPerMinute(t *testing.T) {
	tb := PerMinute(30)

	if tb.capacity != 30 {
		t.Errorf("Expected capacity of 30, got %d", tb.capacity)
	}
	if tb.refillPeriod != time.Minute {
		t.Errorf("Expected refill period of one minute, got %v", tb.refillPeriod)
	}
}

func TestTokenBucketWaitReturnsWhenTokenAvailable(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)

	done := make(chan struct{})
	go func() {
		tb.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Expected Wait to return immediately with a token available")
	}
}
