// Package ratelimit provides a token bucket used to pace user-triggered
// requests toward the inference backend.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a token bucket. It starts full and refills continuously at
// refillRate tokens per second up to its capacity.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
}

// maxRefillSeconds caps the elapsed time used for refill so a machine
// waking from sleep does not mint hours worth of tokens at once.
const maxRefillSeconds = 120.0

// NewBucket creates a bucket holding up to capacity tokens, refilling at
// refillRate tokens per second.
func NewBucket(capacity, refillRate float64) *Bucket {
	return &Bucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > maxRefillSeconds {
		elapsed = maxRefillSeconds
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Allow consumes one token if available and reports whether it did.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Available returns the current token count.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Reset refills the bucket to capacity.
func (b *Bucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = b.capacity
	b.lastRefill = time.Now()
}
