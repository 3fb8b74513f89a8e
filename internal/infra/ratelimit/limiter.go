// Package ratelimit holds per-user token buckets for the result polling endpoints.
// Buckets live in memory only and are created on first use.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/errs"
)

var ErrUnknownClass = errs.New("unknown rate limit class")

type Class string

const (
	ClassSummary            Class = "summary"
	ClassDetailedObfuscated Class = "detailed-obfuscated"
	// ClassViewCount limits how many distinct queries a user may inspect in detail.
	ClassViewCount Class = "view-count"
)

// Policy adds one token per Refill interval up to Capacity.
type Policy struct {
	Capacity int
	Refill   time.Duration
}

type Decision struct {
	Allowed             bool
	Remaining           int
	SecondsToNextRefill int
}

type key struct {
	user  string
	class Class
}

type bucket struct {
	mu     sync.Mutex
	tokens int
	// anchor is the start of the refill interval in progress.
	anchor time.Time
}

type Limiter struct {
	policies map[Class]Policy
	buckets  sync.Map
	clock    clock.Clock
}

func NewLimiter(policies map[Class]Policy, clk clock.Clock) *Limiter {
	return &Limiter{policies: policies, clock: clk}
}

func NewLimiterFromConfig(cfg config.RateLimitConfig, clk clock.Clock) *Limiter {
	return NewLimiter(map[Class]Policy{
		ClassSummary:            {Capacity: cfg.SummaryCapacity, Refill: cfg.SummaryRefill},
		ClassDetailedObfuscated: {Capacity: cfg.DetailedObfuscatedCapacity, Refill: cfg.DetailedObfuscatedRefill},
		ClassViewCount:          {Capacity: cfg.ViewCountCapacity, Refill: cfg.ViewCountRefill},
	}, clk)
}

// TryConsume takes one token from the user's bucket of the given class if one is available.
func (l *Limiter) TryConsume(userID string, class Class) (Decision, error) {
	return l.use(userID, class, true)
}

// Peek reports the bucket state without taking a token.
func (l *Limiter) Peek(userID string, class Class) (Decision, error) {
	return l.use(userID, class, false)
}

func (l *Limiter) Limit(class Class) (int, error) {
	p, ok := l.policies[class]
	if !ok {
		return 0, errs.Wrapf(ErrUnknownClass, "%s", class)
	}
	return p.Capacity, nil
}

func (l *Limiter) use(userID string, class Class, consume bool) (Decision, error) {
	p, ok := l.policies[class]
	if !ok {
		return Decision{}, errs.Wrapf(ErrUnknownClass, "%s", class)
	}
	now := l.clock.Now()
	v, _ := l.buckets.LoadOrStore(key{user: userID, class: class}, &bucket{tokens: p.Capacity, anchor: now})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now, p)
	allowed := b.tokens > 0
	if allowed && consume {
		b.tokens--
	}
	return Decision{
		Allowed:             allowed,
		Remaining:           b.tokens,
		SecondsToNextRefill: b.secondsToNextRefill(now, p),
	}, nil
}

func (b *bucket) refill(now time.Time, p Policy) {
	if b.tokens >= p.Capacity {
		b.anchor = now
		return
	}
	n := int(now.Sub(b.anchor) / p.Refill)
	if n <= 0 {
		return
	}
	b.tokens = min(p.Capacity, b.tokens+n)
	if b.tokens == p.Capacity {
		b.anchor = now
		return
	}
	b.anchor = b.anchor.Add(time.Duration(n) * p.Refill)
}

func (b *bucket) secondsToNextRefill(now time.Time, p Policy) int {
	if b.tokens >= p.Capacity {
		return 0
	}
	wait := b.anchor.Add(p.Refill).Sub(now)
	return max(1, int(math.Ceil(wait.Seconds())))
}
