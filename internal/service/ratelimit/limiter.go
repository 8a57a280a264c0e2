package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdle    = 10 * time.Minute
	defaultMaxKeys = 10_000
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per key. Idle keys are swept lazily
// once the key count passes maxKeys.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	rps     rate.Limit
	burst   int
	idle    time.Duration
	maxKeys int
	now     func() time.Time
}

type Option func(*Limiter)

func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

func WithMaxKeys(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New builds a keyed limiter. rps <= 0 disables limiting.
func New(rps float64, burst int, opts ...Option) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		m:       make(map[string]*entry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    defaultIdle,
		maxKeys: defaultMaxKeys,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		if len(l.m) >= l.maxKeys {
			l.sweep(now)
		}
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) sweep(now time.Time) {
	for k, e := range l.m {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.m, k)
		}
	}
}
