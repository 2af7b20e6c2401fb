package fetch

import (
	"context"
	"sync"
	"time"
)

// DomainRateLimiter admits at most max requests per domain within any
// trailing period window. Domains are fully independent: waiting on one
// domain never blocks admission checks on another.
type DomainRateLimiter struct {
	max    int
	period time.Duration

	mu      sync.Mutex
	domains map[string]*domainWindow
}

type domainWindow struct {
	mu    sync.Mutex
	times []time.Time
}

// NewDomainRateLimiter builds a limiter for maxRequests per period.
func NewDomainRateLimiter(maxRequests int, period time.Duration) *DomainRateLimiter {
	return &DomainRateLimiter{
		max:     maxRequests,
		period:  period,
		domains: make(map[string]*domainWindow),
	}
}

// Acquire blocks until admitting one more request to domain would not exceed
// the limit, then records the admission. The check-and-record is mutually
// exclusive per domain; the sleep happens outside the lock so waiters do not
// block each other's checks.
func (l *DomainRateLimiter) Acquire(ctx context.Context, domain string) error {
	win := l.window(domain)

	for {
		win.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-l.period)

		drop := 0
		for drop < len(win.times) && win.times[drop].Before(cutoff) {
			drop++
		}
		if drop > 0 {
			win.times = append(win.times[:0], win.times[drop:]...)
		}

		if len(win.times) < l.max {
			win.times = append(win.times, now)
			win.mu.Unlock()
			return nil
		}

		// wait until the oldest admission leaves the window, then recheck
		wait := win.times[0].Add(l.period).Sub(now)
		win.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *DomainRateLimiter) window(domain string) *domainWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.domains[domain]
	if !ok {
		win = &domainWindow{}
		l.domains[domain] = win
	}
	return win
}
