package scraper

import (
	"context"
	"sync"
	"time"
)

// hostLimiter enforces a minimum spacing between any two requests to the
// same host, independent of the global concurrency gate.
type hostLimiter struct {
	delay time.Duration
	mu    sync.Mutex
	hosts map[string]*hostEntry
}

type hostEntry struct {
	mu        sync.Mutex
	lastFetch time.Time
}

func newHostLimiter(delay time.Duration) *hostLimiter {
	return &hostLimiter{
		delay: delay,
		hosts: make(map[string]*hostEntry),
	}
}

// Wait blocks until the host's spacing window has passed, then claims the
// next window. Concurrent waiters for the same host are serialized.
func (l *hostLimiter) Wait(ctx context.Context, host string) error {
	if l.delay <= 0 || host == "" {
		return ctx.Err()
	}

	l.mu.Lock()
	entry, ok := l.hosts[host]
	if !ok {
		entry = &hostEntry{}
		l.hosts[host] = entry
	}
	l.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	elapsed := time.Since(entry.lastFetch)
	if elapsed < l.delay {
		if err := sleepCtx(ctx, l.delay-elapsed); err != nil {
			return err
		}
	}
	entry.lastFetch = time.Now()
	return nil
}
