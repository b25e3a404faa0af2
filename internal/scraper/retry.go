package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/brandlens/scrapekit/internal/types"
)

// maxBackoff caps the exponential backoff between attempts.
const maxBackoff = 2 * time.Minute

// retryPolicy decides how many attempts a scrape gets, how long to wait
// between them, and which strategy the next attempt should use after an
// anti-bot block. It is pure policy: no network calls, testable with a fake
// strategy.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

// maxAttempts returns the total attempt budget (initial try + retries).
func (p retryPolicy) maxAttempts() int {
	return p.maxRetries + 1
}

// backoff returns the wait before the attempt following attempt n:
// baseDelay × 2^(n-1), jittered ±25%.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	d := p.baseDelay << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := float64(d) * 0.25
	return d + time.Duration(rand.Float64()*2*jitter-jitter)
}

// escalationChain returns the strategies to prefer, in order, after an
// anti-bot block against the given strategy. Blindly repeating the same
// strategy against a host that just blocked it wastes the retry budget.
func escalationChain(current types.StrategyKind) []types.StrategyKind {
	switch current {
	case types.BasicHTTP:
		return []types.StrategyKind{types.MobileHTTP, types.HeadlessBrowser}
	case types.MobileHTTP:
		return []types.StrategyKind{types.HeadlessBrowser}
	case types.SessionAuth:
		return []types.StrategyKind{types.HeadlessBrowser}
	default:
		return nil
	}
}

// classifyOutcome maps an attempt error to its outcome.
func classifyOutcome(err error) types.AttemptOutcome {
	if err == nil {
		return types.OutcomeSuccess
	}
	if fe, ok := err.(*types.FetchError); ok {
		switch fe.Kind {
		case types.KindTimeout:
			return types.OutcomeTimeoutError
		case types.KindAntiBot:
			return types.OutcomeAntiBotBlocked
		case types.KindParse:
			return types.OutcomeParseError
		}
	}
	return types.OutcomeNetworkError
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
