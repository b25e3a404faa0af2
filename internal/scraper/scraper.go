// Package scraper is the orchestration core: it resolves a site profile and
// fetch strategy for each URL, runs the retry/backoff/escalation policy,
// bounds global concurrency, paces requests per host, and assembles typed
// scrape results.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/extract"
	"github.com/brandlens/scrapekit/internal/fetch"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

// WebScraper coordinates strategies, extraction, rate limiting, and retries
// for one scraping run. Construct it once per run; it is safe for concurrent
// use. Close releases every strategy's resources (browser processes, idle
// connections) on every exit path.
type WebScraper struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *profile.Registry
	extractor *extract.Extractor
	detector  *fetch.Detector
	limiter   *hostLimiter
	gate      *semaphore.Weighted
	policy    retryPolicy

	mu         sync.RWMutex
	strategies map[types.StrategyKind]fetch.Strategy
	closed     atomic.Bool
}

// NewWebScraper creates a WebScraper. Strategies are registered separately
// via SetStrategy so callers control which backends a run can use.
func NewWebScraper(cfg *config.Config, logger *slog.Logger) *WebScraper {
	return &WebScraper{
		cfg:       cfg,
		logger:    logger.With("component", "web_scraper"),
		registry:  profile.DefaultRegistry(),
		extractor: extract.NewExtractor(logger),
		detector:  fetch.NewDetector(cfg.AntiBot, logger),
		limiter:   newHostLimiter(cfg.Scraper.DelayBetweenRequests),
		gate:      semaphore.NewWeighted(int64(cfg.Scraper.MaxConcurrentRequests)),
		policy: retryPolicy{
			maxRetries: cfg.Scraper.MaxRetries,
			baseDelay:  cfg.Scraper.DelayBetweenRequests,
		},
		strategies: make(map[types.StrategyKind]fetch.Strategy),
	}
}

// SetStrategy registers a fetch strategy under its kind.
func (ws *WebScraper) SetStrategy(s fetch.Strategy) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.strategies[s.Kind()] = s
}

// Registry returns the site profile registry for caller extensions.
func (ws *WebScraper) Registry() *profile.Registry {
	return ws.registry
}

// ScrapeURL fetches and extracts one URL. The profile is resolved from the
// explicit argument, the registry by hostname, or the generic fallback.
// Failures surface inside the result, never as a returned error.
func (ws *WebScraper) ScrapeURL(ctx context.Context, rawURL string, prof *profile.SiteProfile) *types.ScrapeResult {
	if prof == nil {
		prof = ws.registry.Resolve(rawURL)
	}
	kind := prof.Strategy
	logger := ws.logger.With("url", rawURL, "profile", prof.Name)

	if ws.closed.Load() {
		return failedResult(rawURL, kind, nil, &types.ScrapeError{
			Kind:    types.KindNetwork,
			Message: "scraper closed",
			Err:     types.ErrScraperClosed,
		})
	}

	maxAttempts := ws.policy.maxAttempts()
	var history []types.FetchAttempt
	var lastErr *types.ScrapeError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		strategy, ok := ws.strategy(kind)
		if !ok {
			// Preferred backend not wired for this run: fall back to basic
			// HTTP rather than refusing the URL outright.
			if strategy, ok = ws.strategy(types.BasicHTTP); ok {
				logger.Debug("strategy not registered, using basic HTTP", "wanted", kind.String())
				kind = types.BasicHTTP
			} else {
				return failedResult(rawURL, kind, history, &types.ScrapeError{
					Kind:    types.KindNetwork,
					Message: fmt.Sprintf("strategy %s not registered", kind),
					Err:     types.ErrNoStrategy,
				})
			}
		}

		started := time.Now()
		page, err := ws.attempt(ctx, strategy, rawURL, prof)
		outcome := classifyOutcome(err)
		history = append(history, types.FetchAttempt{
			Number:    attempt,
			Strategy:  kind,
			StartedAt: started,
			Outcome:   outcome,
		})

		if err == nil {
			return ws.buildResult(rawURL, kind, page, prof, history)
		}

		lastErr = scrapeError(err)
		logger.Warn("attempt failed",
			"attempt", attempt,
			"strategy", kind.String(),
			"outcome", outcome.String(),
			"error", err,
		)

		fe, isFetchErr := err.(*types.FetchError)
		if isFetchErr && !fe.Retryable {
			break
		}
		if attempt == maxAttempts {
			break
		}

		// A block means the host has seen through the current strategy;
		// escalate instead of repeating it.
		if outcome == types.OutcomeAntiBotBlocked {
			kind = ws.escalate(kind, logger)
		}

		wait := ws.policy.backoff(attempt)
		if isFetchErr && fe.RetryAfter > wait {
			wait = fe.RetryAfter
		}
		if err := sleepCtx(ctx, wait); err != nil {
			break
		}
	}

	return failedResult(rawURL, kind, history, lastErr)
}

// ScrapeMultipleURLs fetches a batch concurrently. Results are returned in
// input order regardless of completion order, and one failing URL never
// aborts its siblings. In-flight fetches are bounded by
// min(maxConcurrent, MaxConcurrentRequests).
func (ws *WebScraper) ScrapeMultipleURLs(ctx context.Context, urls []string, maxConcurrent int) []*types.ScrapeResult {
	results := make([]*types.ScrapeResult, len(urls))

	bound := maxConcurrent
	if bound <= 0 || bound > ws.cfg.Scraper.MaxConcurrentRequests {
		bound = ws.cfg.Scraper.MaxConcurrentRequests
	}
	batchGate := make(chan struct{}, bound)

	var wg sync.WaitGroup
	for i, rawURL := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			batchGate <- struct{}{}
			defer func() { <-batchGate }()
			results[i] = ws.ScrapeURL(ctx, rawURL, nil)
		}(i, rawURL)
	}
	wg.Wait()

	return results
}

// Close releases all strategy resources. Further scrape calls fail fast.
func (ws *WebScraper) Close() error {
	if !ws.closed.CompareAndSwap(false, true) {
		return nil
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()

	var firstErr error
	for kind, s := range ws.strategies {
		if err := s.Close(); err != nil {
			ws.logger.Error("strategy close error", "strategy", kind.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// attempt runs one fetch try: per-host pacing, the global concurrency gate
// around the network call only, the attempt timeout, and anti-bot
// classification of the returned page.
func (ws *WebScraper) attempt(ctx context.Context, strategy fetch.Strategy, rawURL string, prof *profile.SiteProfile) (*fetch.Page, error) {
	host := hostOf(rawURL)
	if err := ws.limiter.Wait(ctx, host); err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	if err := ws.gate.Acquire(ctx, 1); err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, ws.cfg.Scraper.Timeout)
	page, err := strategy.Fetch(attemptCtx, rawURL, prof)
	cancel()

	// Release before extraction: the slot covers network I/O only.
	ws.gate.Release(1)

	if err != nil {
		return nil, err
	}

	if prof.HasAntiBot {
		if err := ws.detector.Check(page); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// buildResult extracts fields from a fetched page and assembles the success
// result. Selector misses are non-fatal: the result stays successful and
// carries a parse note listing the missed fields.
func (ws *WebScraper) buildResult(rawURL string, kind types.StrategyKind, page *fetch.Page, prof *profile.SiteProfile, history []types.FetchAttempt) *types.ScrapeResult {
	data, missed := ws.extractor.Extract(page.HTML(), prof.Selectors)

	result := &types.ScrapeResult{
		Success:  true,
		URL:      rawURL,
		HTML:     page.HTML(),
		Data:     data,
		Strategy: kind,
		Attempts: len(history),
		History:  history,
	}
	if len(missed) > 0 {
		result.Err = &types.ScrapeError{
			Kind:    types.KindParse,
			Message: "selectors matched nothing: " + strings.Join(missed, ", "),
		}
	}
	return result
}

// escalate picks the first registered strategy from the escalation chain,
// or keeps the current one when nothing heavier is wired.
func (ws *WebScraper) escalate(current types.StrategyKind, logger *slog.Logger) types.StrategyKind {
	for _, next := range escalationChain(current) {
		if _, ok := ws.strategy(next); ok {
			logger.Info("escalating strategy",
				"from", current.String(),
				"to", next.String(),
			)
			return next
		}
	}
	return current
}

func (ws *WebScraper) strategy(kind types.StrategyKind) (fetch.Strategy, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	s, ok := ws.strategies[kind]
	return s, ok
}

// scrapeError converts an attempt error to the result's error surface.
func scrapeError(err error) *types.ScrapeError {
	if fe, ok := err.(*types.FetchError); ok {
		return &types.ScrapeError{Kind: fe.Kind, Message: "fetch failed", Err: fe}
	}
	return &types.ScrapeError{Kind: types.KindNetwork, Message: "fetch failed", Err: err}
}

func failedResult(rawURL string, kind types.StrategyKind, history []types.FetchAttempt, serr *types.ScrapeError) *types.ScrapeResult {
	if serr == nil {
		serr = &types.ScrapeError{Kind: types.KindNetwork, Message: "fetch failed"}
	}
	return &types.ScrapeResult{
		Success:  false,
		URL:      rawURL,
		Err:      serr,
		Strategy: kind,
		Attempts: len(history),
		History:  history,
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
