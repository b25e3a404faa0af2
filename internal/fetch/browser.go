package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

// BrowserStrategy implements Strategy using browser automation via Rod.
// Headless mode drives an invisible Chromium for script-rendered pages; the
// interactive variant shows the window and is reserved for diagnostics.
//
// The browser process is launched lazily on the first Fetch so that
// constructing a scraper never spawns Chromium unless a site needs it.
type BrowserStrategy struct {
	cfg      *config.Config
	logger   *slog.Logger
	headless bool
	maxPages int

	connectOnce sync.Once
	connectErr  error
	browser     *rod.Browser
	pagePool    chan *rod.Page
	mu          sync.Mutex
	closed      bool
}

// BrowserOption configures the BrowserStrategy.
type BrowserOption func(*BrowserStrategy)

// WithVisibleWindow switches to the interactive (headed) variant.
func WithVisibleWindow() BrowserOption {
	return func(bs *BrowserStrategy) { bs.headless = false }
}

// WithMaxPages sets the maximum number of concurrent browser pages.
func WithMaxPages(n int) BrowserOption {
	return func(bs *BrowserStrategy) { bs.maxPages = n }
}

// NewBrowserStrategy creates a browser-automation strategy.
func NewBrowserStrategy(cfg *config.Config, logger *slog.Logger, opts ...BrowserOption) *BrowserStrategy {
	bs := &BrowserStrategy{
		cfg:      cfg,
		logger:   logger.With("component", "browser_strategy"),
		headless: cfg.Scraper.Headless,
		maxPages: cfg.Scraper.MaxConcurrentRequests,
	}
	for _, opt := range opts {
		opt(bs)
	}
	return bs
}

// connect launches Chromium and connects to it, once.
func (bs *BrowserStrategy) connect() error {
	bs.connectOnce.Do(func() {
		l := launcher.New().
			Headless(bs.headless).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("no-sandbox").
			Set("disable-blink-features", "AutomationControlled")

		launchURL, err := l.Launch()
		if err != nil {
			bs.connectErr = fmt.Errorf("launch browser: %w", err)
			return
		}

		browser := rod.New().ControlURL(launchURL)
		if err := browser.Connect(); err != nil {
			bs.connectErr = fmt.Errorf("connect browser: %w", err)
			return
		}

		bs.browser = browser
		bs.pagePool = make(chan *rod.Page, bs.maxPages)

		bs.logger.Info("browser ready",
			"headless", bs.headless,
			"max_pages", bs.maxPages,
		)
	})
	return bs.connectErr
}

// Fetch navigates to a URL and returns the rendered page content.
func (bs *BrowserStrategy) Fetch(ctx context.Context, rawURL string, prof *profile.SiteProfile) (*Page, error) {
	if err := bs.connect(); err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	start := time.Now()

	page, err := bs.getPage()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: true}
	}
	defer bs.putPage(page)

	page = page.Context(ctx)

	if prof != nil && len(prof.Headers) > 0 {
		headers := make([]string, 0, len(prof.Headers)*2)
		for k, v := range prof.Headers {
			headers = append(headers, k, v)
		}
		_, _ = page.SetExtraHeaders(headers)
	}

	timeout := bs.cfg.Scraper.Timeout

	if err := page.Timeout(timeout).Navigate(rawURL); err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: browserErrorKind(ctx), Err: err, Retryable: true}
	}

	if err := page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		bs.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	// Wait for the profile's render marker on script-heavy pages
	if prof != nil && prof.WaitSelector != "" {
		elem, err := page.Timeout(timeout).Element(prof.WaitSelector)
		if err != nil {
			bs.logger.Warn("wait selector not found", "selector", prof.WaitSelector, "error", err)
		} else if err := elem.WaitVisible(); err != nil {
			bs.logger.Warn("wait selector never became visible", "selector", prof.WaitSelector, "error", err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: browserErrorKind(ctx), Err: err, Retryable: true}
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bs.logger.Debug("browser fetch complete",
		"url", rawURL,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return &Page{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: 200, // Rod doesn't easily expose status codes
		Body:       []byte(html),
		Duration:   duration,
		FetchedAt:  time.Now(),
	}, nil
}

// Close shuts down the browser and releases resources.
func (bs *BrowserStrategy) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.closed {
		return nil
	}
	bs.closed = true

	if bs.pagePool != nil {
		close(bs.pagePool)
		for page := range bs.pagePool {
			_ = page.Close()
		}
	}
	if bs.browser != nil {
		return bs.browser.Close()
	}
	return nil
}

// Kind returns the strategy identifier.
func (bs *BrowserStrategy) Kind() types.StrategyKind {
	if bs.headless {
		return types.HeadlessBrowser
	}
	return types.InteractiveBrowser
}

// getPage retrieves a stealth-patched page from the pool or creates one.
func (bs *BrowserStrategy) getPage() (*rod.Page, error) {
	select {
	case page := <-bs.pagePool:
		return page, nil
	default:
		return stealth.Page(bs.browser)
	}
}

// putPage returns a page to the pool.
func (bs *BrowserStrategy) putPage(page *rod.Page) {
	// Navigate to blank to free memory from the last page
	_ = page.Navigate("about:blank")

	select {
	case bs.pagePool <- page:
	default:
		_ = page.Close() // Pool full, close the page
	}
}

// browserErrorKind distinguishes navigation timeouts from other failures.
func browserErrorKind(ctx context.Context) types.ErrorKind {
	if ctx.Err() == context.DeadlineExceeded {
		return types.KindTimeout
	}
	return types.KindNetwork
}
