// Package scrapekit provides a public SDK for embedding the scraping engine
// as a library.
//
// Example usage:
//
//	client := scrapekit.NewClient(
//	    scrapekit.WithMaxRetries(3),
//	    scrapekit.WithTimeout(30*time.Second),
//	    scrapekit.WithMaxConcurrent(5),
//	)
//	defer client.Close()
//
//	result := client.ScrapeURL(ctx, "https://example.com")
//	if result.Success {
//	    fmt.Println(result.GetString("title"))
//	}
package scrapekit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/fetch"
	"github.com/brandlens/scrapekit/internal/platform"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/scraper"
	"github.com/brandlens/scrapekit/internal/types"
)

// Re-exported result types so callers never import internal packages.
type (
	// Result is the outcome of one scrape: extracted data, attempt history,
	// and the final error when unsuccessful.
	Result = types.ScrapeResult

	// Value is a typed extracted field (string, count, or list).
	Value = types.Value

	// Profile describes how to scrape one site: strategy, selectors, hosts.
	Profile = profile.SiteProfile
)

// Client is the high-level API for using the scraping engine as a library.
type Client struct {
	cfg      *config.Config
	logger   *slog.Logger
	scraper  *scraper.WebScraper
	platform *platform.PlatformScraper
}

// Option configures a Client.
type Option func(*config.Config)

// WithMaxRetries sets how many times a failed fetch is retried.
func WithMaxRetries(n int) Option {
	return func(c *config.Config) { c.Scraper.MaxRetries = n }
}

// WithTimeout sets the per-attempt fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Scraper.Timeout = d }
}

// WithDelay sets the minimum spacing between requests to the same host.
func WithDelay(d time.Duration) Option {
	return func(c *config.Config) { c.Scraper.DelayBetweenRequests = d }
}

// WithMaxConcurrent bounds the number of in-flight fetches.
func WithMaxConcurrent(n int) Option {
	return func(c *config.Config) { c.Scraper.MaxConcurrentRequests = n }
}

// WithUserAgents replaces the desktop User-Agent rotation pool.
func WithUserAgents(agents ...string) Option {
	return func(c *config.Config) { c.Scraper.UserAgents = agents }
}

// WithHeadless toggles the headless browser backend. Disabling it keeps
// profiles that would render pages on plain HTTP and removes the browser
// from the escalation chain.
func WithHeadless(enabled bool) Option {
	return func(c *config.Config) { c.Scraper.Headless = enabled }
}

// WithHeaders sets default headers added to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *config.Config) { c.Scraper.DefaultHeaders = headers }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewClient creates a Client with the given options. The basic HTTP, mobile
// HTTP, and session backends are always wired; the browser backend only when
// headless mode is enabled. The browser connects lazily, so a run that never
// needs rendering never pays for a browser process.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ws := scraper.NewWebScraper(cfg, logger)

	httpStrategy, err := fetch.NewHTTPStrategy(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create http strategy: %w", err)
	}
	ws.SetStrategy(httpStrategy)

	mobileStrategy, err := fetch.NewMobileHTTPStrategy(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create mobile strategy: %w", err)
	}
	ws.SetStrategy(mobileStrategy)

	ws.SetStrategy(fetch.NewSessionStrategy(cfg, logger))

	if cfg.Scraper.Headless {
		ws.SetStrategy(fetch.NewBrowserStrategy(cfg, logger))
	}

	return &Client{
		cfg:      cfg,
		logger:   logger,
		scraper:  ws,
		platform: platform.New(ws, logger),
	}, nil
}

// ScrapeURL fetches and extracts one URL. The site profile is resolved by
// hostname, falling back to the generic profile. Failures are reported
// inside the result.
func (c *Client) ScrapeURL(ctx context.Context, url string) *Result {
	return c.scraper.ScrapeURL(ctx, url, nil)
}

// ScrapeWithProfile fetches one URL with an explicit site profile.
func (c *Client) ScrapeWithProfile(ctx context.Context, url string, prof *Profile) *Result {
	return c.scraper.ScrapeURL(ctx, url, prof)
}

// ScrapeMultipleURLs fetches a batch concurrently. Results come back in
// input order and one failing URL never aborts its siblings.
func (c *Client) ScrapeMultipleURLs(ctx context.Context, urls []string, maxConcurrent int) []*Result {
	return c.scraper.ScrapeMultipleURLs(ctx, urls, maxConcurrent)
}

// ScrapePlatform scrapes a brand's page on a known platform ("x",
// "instagram", "youtube", ...) and normalizes the fields into the
// cross-platform schema.
func (c *Client) ScrapePlatform(ctx context.Context, platformName, handle string) (*Result, error) {
	return c.platform.ScrapePage(ctx, platformName, handle)
}

// ScrapeWebsite scrapes an arbitrary site with caller-supplied selectors
// layered over the generic profile.
func (c *Client) ScrapeWebsite(ctx context.Context, url string, selectors map[string]string) *Result {
	return c.platform.ScrapeGenericWebsite(ctx, url, selectors)
}

// RegisterProfile adds or replaces a site profile so later scrapes of its
// hosts pick it up automatically.
func (c *Client) RegisterProfile(prof *Profile) {
	c.scraper.Registry().Register(prof)
}

// Platforms lists the names of the registered site profiles.
func (c *Client) Platforms() []string {
	return c.scraper.Registry().Names()
}

// Close releases all backend resources. The client is unusable afterwards.
func (c *Client) Close() error {
	return c.scraper.Close()
}
