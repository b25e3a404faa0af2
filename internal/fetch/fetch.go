// Package fetch provides the pluggable fetch strategies: plain HTTP,
// mobile-profile HTTP, headless and interactive browser automation, and
// session-authenticated fetch. Strategy selection and retry policy live in
// the scraper package; this package only knows how to retrieve markup.
package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

// Page is the raw markup returned by a strategy, before extraction.
type Page struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// StatusCode is the HTTP status code (200 for browser fetches that
	// rendered successfully).
	StatusCode int

	// Headers are the response headers, empty for browser fetches.
	Headers http.Header

	// Body is the raw markup bytes.
	Body []byte

	// Duration is how long the fetch took.
	Duration time.Duration

	// FetchedAt is when the page was received.
	FetchedAt time.Time
}

// HTML returns the body as a string.
func (p *Page) HTML() string {
	return string(p.Body)
}

// Strategy is one concrete method of retrieving a URL's content.
type Strategy interface {
	// Fetch retrieves the markup at the given URL. The site profile carries
	// per-site headers, cookies, and browser wait hints.
	Fetch(ctx context.Context, rawURL string, prof *profile.SiteProfile) (*Page, error)

	// Close releases any resources held by the strategy.
	Close() error

	// Kind returns the strategy identifier.
	Kind() types.StrategyKind
}
