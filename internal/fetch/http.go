package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

// HTTPStrategy implements Strategy using net/http. It serves both the basic
// and mobile-profile variants; the mobile variant substitutes a mobile
// user-agent pool and client hints.
type HTTPStrategy struct {
	client  *http.Client
	cfg     *config.Config
	logger  *slog.Logger
	mobile  bool
	uaIndex atomic.Int64
}

// NewHTTPStrategy creates the basic HTTP strategy.
func NewHTTPStrategy(cfg *config.Config, logger *slog.Logger) (*HTTPStrategy, error) {
	return newHTTPStrategy(cfg, logger, false)
}

// NewMobileHTTPStrategy creates the mobile-profile HTTP strategy. Some sites
// serve simplified markup to mobile clients or gate desktop scraping more
// aggressively.
func NewMobileHTTPStrategy(cfg *config.Config, logger *slog.Logger) (*HTTPStrategy, error) {
	return newHTTPStrategy(cfg, logger, true)
}

func newHTTPStrategy(cfg *config.Config, logger *slog.Logger, mobile bool) (*HTTPStrategy, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	component := "http_strategy"
	if mobile {
		component = "mobile_http_strategy"
	}

	client := &http.Client{
		Transport:     newBrowserHeaderTransport(baseTransport(cfg), mobile),
		Jar:           jar,
		Timeout:       cfg.Scraper.Timeout,
		CheckRedirect: redirectPolicy(cfg),
	}

	return &HTTPStrategy{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", component),
		mobile: mobile,
	}, nil
}

// baseTransport builds the shared http.Transport for HTTP-based strategies.
func baseTransport(cfg *config.Config) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetch.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetch.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetch.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     clientTLSConfig(cfg.Fetch.TLSInsecure),
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}
}

// redirectPolicy builds the redirect handler for HTTP-based strategies.
// Redirects are followed up to the configured limit so that a
// redirect-to-challenge still surfaces with its final URL for anti-bot
// classification.
func redirectPolicy(cfg *config.Config) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !cfg.Fetch.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.Fetch.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.Fetch.MaxRedirects)
		}
		return nil
	}
}

// Fetch executes an HTTP request and returns the page.
func (s *HTTPStrategy) Fetch(ctx context.Context, rawURL string, prof *profile.SiteProfile) (*Page, error) {
	page, err := doRequest(ctx, s.client, s.cfg, rawURL, s.nextUserAgent(), prof)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetch complete",
		"url", rawURL,
		"status", page.StatusCode,
		"size", len(page.Body),
		"duration", page.Duration,
	)
	return page, nil
}

// Close releases idle connections.
func (s *HTTPStrategy) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Kind returns the strategy identifier.
func (s *HTTPStrategy) Kind() types.StrategyKind {
	if s.mobile {
		return types.MobileHTTP
	}
	return types.BasicHTTP
}

// nextUserAgent returns the next User-Agent in rotation from the pool
// matching this strategy's profile.
func (s *HTTPStrategy) nextUserAgent() string {
	pool := s.cfg.Scraper.UserAgents
	if s.mobile && len(s.cfg.Scraper.MobileUserAgents) > 0 {
		pool = s.cfg.Scraper.MobileUserAgents
	}
	if len(pool) == 0 {
		return "scrapekit/" + config.Version
	}
	idx := s.uaIndex.Add(1) % int64(len(pool))
	return pool[idx]
}

// doRequest is the request path shared by the HTTP and session strategies.
func doRequest(ctx context.Context, client *http.Client, cfg *config.Config, rawURL, userAgent string, prof *profile.SiteProfile) (*Page, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	httpReq.Header.Set("Connection", "keep-alive")

	for key, v := range cfg.Scraper.DefaultHeaders {
		httpReq.Header.Set(key, v)
	}
	if prof != nil {
		for key, v := range prof.Headers {
			httpReq.Header.Set(key, v)
		}
	}

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		kind, retryable := classifyTransportError(err)
		return nil, &types.FetchError{
			URL:       rawURL,
			Kind:      kind,
			Err:       err,
			Retryable: retryable,
		}
	}
	defer httpResp.Body.Close()

	// 429 is treated as a block: the retry policy escalates strategy and
	// respects Retry-After before the next attempt.
	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Kind:       types.KindAntiBot,
			Err:        fmt.Errorf("HTTP 429: rate limited (retry after %s): %s", retryAfter, strings.TrimSpace(string(body))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}

	// Retry on 5xx server errors
	if httpResp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Kind:       types.KindNetwork,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(body)),
			Retryable:  true,
		}
	}

	// Read body with size limit
	var reader io.Reader = httpResp.Body
	if cfg.Fetch.MaxBodySize > 0 {
		reader = io.LimitReader(reader, cfg.Fetch.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		kind, retryable := classifyTransportError(err)
		return nil, &types.FetchError{URL: rawURL, Kind: kind, Err: err, Retryable: retryable}
	}

	return &Page{
		URL:        rawURL,
		FinalURL:   httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   duration,
		FetchedAt:  time.Now(),
	}, nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// classifyTransportError maps a transport failure to an error kind and a
// retryability decision. Timeouts count toward the retry budget; context
// cancellation does not.
func classifyTransportError(err error) (types.ErrorKind, bool) {
	if err == nil {
		return types.KindNetwork, false
	}
	if errors.Is(err, context.Canceled) {
		return types.KindNetwork, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout, true
	}
	// Unexpected EOF mid-stream, connection reset, connection refused
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return types.KindNetwork, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return types.KindNetwork, true
		}
	}
	return types.KindNetwork, false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second // default back-off
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}

// clientTLSConfig returns the TLS config for HTTP-based strategies.
func clientTLSConfig(insecure bool) *tls.Config {
	cfg := randomTLSConfig()
	cfg.InsecureSkipVerify = insecure
	return cfg
}
