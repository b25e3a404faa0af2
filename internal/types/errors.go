package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL     = errors.New("invalid URL")
	ErrNoStrategy     = errors.New("no fetch strategy available")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrScraperClosed  = errors.New("scraper has been closed")
	ErrSessionExpired = errors.New("authenticated session expired")
)

// ErrorKind classifies a scrape failure. The kind drives retry and
// escalation decisions: network and timeout failures are retried with the
// same strategy, anti-bot blocks escalate to a heavier strategy, and parse
// misses are never retried.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindTimeout
	KindAntiBot
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout_error"
	case KindAntiBot:
		return "anti_bot_blocked"
	case KindParse:
		return "parse_error"
	default:
		return "unknown"
	}
}

// FetchError wraps a failure inside a fetch strategy.
type FetchError struct {
	URL        string
	StatusCode int
	Kind       ErrorKind
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ScrapeError is the error surface of a ScrapeResult. It never crosses the
// library boundary as a raised error; callers inspect ScrapeResult.Success
// and read this for the failure kind.
type ScrapeError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// IsFatal reports whether the error failed the scrape. Parse errors are
// non-fatal: the fetch succeeded and a partial result is still returned.
func (e *ScrapeError) IsFatal() bool { return e.Kind != KindParse }
