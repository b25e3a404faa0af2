package types

import (
	"time"
)

// StrategyKind identifies one concrete method of retrieving a URL's content.
type StrategyKind int

const (
	BasicHTTP StrategyKind = iota
	MobileHTTP
	HeadlessBrowser
	InteractiveBrowser
	SessionAuth
)

func (k StrategyKind) String() string {
	switch k {
	case BasicHTTP:
		return "basic_http"
	case MobileHTTP:
		return "mobile_http"
	case HeadlessBrowser:
		return "headless_browser"
	case InteractiveBrowser:
		return "interactive_browser"
	case SessionAuth:
		return "session_auth"
	default:
		return "unknown"
	}
}

// AttemptOutcome records how a single fetch attempt ended.
type AttemptOutcome int

const (
	OutcomeSuccess AttemptOutcome = iota
	OutcomeNetworkError
	OutcomeTimeoutError
	OutcomeAntiBotBlocked
	OutcomeParseError
)

func (o AttemptOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeTimeoutError:
		return "timeout_error"
	case OutcomeAntiBotBlocked:
		return "anti_bot_blocked"
	case OutcomeParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// FetchAttempt is the per-try trace entry kept for diagnostics.
type FetchAttempt struct {
	Number    int
	Strategy  StrategyKind
	StartedAt time.Time
	Outcome   AttemptOutcome
}

// ScrapeResult is returned once per scrape call and never mutated after
// construction.
//
// Invariants: Success=true implies HTML is present and Err is nil or
// non-fatal; Success=false implies Err is set and fatal.
// Attempts <= MaxRetries+1.
type ScrapeResult struct {
	Success  bool
	URL      string
	HTML     string
	Data     map[string]Value
	Err      *ScrapeError
	Strategy StrategyKind
	Attempts int
	History  []FetchAttempt
}

// Get returns the value for a field and whether it was extracted.
func (r *ScrapeResult) Get(field string) (Value, bool) {
	v, ok := r.Data[field]
	return v, ok
}

// GetString returns the string value for a field, or "" if absent or not a
// string.
func (r *ScrapeResult) GetString(field string) string {
	return r.Data[field].Text()
}

// GetCount returns the normalized count for a field, or 0 if absent or not a
// count.
func (r *ScrapeResult) GetCount(field string) int64 {
	return r.Data[field].Count()
}

// GetList returns the list value for a field, or nil.
func (r *ScrapeResult) GetList(field string) []string {
	return r.Data[field].List()
}
