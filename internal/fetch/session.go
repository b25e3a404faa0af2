package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

// Session holds cookie/token state scoped to one logical login. It is owned
// exclusively by the SessionStrategy that created it and is destroyed when
// the scraping run ends.
type Session struct {
	Host      string
	CreatedAt time.Time

	client *http.Client
}

// SessionStrategy implements Strategy for hosts that require an
// authenticated session. A session is created lazily on the first fetch to a
// host, seeded with the profile's cookies and headers, and reused for every
// subsequent fetch to that host within the run. Sessions are never shared
// across runs.
type SessionStrategy struct {
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	uaIndex  atomic.Int64
}

// NewSessionStrategy creates the session-authenticated strategy.
func NewSessionStrategy(cfg *config.Config, logger *slog.Logger) *SessionStrategy {
	return &SessionStrategy{
		cfg:      cfg,
		logger:   logger.With("component", "session_strategy"),
		sessions: make(map[string]*Session),
	}
}

// Fetch retrieves a URL through the host's authenticated session.
func (s *SessionStrategy) Fetch(ctx context.Context, rawURL string, prof *profile.SiteProfile) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: types.ErrInvalidURL, Retryable: false}
	}

	sess, err := s.session(u, prof)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err, Retryable: false}
	}

	page, err := doRequest(ctx, sess.client, s.cfg, rawURL, s.nextUserAgent(), prof)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("session fetch complete",
		"url", rawURL,
		"host", sess.Host,
		"status", page.StatusCode,
		"session_age", time.Since(sess.CreatedAt),
	)
	return page, nil
}

// session returns the host's session, creating it lazily on first use.
func (s *SessionStrategy) session(u *url.URL, prof *profile.SiteProfile) (*Session, error) {
	host := u.Hostname()

	s.mu.RLock()
	sess, ok := s.sessions[host]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check
	if sess, ok = s.sessions[host]; ok {
		return sess, nil
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create session jar: %w", err)
	}

	// Seed the jar with the profile's login cookies
	if prof != nil && len(prof.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(prof.Cookies))
		for name, value := range prof.Cookies {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
		jar.SetCookies(&url.URL{Scheme: u.Scheme, Host: u.Host}, cookies)
	}

	sess = &Session{
		Host:      host,
		CreatedAt: time.Now(),
		client: &http.Client{
			Transport:     newBrowserHeaderTransport(baseTransport(s.cfg), false),
			Jar:           jar,
			Timeout:       s.cfg.Scraper.Timeout,
			CheckRedirect: redirectPolicy(s.cfg),
		},
	}
	s.sessions[host] = sess

	s.logger.Info("session created", "host", host, "seed_cookies", prof != nil && len(prof.Cookies) > 0)
	return sess, nil
}

// Close retires every session held by this run.
func (s *SessionStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.client.CloseIdleConnections()
	}
	s.sessions = make(map[string]*Session)
	return nil
}

// Kind returns the strategy identifier.
func (s *SessionStrategy) Kind() types.StrategyKind {
	return types.SessionAuth
}

// SessionCount returns the number of hosts with active sessions.
func (s *SessionStrategy) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// nextUserAgent returns the next User-Agent in rotation.
func (s *SessionStrategy) nextUserAgent() string {
	pool := s.cfg.Scraper.UserAgents
	if len(pool) == 0 {
		return "scrapekit/" + config.Version
	}
	idx := s.uaIndex.Add(1) % int64(len(pool))
	return pool[idx]
}
