package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/types"
)

func basicTestProfile() *profile.SiteProfile {
	return &profile.SiteProfile{Name: "test", Strategy: types.BasicHTTP}
}

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scraper.Timeout = 5 * time.Second
	return cfg
}

func TestHTTPStrategyFetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><head><title>hello</title></head></html>"))
	}))
	defer server.Close()

	s, err := NewHTTPStrategy(testConfig(), testLogger)
	if err != nil {
		t.Fatalf("create strategy: %v", err)
	}
	defer s.Close()

	page, err := s.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("status = %d", page.StatusCode)
	}
	if !strings.Contains(page.HTML(), "hello") {
		t.Errorf("unexpected body %q", page.HTML())
	}
	if gotUA == "" {
		t.Error("User-Agent not set")
	}
	if s.Kind() != types.BasicHTTP {
		t.Errorf("kind = %s", s.Kind())
	}
}

func TestMobileStrategyUsesMobileUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Scraper.MobileUserAgents = []string{"MobileTest/1.0"}

	s, err := NewMobileHTTPStrategy(cfg, testLogger)
	if err != nil {
		t.Fatalf("create strategy: %v", err)
	}
	defer s.Close()

	if _, err := s.Fetch(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != "MobileTest/1.0" {
		t.Errorf("expected mobile UA, got %q", gotUA)
	}
	if s.Kind() != types.MobileHTTP {
		t.Errorf("kind = %s", s.Kind())
	}
}

func TestFetchGzipDecompressed(t *testing.T) {
	const body = "<html><head><title>compressed</title></head></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(body))
		gz.Close()
	}))
	defer server.Close()

	s, _ := NewHTTPStrategy(testConfig(), testLogger)
	defer s.Close()

	page, err := s.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.HTML() != body {
		t.Errorf("body not decompressed: %q", page.HTML())
	}
}

func TestFetch429ReturnsAntiBotWithRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s, _ := NewHTTPStrategy(testConfig(), testLogger)
	defer s.Close()

	_, err := s.Fetch(context.Background(), server.URL, nil)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != types.KindAntiBot {
		t.Errorf("429 must classify as anti-bot, got %s", fe.Kind)
	}
	if !fe.Retryable {
		t.Error("429 must be retryable")
	}
	if fe.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %s, want 7s", fe.RetryAfter)
	}
}

func TestFetch5xxRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	s, _ := NewHTTPStrategy(testConfig(), testLogger)
	defer s.Close()

	_, err := s.Fetch(context.Background(), server.URL, nil)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != types.KindNetwork || !fe.Retryable {
		t.Errorf("5xx must be retryable network error, got kind=%s retryable=%v", fe.Kind, fe.Retryable)
	}
}

func TestFetchBodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Fetch.MaxBodySize = 1024

	s, _ := NewHTTPStrategy(cfg, testLogger)
	defer s.Close()

	page, err := s.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Body) != 1024 {
		t.Errorf("body not limited: %d bytes", len(page.Body))
	}
}

func TestFetchProfileHeadersApplied(t *testing.T) {
	var gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("X-Test-Header")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	s, _ := NewHTTPStrategy(testConfig(), testLogger)
	defer s.Close()

	prof := basicTestProfile()
	prof.Headers = map[string]string{"X-Test-Header": "applied"}
	if _, err := s.Fetch(context.Background(), server.URL, prof); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotLang != "applied" {
		t.Errorf("profile header not applied, got %q", gotLang)
	}
}

func TestUserAgentRotation(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.UserAgents = []string{"A", "B", "C"}
	s, _ := NewHTTPStrategy(cfg, testLogger)
	defer s.Close()

	seen := make(map[string]bool)
	for i := 0; i < 6; i++ {
		seen[s.nextUserAgent()] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected rotation across 3 agents, saw %d", len(seen))
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  types.ErrorKind
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, types.KindTimeout, true},
		{"cancelled", context.Canceled, types.KindNetwork, false},
		{"eof", io.ErrUnexpectedEOF, types.KindNetwork, true},
		{"other", errors.New("tls handshake failure"), types.KindNetwork, false},
	}
	for _, tt := range tests {
		kind, retryable := classifyTransportError(tt.err)
		if kind != tt.wantKind || retryable != tt.retryable {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tt.name, kind, retryable, tt.wantKind, tt.retryable)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10", 10 * time.Second},
		{"300", 2 * time.Minute}, // capped
		{"", 5 * time.Second},    // default
		{"garbage", 5 * time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
