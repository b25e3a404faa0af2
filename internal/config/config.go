package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for a scraping run. It is immutable for
// the lifetime of the run and shared read-only across concurrent fetches.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"  yaml:"scraper"`
	Fetch   FetchConfig   `mapstructure:"fetch"    yaml:"fetch"`
	AntiBot AntiBotConfig `mapstructure:"anti_bot" yaml:"anti_bot"`
	Logging LoggingConfig `mapstructure:"logging"  yaml:"logging"`
}

// ScraperConfig controls retry, pacing, and concurrency for the core engine.
type ScraperConfig struct {
	MaxRetries            int               `mapstructure:"max_retries"             yaml:"max_retries"`
	Timeout               time.Duration     `mapstructure:"timeout"                 yaml:"timeout"`
	DelayBetweenRequests  time.Duration     `mapstructure:"delay_between_requests"  yaml:"delay_between_requests"`
	MaxConcurrentRequests int               `mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	UserAgents            []string          `mapstructure:"user_agents"             yaml:"user_agents"`
	MobileUserAgents      []string          `mapstructure:"mobile_user_agents"      yaml:"mobile_user_agents"`
	DefaultHeaders        map[string]string `mapstructure:"default_headers"         yaml:"default_headers"`
	Headless              bool              `mapstructure:"headless"                yaml:"headless"`
}

// FetchConfig controls transport-level behavior shared by the HTTP-based
// strategies.
type FetchConfig struct {
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// AntiBotConfig is the block-detection policy. Real sites' anti-bot behavior
// drifts over time, so the thresholds are configuration, not constants.
type AntiBotConfig struct {
	BlockStatusCodes []int    `mapstructure:"block_status_codes" yaml:"block_status_codes"`
	ChallengeMarkers []string `mapstructure:"challenge_markers"  yaml:"challenge_markers"`
	ChallengeHosts   []string `mapstructure:"challenge_hosts"    yaml:"challenge_hosts"`
	MinBodyBytes     int      `mapstructure:"min_body_bytes"     yaml:"min_body_bytes"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults for production
// scraping runs.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			MaxRetries:            3,
			Timeout:               30 * time.Second,
			DelayBetweenRequests:  1 * time.Second,
			MaxConcurrentRequests: 5,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			MobileUserAgents: []string{
				"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
				"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			},
			DefaultHeaders: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
			},
			Headless: true,
		},
		Fetch: FetchConfig{
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		AntiBot: AntiBotConfig{
			BlockStatusCodes: []int{403, 429, 503},
			ChallengeMarkers: []string{
				"captcha",
				"cf-challenge",
				"just a moment",
				"verify you are human",
				"access denied",
			},
			ChallengeHosts: []string{
				"challenges.cloudflare.com",
				"geo.captcha-delivery.com",
			},
			MinBodyBytes: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
