package config

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative retries", func(c *Config) { c.Scraper.MaxRetries = -1 }},
		{"zero timeout", func(c *Config) { c.Scraper.Timeout = 0 }},
		{"negative delay", func(c *Config) { c.Scraper.DelayBetweenRequests = -time.Second }},
		{"zero concurrency", func(c *Config) { c.Scraper.MaxConcurrentRequests = 0 }},
		{"absurd concurrency", func(c *Config) { c.Scraper.MaxConcurrentRequests = 10000 }},
		{"no user agents", func(c *Config) { c.Scraper.UserAgents = nil }},
		{"zero body size", func(c *Config) { c.Fetch.MaxBodySize = 0 }},
		{"bad status code", func(c *Config) { c.AntiBot.BlockStatusCodes = []int{9000} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://x.com/acmecorp",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com",
		"example.com",
		"https://",
		"://bad",
	}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.Scraper.MaxRetries)
	}
	if cfg.Scraper.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want default 30s", cfg.Scraper.Timeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SCRAPEKIT_SCRAPER_MAX_RETRIES", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.MaxRetries != 7 {
		t.Errorf("env override ignored: MaxRetries = %d", cfg.Scraper.MaxRetries)
	}
}
