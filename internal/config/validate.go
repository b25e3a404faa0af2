package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0, got %d", cfg.Scraper.MaxRetries)
	}
	if cfg.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be > 0")
	}
	if cfg.Scraper.DelayBetweenRequests < 0 {
		return fmt.Errorf("scraper.delay_between_requests must be >= 0")
	}
	if cfg.Scraper.MaxConcurrentRequests < 1 {
		return fmt.Errorf("scraper.max_concurrent_requests must be >= 1, got %d", cfg.Scraper.MaxConcurrentRequests)
	}
	if cfg.Scraper.MaxConcurrentRequests > 1000 {
		return fmt.Errorf("scraper.max_concurrent_requests must be <= 1000, got %d", cfg.Scraper.MaxConcurrentRequests)
	}
	if len(cfg.Scraper.UserAgents) == 0 {
		return fmt.Errorf("scraper.user_agents must not be empty")
	}

	if cfg.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be > 0")
	}
	if cfg.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must be >= 0")
	}

	for _, code := range cfg.AntiBot.BlockStatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("anti_bot.block_status_codes contains invalid code %d", code)
		}
	}
	if cfg.AntiBot.MinBodyBytes < 0 {
		return fmt.Errorf("anti_bot.min_body_bytes must be >= 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is valid for scraping.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
