package fetch

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/types"
)

// markerScanLimit bounds how much of a body the challenge-marker scan reads.
// Challenge interstitials put their tells near the top of the document.
const markerScanLimit = 16 * 1024

// Detector classifies fetched pages as blocked or clean using the
// configurable anti-bot policy: block status codes, redirect-to-challenge
// host patterns, challenge markers in the body, and a minimum body size.
type Detector struct {
	policy config.AntiBotConfig
	logger *slog.Logger
}

// NewDetector creates a Detector from the run's anti-bot policy.
func NewDetector(policy config.AntiBotConfig, logger *slog.Logger) *Detector {
	return &Detector{
		policy: policy,
		logger: logger.With("component", "antibot_detector"),
	}
}

// Check returns a KindAntiBot FetchError if the page looks like a block or
// challenge, nil otherwise.
func (d *Detector) Check(page *Page) error {
	if reason := d.classify(page); reason != "" {
		d.logger.Debug("anti-bot block detected",
			"url", page.URL,
			"status", page.StatusCode,
			"reason", reason,
		)
		return &types.FetchError{
			URL:        page.URL,
			StatusCode: page.StatusCode,
			Kind:       types.KindAntiBot,
			Err:        fmt.Errorf("anti-bot block: %s", reason),
			Retryable:  true,
		}
	}
	return nil
}

func (d *Detector) classify(page *Page) string {
	for _, code := range d.policy.BlockStatusCodes {
		if page.StatusCode == code {
			return fmt.Sprintf("block status %d", code)
		}
	}

	// Redirect to a known challenge host
	if page.FinalURL != "" && page.FinalURL != page.URL {
		if u, err := url.Parse(page.FinalURL); err == nil {
			host := strings.ToLower(u.Hostname())
			for _, challengeHost := range d.policy.ChallengeHosts {
				if host == challengeHost || strings.HasSuffix(host, "."+challengeHost) {
					return "redirect to challenge host " + host
				}
			}
		}
	}

	// Suspiciously empty body
	if d.policy.MinBodyBytes > 0 && len(page.Body) < d.policy.MinBodyBytes {
		return fmt.Sprintf("body too small (%d bytes)", len(page.Body))
	}

	// Challenge markers near the top of the document
	head := page.Body
	if len(head) > markerScanLimit {
		head = head[:markerScanLimit]
	}
	lower := bytes.ToLower(head)
	for _, marker := range d.policy.ChallengeMarkers {
		if bytes.Contains(lower, []byte(strings.ToLower(marker))) {
			return "challenge marker " + strings.ToLower(marker)
		}
	}

	return ""
}
