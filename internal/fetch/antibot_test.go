package fetch

import (
	"errors"
	"strings"
	"testing"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/types"
)

func testDetector() *Detector {
	return NewDetector(config.DefaultConfig().AntiBot, testLogger)
}

// cleanBody is long enough to pass the minimum-size check.
var cleanBody = []byte("<html><body>" + strings.Repeat("<p>brand content</p>", 50) + "</body></html>")

func TestDetectorCleanPage(t *testing.T) {
	page := &Page{URL: "https://example.com", FinalURL: "https://example.com", StatusCode: 200, Body: cleanBody}
	if err := testDetector().Check(page); err != nil {
		t.Errorf("clean page flagged: %v", err)
	}
}

func TestDetectorBlockStatusCodes(t *testing.T) {
	for _, code := range []int{403, 429, 503} {
		page := &Page{URL: "https://example.com", StatusCode: code, Body: cleanBody}
		err := testDetector().Check(page)
		if err == nil {
			t.Errorf("status %d not flagged", code)
			continue
		}
		var fe *types.FetchError
		if !errors.As(err, &fe) || fe.Kind != types.KindAntiBot || !fe.Retryable {
			t.Errorf("status %d: want retryable anti-bot error, got %v", code, err)
		}
	}
}

func TestDetectorChallengeMarker(t *testing.T) {
	body := []byte("<html><head><title>Just a moment...</title></head><body>" +
		strings.Repeat("<div>checking your browser</div>", 40) + "</body></html>")
	page := &Page{URL: "https://example.com", StatusCode: 200, Body: body}
	if err := testDetector().Check(page); err == nil {
		t.Error("challenge interstitial not flagged")
	}
}

func TestDetectorRedirectToChallengeHost(t *testing.T) {
	page := &Page{
		URL:        "https://example.com/profile",
		FinalURL:   "https://challenges.cloudflare.com/cdn-cgi/challenge",
		StatusCode: 200,
		Body:       cleanBody,
	}
	if err := testDetector().Check(page); err == nil {
		t.Error("challenge redirect not flagged")
	}
}

func TestDetectorTinyBody(t *testing.T) {
	page := &Page{URL: "https://example.com", StatusCode: 200, Body: []byte("<html></html>")}
	if err := testDetector().Check(page); err == nil {
		t.Error("suspiciously small body not flagged")
	}
}

func TestDetectorMarkerBeyondScanLimitIgnored(t *testing.T) {
	// The marker sits past the scan window; deep page text mentioning
	// "captcha" editorially must not trigger a block.
	body := append([]byte(nil), cleanBody...)
	body = append(body, make([]byte, markerScanLimit)...)
	body = append(body, []byte("captcha")...)
	page := &Page{URL: "https://example.com", StatusCode: 200, Body: body}
	if err := testDetector().Check(page); err != nil {
		t.Errorf("marker beyond scan limit flagged: %v", err)
	}
}
