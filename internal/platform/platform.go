// Package platform is the thin specialization layer over the web scraper
// for known brand-presence platforms. It builds canonical profile URLs from
// a brand handle, supplies the platform's site profile, and renormalizes
// extracted fields into one cross-platform schema so downstream collectors
// need no platform-specific branching.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/scraper"
	"github.com/brandlens/scrapekit/internal/types"
)

// Canonical cross-platform field names. Platform-specific names are mapped
// onto these during normalization.
const (
	FieldDisplayName   = "display_name"
	FieldDescription   = "description"
	FieldFollowerCount = "follower_count"
	FieldEngagement    = "engagement"
	FieldRecentPosts   = "recent_posts"
	FieldRating        = "rating"
	FieldReviewCount   = "review_count"
)

// fieldAliases maps platform-specific extracted field names to the
// canonical schema. Fields without an alias pass through unchanged.
var fieldAliases = map[string]string{
	"subscriber_count": FieldFollowerCount,
	"like_count":       FieldEngagement,
	"company_name":     FieldDisplayName,
	"bio":              FieldDescription,
	"about":            FieldDescription,
	"tagline":          FieldDescription,
	"posts":            FieldRecentPosts,
	"videos":           FieldRecentPosts,
	"reviews":          FieldRecentPosts,
}

// PlatformScraper wraps a WebScraper with platform-aware URL building and
// schema normalization.
type PlatformScraper struct {
	ws     *scraper.WebScraper
	logger *slog.Logger
}

// New creates a PlatformScraper over an existing WebScraper.
func New(ws *scraper.WebScraper, logger *slog.Logger) *PlatformScraper {
	return &PlatformScraper{
		ws:     ws,
		logger: logger.With("component", "platform_scraper"),
	}
}

// ScrapePage scrapes a brand's presence on a named platform and normalizes
// the extracted fields into the cross-platform schema.
func (ps *PlatformScraper) ScrapePage(ctx context.Context, platformName, handle string) (*types.ScrapeResult, error) {
	prof, ok := ps.ws.Registry().Lookup(platformName)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platformName)
	}

	pageURL, err := ProfileURL(platformName, handle)
	if err != nil {
		return nil, err
	}

	ps.logger.Debug("scraping platform page",
		"platform", platformName,
		"handle", handle,
		"url", pageURL,
	)

	result := ps.ws.ScrapeURL(ctx, pageURL, prof)
	return normalizeResult(result), nil
}

// ScrapeGenericWebsite scrapes an arbitrary site outside the registry with
// caller-supplied selectors layered over the generic profile's basics.
func (ps *PlatformScraper) ScrapeGenericWebsite(ctx context.Context, rawURL string, customSelectors map[string]string) *types.ScrapeResult {
	prof := profile.Generic()
	for field, selector := range customSelectors {
		prof.Selectors[field] = selector
	}
	return ps.ws.ScrapeURL(ctx, rawURL, prof)
}

// ProfileURL builds the canonical profile URL for a platform from a brand
// handle or company name.
func ProfileURL(platformName, handle string) (string, error) {
	handle = strings.TrimSpace(strings.TrimPrefix(handle, "@"))
	if handle == "" {
		return "", fmt.Errorf("empty handle for platform %q", platformName)
	}

	switch platformName {
	case "x":
		return "https://x.com/" + url.PathEscape(handle), nil
	case "instagram":
		return "https://www.instagram.com/" + url.PathEscape(handle) + "/", nil
	case "linkedin":
		return "https://www.linkedin.com/company/" + companySlug(handle) + "/", nil
	case "facebook":
		return "https://m.facebook.com/" + url.PathEscape(handle), nil
	case "tiktok":
		return "https://www.tiktok.com/@" + url.PathEscape(handle), nil
	case "youtube":
		return "https://www.youtube.com/@" + url.PathEscape(handle), nil
	case "glassdoor":
		return "https://www.glassdoor.com/Reviews/company-reviews.htm?sc.keyword=" + url.QueryEscape(handle), nil
	case "indeed":
		return "https://www.indeed.com/cmp/" + companySlug(handle) + "/reviews", nil
	default:
		return "", fmt.Errorf("unknown platform %q", platformName)
	}
}

// companySlug converts a company name to the URL slug form used by
// company-page platforms ("Acme Corp" → "acme-corp").
func companySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return url.PathEscape(slug)
}

// normalizeResult maps platform-specific field names onto the canonical
// schema. The original result is never mutated; a copy carries the
// normalized data.
func normalizeResult(result *types.ScrapeResult) *types.ScrapeResult {
	if len(result.Data) == 0 {
		return result
	}

	data := make(map[string]types.Value, len(result.Data))
	for field, value := range result.Data {
		canonical, ok := fieldAliases[field]
		if !ok {
			canonical = field
		}
		// First writer wins on alias collisions
		if _, exists := data[canonical]; !exists {
			data[canonical] = value
		}
	}

	normalized := *result
	normalized.Data = data
	return &normalized
}
