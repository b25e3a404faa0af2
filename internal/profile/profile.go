// Package profile holds per-site scraping descriptions: which fetch strategy
// a site needs, whether it runs anti-bot defenses, and where in its markup
// each field of interest lives.
package profile

import (
	"github.com/brandlens/scrapekit/internal/types"
)

// SiteProfile is the declarative description of one target site. Profiles
// are created at startup from the static registry, or supplied ad-hoc by a
// caller for one-off sites.
type SiteProfile struct {
	// Name identifies the profile (e.g., "instagram", "glassdoor").
	Name string

	// Strategy is the preferred fetch strategy for this site.
	Strategy types.StrategyKind

	// HasAntiBot marks sites known to run bot defenses. A blocked attempt
	// against such a site escalates to a heavier strategy instead of
	// repeating the same one.
	HasAntiBot bool

	// Selectors maps field names to structural queries. Selectors are CSS
	// by default; an "xpath:" prefix routes the query to the XPath engine.
	Selectors map[string]string

	// Hosts lists hostnames this profile applies to, used for inference
	// when a caller scrapes a URL without naming a profile. Matching is
	// suffix-based, so "example.com" also covers "www.example.com".
	Hosts []string

	// WaitSelector, when set, makes browser strategies wait for the element
	// to appear before capturing markup. Script-rendered pages need this.
	WaitSelector string

	// Cookies seeds the authenticated session for SessionAuth sites.
	Cookies map[string]string

	// Headers are extra request headers for this site (auth tokens, API
	// hints), layered over the run-wide defaults.
	Headers map[string]string
}

// Clone returns a deep copy, so callers can tweak a registry profile
// without mutating the shared table.
func (p *SiteProfile) Clone() *SiteProfile {
	clone := *p
	clone.Selectors = make(map[string]string, len(p.Selectors))
	for k, v := range p.Selectors {
		clone.Selectors[k] = v
	}
	if p.Cookies != nil {
		clone.Cookies = make(map[string]string, len(p.Cookies))
		for k, v := range p.Cookies {
			clone.Cookies[k] = v
		}
	}
	if p.Headers != nil {
		clone.Headers = make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			clone.Headers[k] = v
		}
	}
	clone.Hosts = append([]string(nil), p.Hosts...)
	return &clone
}
