package profile

import (
	"net/url"
	"strings"
	"sync"

	"github.com/brandlens/scrapekit/internal/types"
)

// Registry maps site names and hostnames to profiles. The default table is
// static; callers may Register additional entries at startup. Ad-hoc
// profiles passed directly to scrape calls never touch the registry.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*SiteProfile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*SiteProfile)}
}

// DefaultRegistry returns the registry preloaded with the known brand-source
// sites: social platforms, employer-review sites, and a generic fallback.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range defaultProfiles() {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a profile by name.
func (r *Registry) Register(p *SiteProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[p.Name] = p
}

// Lookup returns the profile registered under a name.
func (r *Registry) Lookup(name string) (*SiteProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// Resolve infers the profile for a URL from its hostname. Unknown hosts get
// the generic fallback profile.
func (r *Registry) Resolve(rawURL string) *SiteProfile {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return Generic()
	}
	host := strings.ToLower(u.Hostname())

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byName {
		for _, h := range p.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p
			}
		}
	}
	return Generic()
}

// Names returns the registered profile names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Generic returns the fallback profile for sites outside the registry: plain
// HTTP with only basic document selectors.
func Generic() *SiteProfile {
	return &SiteProfile{
		Name:     "generic",
		Strategy: types.BasicHTTP,
		Selectors: map[string]string{
			"title":       "title",
			"description": `meta[name="description"]`,
			"headline":    "h1",
			"paragraphs":  "p",
		},
	}
}

// defaultProfiles is the static table of known brand-analysis sources.
func defaultProfiles() []*SiteProfile {
	return []*SiteProfile{
		{
			Name:       "x",
			Strategy:   types.HeadlessBrowser,
			HasAntiBot: true,
			Hosts:      []string{"x.com", "twitter.com"},
			Selectors: map[string]string{
				"display_name":   `div[data-testid="UserName"] span`,
				"bio":            `div[data-testid="UserDescription"]`,
				"follower_count": `a[href$="/verified_followers"] span`,
				"posts":          `article[data-testid="tweet"] div[data-testid="tweetText"]`,
			},
			WaitSelector: `div[data-testid="UserName"]`,
		},
		{
			Name:       "instagram",
			Strategy:   types.HeadlessBrowser,
			HasAntiBot: true,
			Hosts:      []string{"instagram.com"},
			Selectors: map[string]string{
				"display_name":   "header h2",
				"bio":            "header section > div span",
				"follower_count": `header a[href$="/followers/"] span`,
				"post_count":     "header ul li:first-child span",
			},
			WaitSelector: "header",
		},
		{
			Name:       "linkedin",
			Strategy:   types.SessionAuth,
			HasAntiBot: true,
			Hosts:      []string{"linkedin.com"},
			Selectors: map[string]string{
				"display_name":   "h1.org-top-card-summary__title",
				"tagline":        "p.org-top-card-summary__tagline",
				"follower_count": "div.org-top-card-summary-info-list__info-item",
				"about":          "p.break-words",
			},
		},
		{
			Name:       "facebook",
			Strategy:   types.MobileHTTP,
			HasAntiBot: true,
			Hosts:      []string{"facebook.com", "m.facebook.com"},
			Selectors: map[string]string{
				"display_name":   "title",
				"follower_count": `a[href*="followers"]`,
				"about":          `div[data-sigil="profile-intro-card"]`,
			},
		},
		{
			Name:       "tiktok",
			Strategy:   types.HeadlessBrowser,
			HasAntiBot: true,
			Hosts:      []string{"tiktok.com"},
			Selectors: map[string]string{
				"display_name":   `h1[data-e2e="user-title"]`,
				"bio":            `h2[data-e2e="user-bio"]`,
				"follower_count": `strong[data-e2e="followers-count"]`,
				"like_count":     `strong[data-e2e="likes-count"]`,
			},
			WaitSelector: `h1[data-e2e="user-title"]`,
		},
		{
			Name:     "youtube",
			Strategy: types.HeadlessBrowser,
			Hosts:    []string{"youtube.com"},
			Selectors: map[string]string{
				"display_name":     "#channel-name #text",
				"subscriber_count": "#subscriber-count",
				"description":      `meta[name="description"]`,
				"videos":           "#video-title",
			},
			WaitSelector: "#channel-name",
		},
		{
			Name:       "glassdoor",
			Strategy:   types.BasicHTTP,
			HasAntiBot: true,
			Hosts:      []string{"glassdoor.com"},
			Selectors: map[string]string{
				"company_name": `div[data-test="employer-header"] h1`,
				"rating":       `div[data-test="rating-headline"] p`,
				"review_count": `a[data-test="reviewSeeAllLink"]`,
				"reviews":      `div[data-test="review-details"] h2`,
			},
		},
		{
			Name:     "indeed",
			Strategy: types.BasicHTTP,
			Hosts:    []string{"indeed.com"},
			Selectors: map[string]string{
				"company_name": `div[itemprop="name"]`,
				"rating":       `span[itemprop="ratingValue"]`,
				"review_count": `span[itemprop="ratingCount"]`,
			},
		},
	}
}
