package profile

import (
	"testing"

	"github.com/brandlens/scrapekit/internal/types"
)

func TestDefaultRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"x", "instagram", "linkedin", "facebook", "tiktok", "youtube", "glassdoor", "indeed"} {
		p, ok := r.Lookup(name)
		if !ok {
			t.Errorf("profile %q missing", name)
			continue
		}
		if len(p.Selectors) == 0 {
			t.Errorf("profile %q has no selectors", name)
		}
	}
}

func TestResolveByHost(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://x.com/acmecorp", "x"},
		{"https://twitter.com/acmecorp", "x"},
		{"https://www.instagram.com/acmecorp/", "instagram"},
		{"https://m.facebook.com/acmecorp", "facebook"},
		{"https://www.youtube.com/@acmecorp", "youtube"},
		{"https://www.glassdoor.com/Reviews/Acme-Reviews", "glassdoor"},
		{"https://unknown-blog.example.com/post", "generic"},
		{"not a url", "generic"},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.url); got.Name != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.url, got.Name, tt.want)
		}
	}
}

func TestRegisterOverrides(t *testing.T) {
	r := DefaultRegistry()
	r.Register(&SiteProfile{
		Name:     "x",
		Strategy: types.BasicHTTP,
		Hosts:    []string{"x.com"},
		Selectors: map[string]string{
			"display_name": "h1",
		},
	})

	p, _ := r.Lookup("x")
	if p.Strategy != types.BasicHTTP {
		t.Errorf("override not applied: strategy %s", p.Strategy)
	}
}

func TestGenericProfile(t *testing.T) {
	p := Generic()
	if p.Strategy != types.BasicHTTP {
		t.Errorf("generic profile must use basic HTTP, got %s", p.Strategy)
	}
	if p.HasAntiBot {
		t.Error("generic profile must not enable anti-bot detection")
	}
	if _, ok := p.Selectors["title"]; !ok {
		t.Error("generic profile must extract the title")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, _ := DefaultRegistry().Lookup("x")
	clone := p.Clone()
	clone.Selectors["extra"] = "div.extra"

	if _, ok := p.Selectors["extra"]; ok {
		t.Error("mutating a clone leaked into the registry profile")
	}
}
