package extract

import (
	"log/slog"
	"os"
	"testing"

	"github.com/brandlens/scrapekit/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const profileHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Acme Corp (@acmecorp)</title>
    <meta name="description" content="Official Acme Corp account">
</head>
<body>
    <header>
        <h1 class="display-name">Acme Corp</h1>
        <span aria-label="1.5K followers" class="follower-badge"></span>
        <span class="likes">2,481</span>
    </header>
    <div class="posts">
        <article><p class="post-text">Launching the new line today.</p></article>
        <article><p class="post-text">Behind the scenes at the factory.</p></article>
        <article><p class="post-text">Thanks for 1500 followers!</p></article>
    </div>
    <span class="rating-na">N/A</span>
</body>
</html>`

func TestExtractStringField(t *testing.T) {
	e := NewExtractor(testLogger)

	data, missed := e.Extract(profileHTML, map[string]string{
		"display_name": "h1.display-name",
	})
	if len(missed) != 0 {
		t.Fatalf("unexpected misses: %v", missed)
	}

	v, ok := data["display_name"]
	if !ok {
		t.Fatal("display_name not extracted")
	}
	if v.Kind != types.KindString || v.Text() != "Acme Corp" {
		t.Errorf("expected string 'Acme Corp', got %v %q", v.Kind, v.Text())
	}
}

func TestExtractCountFromAriaLabel(t *testing.T) {
	e := NewExtractor(testLogger)

	// The span has no text content; the count lives in aria-label.
	data, missed := e.Extract(profileHTML, map[string]string{
		"follower_count": `[aria-label*="follower"]`,
	})
	if len(missed) != 0 {
		t.Fatalf("unexpected misses: %v", missed)
	}

	v := data["follower_count"]
	if v.Kind != types.KindCount {
		t.Fatalf("expected count kind, got %v", v.Kind)
	}
	if v.Count() != 1500 {
		t.Errorf("expected 1500, got %d", v.Count())
	}
}

func TestExtractListField(t *testing.T) {
	e := NewExtractor(testLogger)

	data, _ := e.Extract(profileHTML, map[string]string{
		"posts": "article p.post-text",
	})

	v := data["posts"]
	if v.Kind != types.KindList {
		t.Fatalf("expected list kind, got %v", v.Kind)
	}
	posts := v.List()
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0] != "Launching the new line today." {
		t.Errorf("unexpected first post %q", posts[0])
	}
}

func TestExtractMissedSelectorOmitted(t *testing.T) {
	e := NewExtractor(testLogger)

	data, missed := e.Extract(profileHTML, map[string]string{
		"display_name": "h1.display-name",
		"bio":          "div.no-such-element",
	})

	if _, ok := data["bio"]; ok {
		t.Error("bio should be omitted, not present")
	}
	if len(missed) != 1 || missed[0] != "bio" {
		t.Errorf("expected missed=[bio], got %v", missed)
	}
	if _, ok := data["display_name"]; !ok {
		t.Error("one miss must not drop other fields")
	}
}

func TestExtractNonNumericCountOmitted(t *testing.T) {
	e := NewExtractor(testLogger)

	data, missed := e.Extract(profileHTML, map[string]string{
		"review_count": "span.rating-na",
	})

	if _, ok := data["review_count"]; ok {
		t.Error("non-numeric count should be omitted")
	}
	if len(missed) != 1 {
		t.Errorf("expected 1 miss, got %v", missed)
	}
}

func TestExtractXPathSelector(t *testing.T) {
	e := NewExtractor(testLogger)

	data, missed := e.Extract(profileHTML, map[string]string{
		"display_name": "xpath://h1[@class='display-name']",
		"like_count":   "xpath://span[@class='likes']",
	})
	if len(missed) != 0 {
		t.Fatalf("unexpected misses: %v", missed)
	}
	if got := data["display_name"].Text(); got != "Acme Corp" {
		t.Errorf("xpath string: expected 'Acme Corp', got %q", got)
	}
	if got := data["like_count"].Count(); got != 2481 {
		t.Errorf("xpath count: expected 2481, got %d", got)
	}
}

func TestIsCountField(t *testing.T) {
	yes := []string{"follower_count", "like_count", "view_total", "followers", "subscribers", "post_likes"}
	for _, name := range yes {
		if !IsCountField(name) {
			t.Errorf("IsCountField(%q) = false, want true", name)
		}
	}
	no := []string{"display_name", "bio", "posts", "counter_culture"}
	for _, name := range no {
		if IsCountField(name) {
			t.Errorf("IsCountField(%q) = true, want false", name)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500", 1500, false},
		{"1.5K", 1500, false},
		{"1.5k", 1500, false},
		{"2.3M", 2300000, false},
		{"1B", 1000000000, false},
		{"2,481", 2481, false},
		{"1,234,567", 1234567, false},
		{"1.5K followers", 1500, false},
		{"Followers: 12K", 12000, false},
		{"0", 0, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"no numbers here", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCount(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCount(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	e := NewExtractor(testLogger)
	selectors := map[string]string{
		"display_name":   "h1.display-name",
		"follower_count": `[aria-label*="follower"]`,
		"posts":          "article p.post-text",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(profileHTML, selectors)
	}
}
