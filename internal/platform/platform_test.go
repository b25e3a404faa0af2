package platform

import (
	"strings"
	"testing"

	"github.com/brandlens/scrapekit/internal/types"
)

func TestProfileURL(t *testing.T) {
	tests := []struct {
		platform string
		handle   string
		want     string
	}{
		{"x", "acmecorp", "https://x.com/acmecorp"},
		{"x", "@acmecorp", "https://x.com/acmecorp"},
		{"instagram", "acmecorp", "https://www.instagram.com/acmecorp/"},
		{"tiktok", "acmecorp", "https://www.tiktok.com/@acmecorp"},
		{"youtube", "acmecorp", "https://www.youtube.com/@acmecorp"},
		{"facebook", "acmecorp", "https://m.facebook.com/acmecorp"},
		{"linkedin", "Acme Corp", "https://www.linkedin.com/company/acme-corp/"},
		{"indeed", "Acme Corp", "https://www.indeed.com/cmp/acme-corp/reviews"},
	}
	for _, tt := range tests {
		got, err := ProfileURL(tt.platform, tt.handle)
		if err != nil {
			t.Errorf("ProfileURL(%q, %q) error: %v", tt.platform, tt.handle, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ProfileURL(%q, %q) = %q, want %q", tt.platform, tt.handle, got, tt.want)
		}
	}
}

func TestProfileURLGlassdoorEscapesQuery(t *testing.T) {
	got, err := ProfileURL("glassdoor", "Acme Corp")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !strings.Contains(got, "sc.keyword=Acme+Corp") {
		t.Errorf("query not escaped: %q", got)
	}
}

func TestProfileURLErrors(t *testing.T) {
	if _, err := ProfileURL("myspace", "acmecorp"); err == nil {
		t.Error("unknown platform must error")
	}
	if _, err := ProfileURL("x", "  "); err == nil {
		t.Error("empty handle must error")
	}
	if _, err := ProfileURL("x", "@"); err == nil {
		t.Error("bare @ must error")
	}
}

func TestNormalizeResultAliases(t *testing.T) {
	result := &types.ScrapeResult{
		Success: true,
		Data: map[string]types.Value{
			"subscriber_count": types.CountValue(42000),
			"bio":              types.StringValue("We make everything."),
			"videos":           types.ListValue([]string{"Launch day", "Factory tour"}),
			"rating":           types.StringValue("4.2"),
		},
	}

	norm := normalizeResult(result)

	if norm.Data[FieldFollowerCount].Count() != 42000 {
		t.Error("subscriber_count not mapped to follower_count")
	}
	if norm.Data[FieldDescription].Text() != "We make everything." {
		t.Error("bio not mapped to description")
	}
	if len(norm.Data[FieldRecentPosts].List()) != 2 {
		t.Error("videos not mapped to recent_posts")
	}
	if norm.Data["rating"].Text() != "4.2" {
		t.Error("unaliased field dropped")
	}

	// Original untouched
	if _, ok := result.Data["subscriber_count"]; !ok {
		t.Error("normalization mutated the source result")
	}
	if _, ok := result.Data[FieldFollowerCount]; ok {
		t.Error("normalization mutated the source data map")
	}
}

func TestNormalizeResultEmptyData(t *testing.T) {
	result := &types.ScrapeResult{Success: false}
	if got := normalizeResult(result); got != result {
		t.Error("empty data should pass through unchanged")
	}
}
