// Package extract turns raw markup into typed fields by applying a site
// profile's selector map. Selectors are CSS by default; an "xpath:" prefix
// routes the query to the XPath engine.
package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/brandlens/scrapekit/internal/types"
)

// xpathPrefix marks a selector as an XPath expression instead of CSS.
const xpathPrefix = "xpath:"

// valueAttrs are attributes consulted, in order, when a matched element has
// no text content. Social platforms frequently carry the interesting value
// in aria-label (e.g. <span aria-label="1.5K followers">).
var valueAttrs = []string{"aria-label", "title", "content", "value"}

// Extractor applies selector maps to markup.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Extract applies each selector to the markup and returns the typed fields
// that matched, plus the names of fields that matched nothing. A missed
// field is simply omitted — extraction never fails the overall call.
//
// Field typing: count-like field names get suffix-aware integer
// normalization; other fields become an ordered list when the selector
// matches multiple nodes, or a plain string for a single match.
func (e *Extractor) Extract(markup string, selectors map[string]string) (map[string]types.Value, []string) {
	data := make(map[string]types.Value, len(selectors))
	var missed []string

	cssDoc, cssErr := goquery.NewDocumentFromReader(strings.NewReader(markup))
	var xpathDoc *html.Node
	var xpathErr error

	for field, selector := range selectors {
		var texts []string

		if xp, ok := strings.CutPrefix(selector, xpathPrefix); ok {
			if xpathDoc == nil && xpathErr == nil {
				xpathDoc, xpathErr = htmlquery.Parse(strings.NewReader(markup))
			}
			if xpathErr != nil {
				missed = append(missed, field)
				continue
			}
			texts = matchXPath(xpathDoc, xp)
		} else {
			if cssErr != nil {
				missed = append(missed, field)
				continue
			}
			texts = matchCSS(cssDoc, selector)
		}

		if len(texts) == 0 {
			missed = append(missed, field)
			continue
		}

		value, ok := typeField(field, texts)
		if !ok {
			// Count field whose text is not numeric ("N/A") — omit, never fail
			missed = append(missed, field)
			continue
		}
		data[field] = value
	}

	if len(missed) > 0 {
		e.logger.Debug("fields missed", "fields", missed)
	}
	return data, missed
}

// typeField converts matched texts into the field's Value variant.
func typeField(field string, texts []string) (types.Value, bool) {
	if IsCountField(field) {
		n, err := ParseCount(texts[0])
		if err != nil {
			return types.Value{}, false
		}
		return types.CountValue(n), true
	}
	if len(texts) > 1 {
		return types.ListValue(texts), true
	}
	return types.StringValue(texts[0]), true
}

// matchCSS collects the text of every node matching a CSS selector.
func matchCSS(doc *goquery.Document, selector string) []string {
	var texts []string
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if text := selectionText(sel); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// matchXPath collects the text of every node matching an XPath expression.
func matchXPath(doc *html.Node, expr string) []string {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil
	}
	var texts []string
	for _, node := range nodes {
		if text := nodeText(node); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// selectionText returns the trimmed text of a CSS match, falling back to
// value-bearing attributes when the element is textless.
func selectionText(sel *goquery.Selection) string {
	if text := strings.TrimSpace(sel.Text()); text != "" {
		return text
	}
	for _, attr := range valueAttrs {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// nodeText returns the trimmed text of an XPath match, with the same
// attribute fallback as CSS matches.
func nodeText(node *html.Node) string {
	if text := strings.TrimSpace(htmlquery.InnerText(node)); text != "" {
		return text
	}
	for _, attr := range valueAttrs {
		for _, a := range node.Attr {
			if a.Key == attr && strings.TrimSpace(a.Val) != "" {
				return strings.TrimSpace(a.Val)
			}
		}
	}
	return ""
}
