package connectors

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeHTML strips unsafe tags and attributes from source-provided HTML.
func SanitizeHTML(s string) string {
	return bluemonday.UGCPolicy().Sanitize(s)
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return CleanText(doc.Text())
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
