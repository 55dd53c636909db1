// Package bidsandtenders fetches notices from the bids&tenders
// eProcurement platform used by Canadian municipalities. The platform has
// no public API; the connector follows the web UI's XHR flow: GET the
// listing page for session cookies, a CSRF token, and an ephemeral search
// GUID, then POST to the search endpoint.
package bidsandtenders

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var guidPattern = regexp.MustCompile(`/Tender/Search/([0-9a-fA-F-]{36})`)

// extractCSRFToken pulls the ASP.NET __RequestVerificationToken from the
// listing page HTML.
func extractCSRFToken(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse listing page: %w", err)
	}
	token, ok := doc.Find(`input[name="__RequestVerificationToken"]`).First().Attr("value")
	if !ok || token == "" {
		return "", fmt.Errorf("no __RequestVerificationToken in listing page")
	}
	return token, nil
}

// extractSearchGUID finds the ephemeral search context GUID. The site keeps
// it in a hidden NodeId input; older page variants only carry it inside
// /Tender/Search/{guid} URLs.
func extractSearchGUID(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse listing page: %w", err)
	}
	if guid, ok := doc.Find("#NodeId").First().Attr("value"); ok && len(guid) == 36 {
		return guid, nil
	}
	if m := guidPattern.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no search GUID in listing page; the site structure may have changed")
}

// rawFromSearchItem maps one search JSON item to the raw data shape. Field
// names vary between tenants and platform versions.
func rawFromSearchItem(item map[string]any) map[string]string {
	pick := func(keys ...string) string {
		for _, key := range keys {
			if v, ok := item[key]; ok {
				if s := stringValue(v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	raw := map[string]string{
		"id":             pick("Id", "id", "ReferenceNumber", "reference_number"),
		"title":          pick("Title", "title", "Name", "name"),
		"description":    pick("Description", "description", "Summary", "summary"),
		"buyer":          pick("Organization", "organization", "Buyer", "buyer", "ContractingEntity", "contracting_entity"),
		"url":            pick("Url", "url", "Link", "link"),
		"date_closing":   pick("DateClosing", "date_closing", "ClosingDate", "closing_date"),
		"date_published": pick("DatePublished", "date_published", "PublicationDate", "publication_date"),
	}
	raw["reference_number"] = pick("ReferenceNumber", "reference_number")
	if raw["reference_number"] == "" {
		raw["reference_number"] = raw["id"]
	}
	return raw
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}
