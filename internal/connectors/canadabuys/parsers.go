package canadabuys

import (
	"regexp"
	"strings"
	"time"

	"github.com/david/rfp-finder/internal/models"
)

var dateFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// parseDate parses a CanadaBuys date string. The feeds mix date-only and
// timestamp forms; anything past 19 characters (timezone suffixes) is
// ignored.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if len(value) > 19 {
		value = value[:19]
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}
	return nil
}

// Boilerplate prefixes stripped when deriving a title from the summary.
var titleSkipPrefixes = []string{
	"NOTICE OF PROPOSED PROCUREMENT (NPP)",
	"NOTICE OF PROPOSED PROCUREMENT",
	"Solicitation Number:",
	"Organization Name:",
	"Reference Number:",
	"Tendering Procedure:",
	"This requirement is for:",
}

var paragraphSplit = regexp.MustCompile(`\r?\n\r?\n`)

// deriveTitleFromSummary builds a usable title when the title column is
// empty: first substantive paragraph, boilerplate stripped, capped at ~100
// characters.
func deriveTitleFromSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "Untitled"
	}
	for _, para := range paragraphSplit.Split(summary, -1) {
		para = strings.TrimSpace(strings.ReplaceAll(para, "&nbsp;", " "))
		for _, prefix := range titleSkipPrefixes {
			if strings.HasPrefix(strings.ToUpper(para), strings.ToUpper(prefix)) {
				para = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(para[len(prefix):]), ":"))
				break
			}
		}
		if len(para) > 15 {
			if len(para) > 100 {
				para = para[:97] + "..."
			}
			return para
		}
	}
	return "Untitled"
}

var (
	urlPattern = regexp.MustCompile(`(?i)https?://[^\s,)\]"']+`)
	// Splits comma-separated URL lists without breaking commas inside
	// query strings.
	urlSeparator = regexp.MustCompile(`(?i),\s*(https?://)`)
	urlBoundary  = regexp.MustCompile(`(?i)(https?://)`)
)

// extractAttachments parses the attachment column, which concatenates URLs
// with commas, newlines, or nothing at all ("url1https://url2").
func extractAttachments(field string) []models.AttachmentRef {
	if strings.TrimSpace(field) == "" {
		return nil
	}

	// Re-introduce separators so every URL starts its own segment.
	field = urlSeparator.ReplaceAllString(field, "\n$1")
	field = urlBoundary.ReplaceAllString(field, "\n$1")

	var refs []models.AttachmentRef
	seen := make(map[string]bool)
	for _, segment := range strings.Split(field, "\n") {
		for _, url := range urlPattern.FindAllString(segment, -1) {
			url = strings.TrimSpace(strings.TrimRight(url, ".,;:"))
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			ref := models.AttachmentRef{URL: url}
			if strings.HasSuffix(strings.ToLower(url), ".pdf") {
				ref.MimeType = "application/pdf"
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

var tradeAgreementSplit = regexp.MustCompile(`[\n*]+`)

// parseTradeAgreements splits the newline/asterisk-separated agreements
// column.
func parseTradeAgreements(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var items []string
	for _, item := range tradeAgreementSplit.Split(value, -1) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
