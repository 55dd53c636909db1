package bidsandtenders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/david/rfp-finder/internal/connectors"
	"github.com/david/rfp-finder/internal/models"
)

const SourceID = "bidsandtenders"

const (
	defaultBaseURL = "https://bids.bidsandtenders.ca"
	listingPath    = "/module/tenders/en/"
	searchPath     = "/Module/Tenders/en/Tender/Search/"
	detailPath     = "/Module/Tenders/en/Tender/Detail/"

	userAgent = "Mozilla/5.0 (compatible; rfp-finder/0.1; Canadian RFP finder)"

	defaultPageSize = 25
)

// Connector fetches open tenders from one bids&tenders portal.
type Connector struct {
	BaseURL  string
	Client   *http.Client
	PageSize int
}

// New builds a connector for the shared portal, honoring
// BIDS_TENDERS_BASE_URL.
func New() *Connector {
	baseURL := os.Getenv("BIDS_TENDERS_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewForBaseURL(baseURL)
}

// NewForBaseURL builds a connector for a specific tenant portal. The cookie
// jar is required: the search endpoint rejects requests without the session
// cookies handed out by the listing page.
func NewForBaseURL(baseURL string) *Connector {
	jar, _ := cookiejar.New(nil)
	return &Connector{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		PageSize: defaultPageSize,
	}
}

func (c *Connector) Source() string {
	return SourceID
}

// bootstrap fetches the listing page and extracts the CSRF token and the
// ephemeral search GUID.
func (c *Connector) bootstrap(ctx context.Context) (token, guid string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+listingPath, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build listing request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("listing page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read listing page: %w", err)
	}
	html := string(body)

	token, err = extractCSRFToken(html)
	if err != nil {
		return "", "", err
	}
	guid, err = extractSearchGUID(html)
	if err != nil {
		return "", "", err
	}
	return token, guid, nil
}

type searchResponse struct {
	Success bool             `json:"success"`
	Total   int              `json:"total"`
	Data    []map[string]any `json:"data"`
}

func (c *Connector) postSearch(ctx context.Context, token, guid, status string, limit, start int) (*searchResponse, error) {
	endpoint := c.BaseURL + searchPath + guid
	params := url.Values{
		"status": {status},
		"limit":  {strconv.Itoa(limit)},
		"start":  {strconv.Itoa(start)},
		"dir":    {"ASC"},
		"from":   {""},
		"to":     {""},
		"sort":   {"DateClosing ASC,Id"},
	}
	form := url.Values{"__RequestVerificationToken": {token}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?"+params.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL+"/")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	// A redirect to the error page comes back as HTML with status 200.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "json") && !strings.Contains(contentType, "javascript") {
		return nil, fmt.Errorf("search returned %q instead of JSON; bootstrap may have failed", contentType)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &payload, nil
}

// search pages through the full result set for the given status.
func (c *Connector) search(ctx context.Context, status string) ([]connectors.RawOpportunity, error) {
	token, guid, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	limit := c.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}

	var all []connectors.RawOpportunity
	start := 0
	for {
		payload, err := c.postSearch(ctx, token, guid, status, limit, start)
		if err != nil {
			return nil, err
		}
		if !payload.Success {
			log.Printf("bids&tenders search returned success=false at start=%d", start)
			break
		}

		for _, item := range payload.Data {
			raw := rawFromSearchItem(item)
			if raw["url"] == "" && raw["id"] != "" {
				raw["url"] = c.BaseURL + detailPath + raw["id"]
			}
			all = append(all, connectors.RawOpportunity{Data: raw})
		}

		if len(payload.Data) == 0 || len(all) >= payload.Total {
			break
		}
		start += limit
	}
	return all, nil
}

// Normalize converts one raw search item into a NormalizedOpportunity.
func (c *Connector) Normalize(raw connectors.RawOpportunity) *models.NormalizedOpportunity {
	d := raw.Data
	sourceID := d["id"]
	if sourceID == "" {
		sourceID = d["reference_number"]
	}
	if sourceID == "" {
		sourceID = "unknown"
	}
	now := time.Now().UTC()

	title := strings.TrimSpace(d["title"])
	if title == "" {
		title = "Untitled"
	}

	summary := strings.TrimSpace(d["description"])
	if strings.Contains(summary, "<") {
		summary = connectors.HTMLToText(connectors.SanitizeHTML(summary))
	}

	opp := &models.NormalizedOpportunity{
		ID:          SourceID + ":" + sourceID,
		Source:      SourceID,
		SourceID:    sourceID,
		Title:       title,
		Summary:     summary,
		URL:         strings.TrimSpace(d["url"]),
		Buyer:       strings.TrimSpace(d["buyer"]),
		PublishedAt: parseSearchDate(d["date_published"]),
		ClosingAt:   parseSearchDate(d["date_closing"]),
		Status:      models.StatusOpen,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	opp.ContentHash = models.ComputeContentHash(opp)
	return opp
}

var searchDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseSearchDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, format := range searchDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}
	return nil
}

// FetchAll fetches and normalizes every open tender on the portal.
func (c *Connector) FetchAll(ctx context.Context) ([]*models.NormalizedOpportunity, error) {
	rows, err := c.search(ctx, "Open")
	if err != nil {
		return nil, err
	}
	opps := make([]*models.NormalizedOpportunity, 0, len(rows))
	for _, raw := range rows {
		opps = append(opps, c.Normalize(raw))
	}
	return opps, nil
}

// FetchIncremental fetches everything and filters by publication date; the
// platform has no server-side since parameter.
func (c *Connector) FetchIncremental(ctx context.Context, since time.Time) ([]*models.NormalizedOpportunity, error) {
	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		return all, nil
	}
	var opps []*models.NormalizedOpportunity
	for _, opp := range all {
		if opp.PublishedAt != nil && !opp.PublishedAt.Before(since) {
			opps = append(opps, opp)
		}
	}
	return opps, nil
}
