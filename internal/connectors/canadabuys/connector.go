package canadabuys

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/david/rfp-finder/internal/connectors"
	"github.com/david/rfp-finder/internal/models"
)

const SourceID = "canadabuys"

const (
	baseURL        = "https://canadabuys.canada.ca"
	openTendersCSV = baseURL + "/opendata/pub/openTenderNotice-ouvertAvisAppelOffres.csv"
	newTendersCSV  = baseURL + "/opendata/pub/newTenderNotice-nouvelAvisAppelOffres.csv"

	userAgent = "rfp-finder/0.1 (Canadian RFP finder; compatible with Open Government Licence)"
)

// Connector fetches tender notices from the CanadaBuys open data CSV feeds.
// The full open-tenders file backs FetchAll; the much smaller new-tenders
// file backs FetchIncremental.
type Connector struct {
	Client         *http.Client
	OpenTendersURL string
	NewTendersURL  string
}

func New() *Connector {
	return &Connector{
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		OpenTendersURL: openTendersCSV,
		NewTendersURL:  newTendersCSV,
	}
}

func (c *Connector) Source() string {
	return SourceID
}

func (c *Connector) fetchCSV(ctx context.Context, feedURL string) ([]connectors.RawOpportunity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	return parseCSVRows(resp.Body)
}

// parseCSVRows reads the feed into raw records keyed by header name. The
// CSV has quoted multiline description fields, which encoding/csv handles.
func parseCSVRows(r io.Reader) ([]connectors.RawOpportunity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// The first header cell may carry a UTF-8 BOM.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	var rows []connectors.RawOpportunity
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		data := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				data[col] = record[i]
			}
		}
		rows = append(rows, connectors.RawOpportunity{Data: data})
	}
	return rows, nil
}

func (c *Connector) sourceIDFor(d map[string]string) string {
	if ref := strings.TrimSpace(d[colReferenceNumber]); ref != "" {
		return ref
	}
	if sol := strings.TrimSpace(d[colSolicitationNumber]); sol != "" {
		return sol
	}
	return "unknown"
}

func (c *Connector) titleFor(d map[string]string, summary string) string {
	title := strings.TrimSpace(d[colTitleEng])
	if title == "" || strings.EqualFold(title, "Untitled") {
		return deriveTitleFromSummary(summary)
	}
	return title
}

func (c *Connector) noticeURLFor(d map[string]string) string {
	notice := strings.TrimSpace(d[colNoticeURLEng])
	if notice == "" || strings.HasPrefix(notice, "http") {
		return notice
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return notice
	}
	ref, err := url.Parse(notice)
	if err != nil {
		return notice
	}
	return base.ResolveReference(ref).String()
}

func categoriesFor(d map[string]string) []string {
	raw := strings.ReplaceAll(strings.TrimSpace(d[colProcurementCategory]), "*", "")
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

func commodityCodesFor(d map[string]string) []string {
	var codes []string
	if gsin := strings.TrimSpace(d[colGSIN]); gsin != "" {
		codes = append(codes, gsin)
	}
	if unspsc := strings.TrimSpace(d[colUNSPSC]); unspsc != "" {
		codes = append(codes, strings.ReplaceAll(unspsc, "*", ""))
	}
	return codes
}

func statusFor(d map[string]string, amendedAt *time.Time) string {
	switch strings.ToLower(strings.TrimSpace(d[colTenderStatusEng])) {
	case models.StatusCancelled:
		return models.StatusCancelled
	case models.StatusExpired:
		return models.StatusExpired
	}
	if amendedAt != nil {
		return models.StatusAmended
	}
	return models.StatusOpen
}

// Normalize converts one CSV row into a NormalizedOpportunity.
func (c *Connector) Normalize(raw connectors.RawOpportunity) *models.NormalizedOpportunity {
	d := raw.Data
	sourceID := c.sourceIDFor(d)
	now := time.Now().UTC()

	summary := strings.TrimSpace(d[colDescriptionEng])
	if strings.Contains(summary, "<") {
		summary = connectors.HTMLToText(connectors.SanitizeHTML(summary))
	}

	amendedAt := parseDate(d[colAmendmentDate])

	var locations []string
	for _, loc := range strings.Split(d[colRegionsDeliveryEng], ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}

	opp := &models.NormalizedOpportunity{
		ID:              SourceID + ":" + sourceID,
		Source:          SourceID,
		SourceID:        sourceID,
		Title:           c.titleFor(d, summary),
		Summary:         summary,
		URL:             c.noticeURLFor(d),
		Buyer:           strings.TrimSpace(d[colContractingEntityEng]),
		PublishedAt:     parseDate(d[colPublicationDate]),
		ClosingAt:       parseDate(d[colClosingDate]),
		AmendedAt:       amendedAt,
		Categories:      categoriesFor(d),
		CommodityCodes:  commodityCodesFor(d),
		TradeAgreements: parseTradeAgreements(d[colTradeAgreementsEng]),
		Region:          strings.TrimSpace(d[colRegionsOpportunityEng]),
		Locations:       locations,
		Attachments:     extractAttachments(d[colAttachmentsEng]),
		Status:          statusFor(d, amendedAt),
		FirstSeenAt:     now,
		LastSeenAt:      now,
	}
	opp.ContentHash = models.ComputeContentHash(opp)
	return opp
}

// FetchAll fetches and normalizes every currently open tender.
func (c *Connector) FetchAll(ctx context.Context) ([]*models.NormalizedOpportunity, error) {
	rows, err := c.fetchCSV(ctx, c.OpenTendersURL)
	if err != nil {
		return nil, err
	}
	opps := make([]*models.NormalizedOpportunity, 0, len(rows))
	for _, raw := range rows {
		opps = append(opps, c.Normalize(raw))
	}
	return opps, nil
}

// FetchIncremental fetches the new-tenders feed, optionally filtered by
// publication date.
func (c *Connector) FetchIncremental(ctx context.Context, since time.Time) ([]*models.NormalizedOpportunity, error) {
	rows, err := c.fetchCSV(ctx, c.NewTendersURL)
	if err != nil {
		return nil, err
	}
	var opps []*models.NormalizedOpportunity
	for _, raw := range rows {
		opp := c.Normalize(raw)
		if !since.IsZero() && (opp.PublishedAt == nil || opp.PublishedAt.Before(since)) {
			continue
		}
		opps = append(opps, opp)
	}
	return opps, nil
}
