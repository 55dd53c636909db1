package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lifecycle status values for an opportunity.
const (
	StatusOpen      = "open"
	StatusAmended   = "amended"
	StatusClosed    = "closed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusUnknown   = "unknown"
)

// AttachmentRef points at a document linked from a notice. Immutable once
// produced by a connector.
type AttachmentRef struct {
	URL       string `json:"url"`
	Label     string `json:"label,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// NormalizedOpportunity is the canonical procurement record every connector
// produces. ID is the deterministic composite "{source}:{source_id}" and is
// never reassigned; (Source, SourceID) is the upsert/dedupe key.
type NormalizedOpportunity struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	SourceID string `json:"source_id"`

	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`

	Buyer   string `json:"buyer,omitempty"`
	BuyerID string `json:"buyer_id,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	ClosingAt   *time.Time `json:"closing_at,omitempty"`
	AmendedAt   *time.Time `json:"amended_at,omitempty"`

	Categories      []string `json:"categories"`
	CommodityCodes  []string `json:"commodity_codes"`
	TradeAgreements []string `json:"trade_agreements,omitempty"`

	Region    string   `json:"region,omitempty"`
	Locations []string `json:"locations,omitempty"`

	BudgetMin      *decimal.Decimal `json:"budget_min,omitempty"`
	BudgetMax      *decimal.Decimal `json:"budget_max,omitempty"`
	BudgetCurrency string           `json:"budget_currency,omitempty"`

	Attachments []AttachmentRef `json:"attachments"`

	// Eligibility signals, set only when the source states them explicitly.
	CitizenshipRequired string `json:"citizenship_required,omitempty"`
	SecurityClearance   string `json:"security_clearance,omitempty"`
	LocalVendorOnly     *bool  `json:"local_vendor_only,omitempty"`

	Status      string    `json:"status"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// ComputeContentHash digests the fields whose change constitutes an
// amendment: title, summary, closing date, amendment date, attachment URLs.
// Identical content always yields an identical hash.
func ComputeContentHash(o *NormalizedOpportunity) string {
	parts := []string{o.Title, o.Summary, "", "", ""}
	if o.ClosingAt != nil {
		parts[2] = o.ClosingAt.UTC().Format(time.RFC3339)
	}
	if o.AmendedAt != nil {
		parts[3] = o.AmendedAt.UTC().Format(time.RFC3339)
	}
	urls := make([]string, 0, len(o.Attachments))
	for _, a := range o.Attachments {
		urls = append(urls, a.URL)
	}
	parts[4] = strings.Join(urls, ",")

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
