package attachments

import (
	"context"
	"log"
	"path"
	"strings"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/store"
)

// Max characters of extracted text carried per attachment.
const attachmentTextCap = 50000

// Enricher combines an opportunity's summary with text extracted from its
// attachments. Extraction results are cached in the store so each document
// is fetched and parsed once.
type Enricher struct {
	Fetcher      *Fetcher
	Store        *store.Store
	FetchMissing bool
}

func NewEnricher(fetcher *Fetcher, st *store.Store) *Enricher {
	return &Enricher{
		Fetcher:      fetcher,
		Store:        st,
		FetchMissing: true,
	}
}

// Enrich returns the combined enrichment text: the summary under a [Main]
// header, then each readable attachment under an [Attachment: label]
// header. Fetch and extraction failures are recorded in the cache and
// skipped; they never abort enrichment.
func (e *Enricher) Enrich(ctx context.Context, opp *models.NormalizedOpportunity) string {
	var parts []string
	if opp.Summary != "" {
		parts = append(parts, "[Main]\n"+opp.Summary)
	}

	for _, att := range opp.Attachments {
		if att.URL == "" {
			continue
		}
		text := e.attachmentText(ctx, att)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if len(text) > attachmentTextCap {
			text = text[:attachmentTextCap]
		}
		parts = append(parts, "[Attachment: "+attachmentLabel(att)+"]\n"+text)
	}

	return strings.Join(parts, "\n\n---\n\n")
}

func (e *Enricher) attachmentText(ctx context.Context, att models.AttachmentRef) string {
	cached, err := e.Store.GetCachedAttachment(ctx, att.URL)
	if err != nil {
		log.Printf("Attachment cache lookup failed for %s: %v", att.URL, err)
		return ""
	}
	if cached != nil && cached.ExtractionStatus == store.ExtractionSuccess && cached.ExtractedText != "" {
		return cached.ExtractedText
	}
	if !e.FetchMissing {
		return ""
	}

	localPath, err := e.Fetcher.Fetch(ctx, att.URL)
	if err != nil {
		msg := err.Error()
		if cacheErr := e.Store.UpsertAttachment(ctx, &store.CachedAttachment{
			URL:              att.URL,
			ExtractionStatus: store.ExtractionFailed,
			ErrorMessage:     msg,
		}); cacheErr != nil {
			log.Printf("Failed to cache attachment failure for %s: %v", att.URL, cacheErr)
		}
		return ""
	}

	text, pageCount, extractErr := ExtractText(localPath, att.MimeType)
	entry := &store.CachedAttachment{
		URL:       att.URL,
		LocalPath: localPath,
	}
	if extractErr != nil {
		entry.ExtractionStatus = store.ExtractionFailed
		entry.ErrorMessage = extractErr.Error()
	} else {
		length := len(text)
		entry.ExtractionStatus = store.ExtractionSuccess
		entry.ExtractedText = text
		entry.TextLength = &length
		entry.PageCount = &pageCount
	}
	if err := e.Store.UpsertAttachment(ctx, entry); err != nil {
		log.Printf("Failed to cache attachment for %s: %v", att.URL, err)
	}
	if extractErr != nil {
		return ""
	}
	return text
}

func attachmentLabel(att models.AttachmentRef) string {
	if att.Label != "" {
		return att.Label
	}
	if name := path.Base(att.URL); name != "" && name != "." && name != "/" {
		return name
	}
	return "attachment"
}
