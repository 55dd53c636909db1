package examples

import (
	"context"
	"log"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/store"
)

// Syncer fills the example store from the URLs listed on a profile. URLs
// already stored for the profile are skipped, so syncing is idempotent.
type Syncer struct {
	Store   *store.Store
	Fetcher *Fetcher
}

func NewSyncer(st *store.Store) *Syncer {
	return &Syncer{Store: st, Fetcher: NewFetcher()}
}

// SyncResult reports what one sync pass did.
type SyncResult struct {
	Added   int
	Skipped int
	Failed  int
}

// Sync fetches and stores every example URL on the profile that is not in
// the store yet. Individual fetch failures are logged and counted, not
// fatal.
func (s *Syncer) Sync(ctx context.Context, profile *models.UserProfile) (*SyncResult, error) {
	existing, err := s.Store.ListExamples(ctx, profile.ProfileID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, ex := range existing {
		known[ex.URL] = true
	}

	result := &SyncResult{}
	sync := func(urls []string, label string) {
		for _, url := range urls {
			if url == "" {
				continue
			}
			if known[url] {
				result.Skipped++
				continue
			}
			page, err := s.Fetcher.FetchPage(ctx, url)
			if err != nil {
				log.Printf("Example fetch failed (%s): %v", url, err)
				result.Failed++
				continue
			}
			ex := &store.Example{
				ProfileID: profile.ProfileID,
				URL:       url,
				Label:     label,
				Title:     page.Title,
				RawText:   page.Text,
			}
			if err := s.Store.AddExample(ctx, ex); err != nil {
				log.Printf("Example store failed (%s): %v", url, err)
				result.Failed++
				continue
			}
			known[url] = true
			result.Added++
		}
	}

	sync(profile.GoodExampleURLs, store.LabelGood)
	sync(profile.BadExampleURLs, store.LabelBad)
	return result, nil
}
