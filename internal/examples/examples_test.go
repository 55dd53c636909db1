package examples

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/store"
)

func TestParsePage(t *testing.T) {
	html := `<html><head><title>RFP 2026-14 Cloud Hosting</title>
<script>var x = "ignore me";</script></head>
<body><h1>Cloud Hosting Services</h1>
<p>The City invites proposals   for managed cloud hosting.</p>
<style>.c { color: red }</style></body></html>`

	page, err := parsePage("https://example.com/rfp", []byte(html))
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if page.Title != "RFP 2026-14 Cloud Hosting" {
		t.Errorf("title = %q", page.Title)
	}
	if strings.Contains(page.Text, "ignore me") || strings.Contains(page.Text, "color: red") {
		t.Errorf("script/style leaked into text: %q", page.Text)
	}
	if !strings.Contains(page.Text, "The City invites proposals for managed cloud hosting.") {
		t.Errorf("text = %q", page.Text)
	}
}

func TestParsePageTitleFallback(t *testing.T) {
	page, err := parsePage("https://example.com/x", []byte(`<html><body><h1>Heading Only</h1></body></html>`))
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if page.Title != "Heading Only" {
		t.Errorf("title = %q", page.Title)
	}
}

func TestParsePageCapsText(t *testing.T) {
	big := "<html><body>" + strings.Repeat("word ", pageTextCap) + "</body></html>"
	page, err := parsePage("https://example.com/big", []byte(big))
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if len(page.Text) > pageTextCap {
		t.Errorf("text length = %d, want <= %d", len(page.Text), pageTextCap)
	}
}

func newSyncStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewStore(db)
}

func TestSyncIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Notice</title></head><body>Managed services RFP</body></html>`))
	}))
	defer srv.Close()

	st := newSyncStore(t)
	syncer := NewSyncer(st)
	syncer.Fetcher.DomainDelay = 0

	profile := &models.UserProfile{
		ProfileID:       "p1",
		GoodExampleURLs: []string{srv.URL + "/good"},
		BadExampleURLs:  []string{srv.URL + "/bad"},
	}

	first, err := syncer.Sync(context.Background(), profile)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if first.Added != 2 || first.Skipped != 0 {
		t.Errorf("first sync = %+v, want 2 added", first)
	}

	second, err := syncer.Sync(context.Background(), profile)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if second.Added != 0 || second.Skipped != 2 {
		t.Errorf("second sync = %+v, want 2 skipped", second)
	}

	good, bad, err := st.TextsForProfile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("TextsForProfile: %v", err)
	}
	if len(good) != 1 || len(bad) != 1 {
		t.Errorf("texts = (%d good, %d bad)", len(good), len(bad))
	}
}

func TestSyncCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	st := newSyncStore(t)
	syncer := NewSyncer(st)
	syncer.Fetcher.DomainDelay = 0
	syncer.Fetcher.MaxRetries = 0

	profile := &models.UserProfile{
		ProfileID:       "p1",
		GoodExampleURLs: []string{srv.URL + "/gone"},
	}

	result, err := syncer.Sync(context.Background(), profile)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Failed != 1 || result.Added != 0 {
		t.Errorf("result = %+v, want 1 failed", result)
	}
}
