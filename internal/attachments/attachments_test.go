package attachments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/store"
)

func TestCacheFilename(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantExt string
	}{
		{"pdf keeps extension", "https://example.com/docs/rfp.pdf", ".pdf"},
		{"uppercase pdf", "https://example.com/docs/RFP.PDF", ".pdf"},
		{"other formats get bin", "https://example.com/docs/rfp.docx", ".bin"},
		{"no extension", "https://example.com/download?id=7", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CacheFilename(tt.url)
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("CacheFilename(%q) = %q, want suffix %q", tt.url, got, tt.wantExt)
			}
			if len(got) != 16+len(tt.wantExt) {
				t.Errorf("CacheFilename(%q) = %q, want 16-char hash prefix", tt.url, got)
			}
		})
	}

	if CacheFilename("https://a.example/x.pdf") == CacheFilename("https://b.example/x.pdf") {
		t.Errorf("different URLs produced the same cache filename")
	}
}

func TestFetchCachesAndSkips(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("file-body"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	url := srv.URL + "/doc.pdf"

	path1, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	body, err := os.ReadFile(path1)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(body) != "file-body" {
		t.Errorf("cached body = %q", body)
	}

	path2, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if path1 != path2 {
		t.Errorf("cache paths differ: %q vs %q", path1, path2)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1", requests)
	}
}

func TestFetchReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.pdf"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text, no magic"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, err := ExtractText(path, "")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("err = %v, want unsupported format", err)
	}
}

func TestExtractTextSurvivesMalformedPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 not actually a pdf"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, err := ExtractText(path, "application/pdf")
	if err == nil {
		t.Errorf("expected error for malformed PDF")
	}
}

func newEnricherStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewStore(db)
}

func TestEnrichSummaryOnly(t *testing.T) {
	e := NewEnricher(NewFetcher(t.TempDir()), newEnricherStore(t))
	opp := &models.NormalizedOpportunity{Summary: "Replace core switches"}

	got := e.Enrich(context.Background(), opp)
	if got != "[Main]\nReplace core switches" {
		t.Errorf("Enrich = %q", got)
	}
}

func TestEnrichUsesCachedText(t *testing.T) {
	st := newEnricherStore(t)
	ctx := context.Background()
	url := "https://example.com/spec.pdf"

	length := 21
	if err := st.UpsertAttachment(ctx, &store.CachedAttachment{
		URL:              url,
		LocalPath:        "/tmp/cached.pdf",
		ExtractionStatus: store.ExtractionSuccess,
		ExtractedText:    "Scope: network refresh",
		TextLength:       &length,
	}); err != nil {
		t.Fatalf("UpsertAttachment: %v", err)
	}

	e := NewEnricher(NewFetcher(t.TempDir()), st)
	e.FetchMissing = false

	opp := &models.NormalizedOpportunity{
		Summary:     "Short notice",
		Attachments: []models.AttachmentRef{{URL: url, Label: "Technical spec"}},
	}
	got := e.Enrich(ctx, opp)

	if !strings.Contains(got, "[Attachment: Technical spec]\nScope: network refresh") {
		t.Errorf("Enrich = %q", got)
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Errorf("sections not separated: %q", got)
	}
}

func TestEnrichRecordsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	st := newEnricherStore(t)
	ctx := context.Background()
	url := srv.URL + "/locked.pdf"

	e := NewEnricher(NewFetcher(t.TempDir()), st)
	opp := &models.NormalizedOpportunity{
		Summary:     "Notice",
		Attachments: []models.AttachmentRef{{URL: url}},
	}

	got := e.Enrich(ctx, opp)
	if strings.Contains(got, "[Attachment:") {
		t.Errorf("failed attachment still produced text: %q", got)
	}

	cached, err := st.GetCachedAttachment(ctx, url)
	if err != nil {
		t.Fatalf("GetCachedAttachment: %v", err)
	}
	if cached == nil || cached.ExtractionStatus != store.ExtractionFailed {
		t.Errorf("failure not cached: %+v", cached)
	}
}

func TestAttachmentLabelFallbacks(t *testing.T) {
	tests := []struct {
		name string
		att  models.AttachmentRef
		want string
	}{
		{"explicit label wins", models.AttachmentRef{URL: "https://x/y.pdf", Label: "Annex A"}, "Annex A"},
		{"url basename", models.AttachmentRef{URL: "https://x/docs/solicitation.pdf"}, "solicitation.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attachmentLabel(tt.att); got != tt.want {
				t.Errorf("attachmentLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
