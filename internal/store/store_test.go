package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/david/rfp-finder/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func sampleOpp(sourceID, title string) *models.NormalizedOpportunity {
	closing := time.Now().UTC().Add(14 * 24 * time.Hour)
	opp := &models.NormalizedOpportunity{
		ID:       "canadabuys:" + sourceID,
		Source:   "canadabuys",
		SourceID: sourceID,
		Title:    title,
		Summary:  "Network refresh for three municipal facilities",
		Region:   "ON",
		Status:   models.StatusOpen,
		ClosingAt: &closing,
	}
	opp.ContentHash = models.ComputeContentHash(opp)
	return opp
}

func TestUpsertNewAndUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	opp := sampleOpp("CB-001", "Network refresh")

	wasNew, wasAmended, err := s.Upsert(ctx, opp)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !wasNew || wasAmended {
		t.Errorf("first upsert = (new=%v, amended=%v), want (true, false)", wasNew, wasAmended)
	}

	wasNew, wasAmended, err = s.Upsert(ctx, opp)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if wasNew || wasAmended {
		t.Errorf("unchanged upsert = (new=%v, amended=%v), want (false, false)", wasNew, wasAmended)
	}
}

func TestUpsertDetectsAmendment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	opp := sampleOpp("CB-002", "Data centre services")
	if _, _, err := s.Upsert(ctx, opp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	opp.Title = "Data centre services (amended)"
	opp.ContentHash = models.ComputeContentHash(opp)
	_, wasAmended, err := s.Upsert(ctx, opp)
	if err != nil {
		t.Fatalf("amended Upsert: %v", err)
	}
	if !wasAmended {
		t.Errorf("hash change not reported as amendment")
	}

	got, err := s.Get(ctx, opp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != "Data centre services (amended)" {
		t.Errorf("stored title not updated: %+v", got)
	}
}

func TestUpsertResolvesClosedStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	opp := sampleOpp("CB-003", "Expired notice")
	past := time.Now().UTC().Add(-48 * time.Hour)
	opp.ClosingAt = &past
	opp.ContentHash = models.ComputeContentHash(opp)

	if _, _, err := s.Upsert(ctx, opp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get(ctx, opp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusClosed {
		t.Errorf("status = %q, want %q", got.Status, models.StatusClosed)
	}

	closed, err := s.GetByStatus(ctx, models.StatusClosed)
	if err != nil {
		t.Fatalf("GetByStatus: %v", err)
	}
	if len(closed) != 1 {
		t.Errorf("closed count = %d, want 1", len(closed))
	}
}

func TestTerminalStatusSticks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	opp := sampleOpp("CB-004", "Cancelled notice")
	opp.Status = models.StatusCancelled
	if _, _, err := s.Upsert(ctx, opp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get(ctx, opp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled even with future closing", got.Status)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), "canadabuys:nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestGetModifiedSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, _, err := s.Upsert(ctx, sampleOpp("CB-005", "Recent")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	recent, err := s.GetModifiedSince(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetModifiedSince: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("recent count = %d, want 1", len(recent))
	}

	none, err := s.GetModifiedSince(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetModifiedSince future: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("future count = %d, want 0", len(none))
	}
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.StartRun(ctx, "canadabuys")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" || run.Status != RunRunning {
		t.Fatalf("unexpected run record: %+v", run)
	}

	if err := s.FinishRun(ctx, run.ID, RunCompleted, 120, 15, 3); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs count = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.Status != RunCompleted || got.ItemsFetched != 120 || got.ItemsNew != 15 || got.ItemsAmended != 3 {
		t.Errorf("finished run = %+v", got)
	}
	if got.FinishedAt == nil {
		t.Errorf("finished run has no finish time")
	}
}

func TestExamplesAndTexts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []*Example{
		{ProfileID: "p1", URL: "https://example.com/g1", Label: LabelGood, Title: "Cloud migration", Summary: "IT services"},
		{ProfileID: "p1", URL: "https://example.com/b1", Label: LabelBad, Title: "Road paving", RawText: "asphalt tender"},
		{ProfileID: "p1", URL: "https://example.com/empty", Label: LabelGood},
		{ProfileID: "p2", URL: "https://example.com/other", Label: LabelGood, Title: "Other profile"},
	}
	for _, ex := range cases {
		if err := s.AddExample(ctx, ex); err != nil {
			t.Fatalf("AddExample(%s): %v", ex.URL, err)
		}
	}

	if err := s.AddExample(ctx, &Example{ProfileID: "p1", URL: "u", Label: "maybe"}); err == nil {
		t.Errorf("invalid label accepted")
	}

	list, err := s.ListExamples(ctx, "p1")
	if err != nil {
		t.Fatalf("ListExamples: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("p1 examples = %d, want 3", len(list))
	}

	good, bad, err := s.TextsForProfile(ctx, "p1")
	if err != nil {
		t.Fatalf("TextsForProfile: %v", err)
	}
	// The text-free example is dropped.
	if len(good) != 1 || len(bad) != 1 {
		t.Fatalf("texts = (%d good, %d bad), want (1, 1)", len(good), len(bad))
	}
	if good[0] != "Cloud migration IT services" {
		t.Errorf("good text = %q", good[0])
	}
	if bad[0] != "Road paving asphalt tender" {
		t.Errorf("bad text = %q", bad[0])
	}
}

func TestAttachmentCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/docs/spec.pdf"

	missing, err := s.GetCachedAttachment(ctx, url)
	if err != nil {
		t.Fatalf("GetCachedAttachment: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected cache miss, got %+v", missing)
	}

	if err := s.UpsertAttachment(ctx, &CachedAttachment{URL: url, LocalPath: "/tmp/abc.pdf"}); err != nil {
		t.Fatalf("UpsertAttachment: %v", err)
	}

	got, err := s.GetCachedAttachment(ctx, url)
	if err != nil {
		t.Fatalf("GetCachedAttachment: %v", err)
	}
	if got.ExtractionStatus != ExtractionPending {
		t.Errorf("status = %q, want pending", got.ExtractionStatus)
	}

	text := "Scope of work for network refresh"
	length := len(text)
	pages := 4
	if err := s.UpdateExtraction(ctx, url, ExtractionSuccess, &text, &length, &pages, nil); err != nil {
		t.Fatalf("UpdateExtraction: %v", err)
	}

	got, err = s.GetCachedAttachment(ctx, url)
	if err != nil {
		t.Fatalf("GetCachedAttachment after update: %v", err)
	}
	if got.ExtractionStatus != ExtractionSuccess {
		t.Errorf("status = %q, want success", got.ExtractionStatus)
	}
	if got.ExtractedText != text {
		t.Errorf("text = %q", got.ExtractedText)
	}
	if got.TextLength == nil || *got.TextLength != length {
		t.Errorf("text length = %v, want %d", got.TextLength, length)
	}
	if got.PageCount == nil || *got.PageCount != pages {
		t.Errorf("page count = %v, want %d", got.PageCount, pages)
	}
}
