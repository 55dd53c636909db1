package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/pipeline"
	"github.com/david/rfp-finder/internal/scoring"
	"github.com/david/rfp-finder/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewStore(db)
	p := pipeline.New(st, scoring.NewStubBackend())
	profile := &models.UserProfile{
		ProfileID:       "test",
		KeywordsMode:    models.KeywordsModePreferred,
		EligibleRegions: []string{"ON"},
	}
	return NewServer(p, profile)
}

func seedOpportunity(t *testing.T, s *Server, sourceID, title, region string) {
	t.Helper()
	closing := time.Now().UTC().Add(14 * 24 * time.Hour)
	opp := &models.NormalizedOpportunity{
		ID:        "canadabuys:" + sourceID,
		Source:    "canadabuys",
		SourceID:  sourceID,
		Title:     title,
		Summary:   "Request for proposal: " + title,
		Region:    region,
		Status:    models.StatusOpen,
		ClosingAt: &closing,
	}
	opp.ContentHash = models.ComputeContentHash(opp)
	if _, _, err := s.Store.Upsert(context.Background(), opp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func loginToken(t *testing.T, s *Server) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	t.Setenv("API_PASSWORD_HASH", string(hash))

	rec := doJSON(s, http.MethodPost, "/auth/login", `{"password":"pw"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("empty token")
	}
	return resp["token"]
}

func doJSON(s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	t.Setenv("API_PASSWORD_HASH", string(hash))

	rec := doJSON(s, http.MethodPost, "/auth/login", `{"password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/opportunities", "/runs", "/stats/exclusions"} {
		rec := doJSON(s, http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestListAndGetOpportunities(t *testing.T) {
	s := newTestServer(t)
	token := loginToken(t, s)
	seedOpportunity(t, s, "A", "Cloud migration services", "Ontario")
	seedOpportunity(t, s, "B", "Road paving", "Quebec")

	rec := doJSON(s, http.MethodGet, "/opportunities?status=open", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Count         int                             `json:"count"`
		Opportunities []*models.NormalizedOpportunity `json:"opportunities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("count = %d, want 2", list.Count)
	}

	rec = doJSON(s, http.MethodGet, "/opportunities/canadabuys:A", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var opp models.NormalizedOpportunity
	if err := json.Unmarshal(rec.Body.Bytes(), &opp); err != nil {
		t.Fatalf("decode opportunity: %v", err)
	}
	if opp.Title != "Cloud migration services" {
		t.Errorf("title = %q", opp.Title)
	}

	rec = doJSON(s, http.MethodGet, "/opportunities/missing", "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
}

func TestFilterEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := loginToken(t, s)
	seedOpportunity(t, s, "A", "Cloud migration services", "Ontario")
	seedOpportunity(t, s, "B", "Road paving", "Quebec")

	rec := doJSON(s, http.MethodPost, "/filter", `{"status":"open"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Total  int `json:"total"`
		Passed int `json:"passed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode filter: %v", err)
	}
	if resp.Total != 2 || resp.Passed != 1 {
		t.Errorf("total = %d passed = %d, want 2/1", resp.Total, resp.Passed)
	}
}

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := loginToken(t, s)
	seedOpportunity(t, s, "A", "Cloud migration services", "Ontario")
	seedOpportunity(t, s, "B", "Data analytics platform", "Ontario")

	rec := doJSON(s, http.MethodPost, "/score", `{"status":"open","top_k":10}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Scored  int               `json:"scored"`
		Results []*scoring.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if resp.Scored != 2 || len(resp.Results) != 2 {
		t.Errorf("scored = %d results = %d, want 2/2", resp.Scored, len(resp.Results))
	}
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Errorf("results not sorted by score")
		}
	}
}

func TestExclusionStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := loginToken(t, s)
	seedOpportunity(t, s, "A", "Cloud migration services", "Ontario")
	seedOpportunity(t, s, "B", "Road paving", "Quebec")
	seedOpportunity(t, s, "C", "Bridge repair", "Alberta")

	rec := doJSON(s, http.MethodGet, "/stats/exclusions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Total          int            `json:"total"`
		Passed         int            `json:"passed"`
		ExcludedByRule map[string]int `json:"excluded_by_rule"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.Total != 3 || resp.Passed != 1 {
		t.Errorf("stats = %+v", resp)
	}
	if resp.ExcludedByRule["region"] != 2 {
		t.Errorf("region exclusions = %d, want 2", resp.ExcludedByRule["region"])
	}
}
