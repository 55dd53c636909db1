package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
profile_id: acme
filters:
  keywords: [software, cloud]
  exclude_keywords: [construction]
  keywords_mode: preferred
  regions: [ON, QC]
  min_budget: "25000"
  max_budget: "2000000"
  max_days_to_close: 60
eligibility:
  local_vendor_only: false
examples:
  good:
    - https://example.com/good
  bad:
    - https://example.com/bad
`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.ProfileID != "acme" {
		t.Errorf("ProfileID = %q", p.ProfileID)
	}
	if len(p.Keywords) != 2 || p.Keywords[0] != "software" {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if p.KeywordsMode != KeywordsModePreferred {
		t.Errorf("KeywordsMode = %q", p.KeywordsMode)
	}
	if len(p.EligibleRegions) != 2 {
		t.Errorf("EligibleRegions = %v", p.EligibleRegions)
	}
	if p.MinBudget == nil || p.MinBudget.String() != "25000" {
		t.Errorf("MinBudget = %v", p.MinBudget)
	}
	if p.MaxDaysToClose == nil || *p.MaxDaysToClose != 60 {
		t.Errorf("MaxDaysToClose = %v", p.MaxDaysToClose)
	}
	if p.LocalVendorOnly == nil || *p.LocalVendorOnly {
		t.Errorf("LocalVendorOnly = %v", p.LocalVendorOnly)
	}
	if len(p.GoodExampleURLs) != 1 || len(p.BadExampleURLs) != 1 {
		t.Errorf("example URLs = %v / %v", p.GoodExampleURLs, p.BadExampleURLs)
	}
}

func TestLoadProfileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PROFILE_REGION", "NS")
	path := writeProfile(t, `
profile_id: acme
filters:
  regions: ["${TEST_PROFILE_REGION}"]
`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if len(p.EligibleRegions) != 1 || p.EligibleRegions[0] != "NS" {
		t.Errorf("EligibleRegions = %v", p.EligibleRegions)
	}
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing profile_id", "filters:\n  keywords: [a]\n"},
		{"bad keywords_mode", "profile_id: p\nfilters:\n  keywords_mode: sometimes\n"},
		{"min over max budget", "profile_id: p\nfilters:\n  min_budget: \"100\"\n  max_budget: \"50\"\n"},
		{"negative max_days", "profile_id: p\nfilters:\n  max_days_to_close: -1\n"},
		{"unparseable budget", "profile_id: p\nfilters:\n  min_budget: \"lots\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, tt.yaml)
			if _, err := LoadProfile(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestEffectiveKeywordsModeDefaultsToRequired(t *testing.T) {
	p := &UserProfile{ProfileID: "p"}
	if got := p.EffectiveKeywordsMode(); got != KeywordsModeRequired {
		t.Errorf("mode = %q, want %q", got, KeywordsModeRequired)
	}
}

func TestComputeContentHash(t *testing.T) {
	closing := time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC)
	base := func() *NormalizedOpportunity {
		return &NormalizedOpportunity{
			Title:     "Network refresh",
			Summary:   "Replace core switches",
			ClosingAt: &closing,
			Attachments: []AttachmentRef{
				{URL: "https://example.com/sow.pdf"},
			},
		}
	}

	a, b := base(), base()
	if ComputeContentHash(a) != ComputeContentHash(b) {
		t.Error("identical content produced different hashes")
	}

	// Fields outside the hash tuple do not affect it.
	b.Buyer = "City of Guelph"
	b.Region = "Ontario"
	if ComputeContentHash(a) != ComputeContentHash(b) {
		t.Error("non-content field changed the hash")
	}

	changed := base()
	changed.Summary = "Replace core switches and firewalls"
	if ComputeContentHash(a) == ComputeContentHash(changed) {
		t.Error("summary change did not change the hash")
	}

	later := closing.Add(48 * time.Hour)
	moved := base()
	moved.ClosingAt = &later
	if ComputeContentHash(a) == ComputeContentHash(moved) {
		t.Error("closing date change did not change the hash")
	}

	extra := base()
	extra.Attachments = append(extra.Attachments, AttachmentRef{URL: "https://example.com/addendum.pdf"})
	if ComputeContentHash(a) == ComputeContentHash(extra) {
		t.Error("attachment change did not change the hash")
	}
}
