package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/david/rfp-finder/internal/matching"
	"github.com/david/rfp-finder/internal/models"
)

// Keyword lead window: title plus the first N characters of content.
const keywordLeadChars = 300

const attachmentMarker = "[Attachment:"

// StubConfig is the tuning data of the heuristic backend. The defaults
// encode a technology-services use case; callers with a different target
// domain supply their own. Whether this belongs on the profile instead is an
// open product question, so it stays backend-level.
type StubConfig struct {
	ServicesCategory     string
	ConstructionCategory string
	// Commodity-code prefixes that are clearly out of domain (furniture,
	// cleaning supplies). Construction is handled via its category code.
	NonTechCodePrefixes []string
	NonTechPhrases      []string
}

func DefaultStubConfig() StubConfig {
	return StubConfig{
		ServicesCategory:     "SRV",
		ConstructionCategory: "CNST",
		NonTechCodePrefixes:  []string{"56", "90"},
		NonTechPhrases: []string{
			"office furniture",
			"commercial office furniture",
			"furniture and related",
			"gpu hardware",
			"hardware or equivalent",
			"hardware bundle",
			"alternate transportation",
			"transportation services",
		},
	}
}

// StubBackend is the deterministic heuristic scorer: baseline 50 with small
// bounded adjustments, dampened by confidence. Always available; every other
// backend falls back to it on failure.
type StubBackend struct {
	cfg StubConfig
}

func NewStubBackend() *StubBackend {
	return &StubBackend{cfg: DefaultStubConfig()}
}

func NewStubBackendWithConfig(cfg StubConfig) *StubBackend {
	return &StubBackend{cfg: cfg}
}

func (b *StubBackend) Score(_ context.Context, opp *models.NormalizedOpportunity, profile *models.UserProfile, sc ScoreContext) *Result {
	content := sc.EnrichedText
	if content == "" {
		content = opp.Summary
	}

	score := 50
	var reasons, risks []string

	// Similarity to good/bad examples: -15 to +15.
	if sc.HasSimilarity {
		bonus := int((sc.SimilarityScore - 0.5) * 30)
		if bonus > 15 {
			bonus = 15
		}
		if bonus < -15 {
			bonus = -15
		}
		score += bonus
		if bonus > 0 {
			reasons = append(reasons, "Similar to good-fit examples")
		}
	}

	if strings.Contains(sc.EnrichedText, attachmentMarker) {
		score += 3
		reasons = append(reasons, "Attachment content available")
	}

	cats := make(map[string]bool, len(opp.Categories))
	for _, c := range opp.Categories {
		cats[strings.ToUpper(c)] = true
	}

	nonTechLead := b.isNonTechTitleLead(opp.Title, content)

	// Services category is a positive signal unless the title/lead says
	// otherwise: category codes alone are too coarse (transportation is
	// classified as a service too).
	if cats[b.cfg.ServicesCategory] && !nonTechLead {
		score += 4
		reasons = append(reasons, fmt.Sprintf("Category: Services (%s)", b.cfg.ServicesCategory))
	}

	kwMatches := 0
	for i, kw := range profile.Keywords {
		if i >= 30 || kwMatches >= 3 {
			break
		}
		if keywordInLead(opp.Title, content, kw) {
			score += 5
			reasons = append(reasons, fmt.Sprintf("Keyword in scope: %s", kw))
			kwMatches++
		}
	}

	if cats[b.cfg.ConstructionCategory] {
		score -= 8
		risks = append(risks, fmt.Sprintf("Category: Construction (%s)", b.cfg.ConstructionCategory))
	}

	if b.isNonTechCommodity(opp) {
		score -= 10
		risks = append(risks, "Category/commodity: non-tech")
	}

	if nonTechLead {
		score -= 10
		risks = append(risks, "Title/scope: non-tech procurement")
	}

	// A score built on thin evidence gets pulled toward the baseline.
	conf := confidenceFromContent(opp, content, sc.EnrichedText)
	switch conf {
	case ConfidenceHigh:
	case ConfidenceMedium:
		score -= 3
	case ConfidenceLow:
		score -= 8
	case ConfidenceInsufficientText:
		score -= 15
	default:
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if len(reasons) == 0 {
		reasons = []string{"Heuristic match (no model configured)"}
	}

	var evidence []string
	if opp.Title != "" && opp.Title != "Untitled" {
		evidence = append(evidence, truncate(opp.Title, 100))
	}
	if content != "" {
		snippet := strings.TrimSpace(strings.ReplaceAll(truncate(content, 150), "\n", " "))
		if len(content) > 150 {
			snippet += "..."
		}
		evidence = append(evidence, snippet)
	}
	if len(evidence) > 3 {
		evidence = evidence[:3]
	}

	return &Result{
		Opportunity:       opp,
		Score:             score,
		MatchReasons:      reasons,
		RisksDealbreakers: risks,
		EvidenceSnippets:  evidence,
		Confidence:        conf,
	}
}

// confidenceFromContent ties confidence to extraction quality.
func confidenceFromContent(opp *models.NormalizedOpportunity, content, enrichedText string) string {
	if strings.Contains(enrichedText, attachmentMarker) {
		if len(content) > 500 {
			return ConfidenceMedium
		}
		return ConfidenceLow
	}
	if len(opp.Attachments) > 0 && enrichedText == "" {
		// Has documents but none were extracted.
		return ConfidenceInsufficientText
	}
	if len(content) > 200 {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// keywordInLead reports whether keyword matches the title or the first 300
// characters of content.
func keywordInLead(title, content, keyword string) bool {
	return matching.PositiveMatches(title, keyword) || matching.PositiveMatches(leadWindow(content), keyword)
}

// leadWindow returns the first keywordLeadChars characters of content,
// never splitting a multibyte rune.
func leadWindow(content string) string {
	if len(content) <= keywordLeadChars {
		return content
	}
	n := 0
	for i := range content {
		if n == keywordLeadChars {
			return content[:i]
		}
		n++
	}
	return content
}

func (b *StubBackend) isNonTechCommodity(opp *models.NormalizedOpportunity) bool {
	for _, code := range opp.CommodityCodes {
		code = strings.TrimSpace(strings.ReplaceAll(code, "*", ""))
		for _, prefix := range b.cfg.NonTechCodePrefixes {
			if strings.HasPrefix(code, prefix) {
				return true
			}
		}
	}
	return false
}

func (b *StubBackend) isNonTechTitleLead(title, content string) bool {
	text := strings.ToLower(title + " " + leadWindow(content))
	for _, phrase := range b.cfg.NonTechPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
