package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/david/rfp-finder/internal/ai"
	"github.com/david/rfp-finder/internal/models"
)

// Content cap for the prompt; larger when enrichment has attachment text.
const promptContentLimit = 8000

// OllamaBackend asks a local model for a relevance verdict. Any failure
// (network, malformed response, missing key) falls back to the heuristic
// stub: scoring must never abort the pipeline.
type OllamaBackend struct {
	client   *ai.OllamaClient
	fallback *StubBackend
}

func NewOllamaBackend(client *ai.OllamaClient) *OllamaBackend {
	return &OllamaBackend{
		client:   client,
		fallback: NewStubBackend(),
	}
}

func (b *OllamaBackend) Score(ctx context.Context, opp *models.NormalizedOpportunity, profile *models.UserProfile, sc ScoreContext) *Result {
	prompt := buildPrompt(opp, profile, sc)

	resp, err := b.client.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		log.Printf("Model scoring failed for %s, using heuristic: %v", opp.ID, err)
		return b.fallback.Score(ctx, opp, profile, sc)
	}

	result, err := parseModelResponse(resp, opp)
	if err != nil {
		log.Printf("Could not parse model response for %s: %v", opp.ID, err)
		stub := b.fallback.Score(ctx, opp, profile, sc)
		stub.MatchReasons = append([]string{"Could not parse model response"}, stub.MatchReasons...)
		stub.Confidence = ConfidenceLow
		return stub
	}
	return result
}

func buildPrompt(opp *models.NormalizedOpportunity, profile *models.UserProfile, sc ScoreContext) string {
	kw := "N/A"
	if len(profile.Keywords) > 0 {
		kw = strings.Join(capList(profile.Keywords, 15), ", ")
	}
	cats := "N/A"
	if len(profile.PreferredCategories) > 0 {
		cats = strings.Join(capList(profile.PreferredCategories, 5), ", ")
	}
	exc := "None"
	if len(profile.ExcludeKeywords) > 0 {
		exc = strings.Join(capList(profile.ExcludeKeywords, 5), ", ")
	}

	content := sc.EnrichedText
	if content == "" {
		content = opp.Summary
	}
	if len(content) > promptContentLimit {
		content = content[:promptContentLimit]
	}

	return fmt.Sprintf(`Score this procurement opportunity 0-100 for relevance. Reply with ONLY valid JSON:
{"score": <0-100>, "match_reasons": ["..."], "risks": ["..."], "evidence": ["..."], "confidence": "high|medium|low"}

Profile: keywords=[%s], categories=[%s], exclude=[%s]
Opportunity: title=%q
Content: %s

JSON:`, kw, cats, exc, opp.Title, content)
}

type modelResponse struct {
	Score        int      `json:"score"`
	MatchReasons []string `json:"match_reasons"`
	Risks        []string `json:"risks"`
	Evidence     []string `json:"evidence"`
	Confidence   string   `json:"confidence"`
}

func parseModelResponse(resp string, opp *models.NormalizedOpportunity) (*Result, error) {
	raw, ok := ai.CleanModelResponse(resp)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var mr modelResponse
	if err := json.Unmarshal([]byte(raw), &mr); err != nil {
		return nil, fmt.Errorf("failed to decode model JSON: %w", err)
	}

	score := mr.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	conf := mr.Confidence
	switch conf {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		conf = ConfidenceMedium
	}

	evidence := mr.Evidence
	if len(evidence) > 3 {
		evidence = evidence[:3]
	}
	for i, e := range evidence {
		evidence[i] = truncate(e, 150)
	}

	return &Result{
		Opportunity:       opp,
		Score:             score,
		MatchReasons:      mr.MatchReasons,
		RisksDealbreakers: mr.Risks,
		EvidenceSnippets:  evidence,
		Confidence:        conf,
	}, nil
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}
