package scoring

import (
	"context"
	"os"

	"github.com/david/rfp-finder/internal/ai"
	"github.com/david/rfp-finder/internal/models"
)

// Confidence labels on a score, reflecting how much textual evidence
// supported it.
const (
	ConfidenceHigh             = "high"
	ConfidenceMedium           = "medium"
	ConfidenceLow              = "low"
	ConfidenceInsufficientText = "insufficient_text"
)

// Result is one scored opportunity.
type Result struct {
	Opportunity       *models.NormalizedOpportunity `json:"opportunity"`
	Score             int                           `json:"score"`
	MatchReasons      []string                      `json:"match_reasons"`
	RisksDealbreakers []string                      `json:"risks_dealbreakers"`
	EvidenceSnippets  []string                      `json:"evidence_snippets"`
	Confidence        string                        `json:"confidence"`
}

// ScoreContext carries the optional per-item inputs a backend may use.
type ScoreContext struct {
	// EnrichedText replaces the bare summary when attachment extraction
	// succeeded; sections carry "[Attachment: <label>]" markers.
	EnrichedText string
	// SimilarityScore is the shortlister's 0-1 score, as a hint.
	SimilarityScore float64
	HasSimilarity   bool
}

// Backend scores a single opportunity against a profile. Implementations
// must not abort the pipeline: recoverable failures fall back to the
// heuristic stub internally.
type Backend interface {
	Score(ctx context.Context, opp *models.NormalizedOpportunity, profile *models.UserProfile, sc ScoreContext) *Result
}

// BackendFromEnv selects the configured backend. The stub is the default and
// is always the structural fallback for error paths inside other backends.
//
//	RFP_FINDER_LLM_PROVIDER=ollama  -> local Ollama model
//	unset / anything else           -> heuristic stub
func BackendFromEnv() Backend {
	switch os.Getenv("RFP_FINDER_LLM_PROVIDER") {
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		model := os.Getenv("RFP_FINDER_LLM_MODEL")
		return NewOllamaBackend(ai.NewOllamaClient(host, model))
	}
	return NewStubBackend()
}
