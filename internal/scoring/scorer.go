package scoring

import (
	"context"
	"sort"
	"strings"

	"github.com/david/rfp-finder/internal/models"
)

// ExampleSource supplies the labeled good/bad example texts for a profile.
type ExampleSource interface {
	TextsForProfile(ctx context.Context, profileID string) (good []string, bad []string, err error)
}

// Enricher produces the combined summary+attachment text for one
// opportunity. An empty string means enrichment yielded nothing usable.
type Enricher interface {
	Enrich(ctx context.Context, opp *models.NormalizedOpportunity) string
}

// Options bounds the expensive part of scoring.
type Options struct {
	TopK       int // shortlist size; 0 means score everything
	EnrichTopN int // how many shortlisted items to enrich; 0 disables
}

// Scorer composes the similarity shortlister, optional enrichment, and the
// scoring backend.
type Scorer struct {
	Backend  Backend
	Examples ExampleSource
	Enricher Enricher
}

type candidate struct {
	opp *models.NormalizedOpportunity
	sim float64
}

// ScoreOpportunities ranks the given (already filter-passing) opportunities:
// similarity shortlist, truncate to TopK, enrich up to EnrichTopN of the
// shortlist (preferring items that have attachments, then higher similarity),
// score each through the backend, sort by score descending.
func (s *Scorer) ScoreOpportunities(ctx context.Context, profile *models.UserProfile, opps []*models.NormalizedOpportunity, opts Options) ([]*Result, error) {
	if len(opps) == 0 {
		return nil, nil
	}

	var good, bad []string
	if s.Examples != nil {
		var err error
		good, bad, err = s.Examples.TextsForProfile(ctx, profile.ProfileID)
		if err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(opps))
	for i, o := range opps {
		texts[i] = comparisonText(o)
	}
	sims := ComputeSimilarityScores(texts, good, bad)

	cands := make([]candidate, len(opps))
	for i := range opps {
		cands[i] = candidate{opp: opps[i], sim: sims[i]}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].sim > cands[j].sim })

	if opts.TopK > 0 && len(cands) > opts.TopK {
		cands = cands[:opts.TopK]
	}

	enrich := s.selectForEnrichment(cands, opts.EnrichTopN)

	results := make([]*Result, 0, len(cands))
	for i, c := range cands {
		sc := ScoreContext{
			SimilarityScore: c.sim,
			HasSimilarity:   true,
		}
		if enrich[i] && s.Enricher != nil {
			sc.EnrichedText = s.Enricher.Enrich(ctx, c.opp)
		}
		results = append(results, s.Backend.Score(ctx, c.opp, profile, sc))
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// selectForEnrichment picks up to n shortlist indices, preferring items that
// actually have attachments (so fetch effort isn't wasted on text-only
// notices) and then higher similarity.
func (s *Scorer) selectForEnrichment(cands []candidate, n int) map[int]bool {
	selected := make(map[int]bool)
	if n <= 0 || s.Enricher == nil {
		return selected
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		hasA := len(cands[ia].opp.Attachments) > 0
		hasB := len(cands[ib].opp.Attachments) > 0
		if hasA != hasB {
			return hasA
		}
		return cands[ia].sim > cands[ib].sim
	})

	for _, idx := range order {
		if len(selected) >= n {
			break
		}
		selected[idx] = true
	}
	return selected
}

// comparisonText is the per-opportunity text the shortlister compares
// against example texts.
func comparisonText(o *models.NormalizedOpportunity) string {
	return strings.TrimSpace(o.Title + " " + o.Summary + " " + strings.Join(o.Categories, " "))
}
