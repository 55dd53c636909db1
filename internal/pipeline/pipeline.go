// Package pipeline composes the store, filter engine, and scorer into the
// ingest and ranking flows the CLI and API expose.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/david/rfp-finder/internal/attachments"
	"github.com/david/rfp-finder/internal/connectors"
	"github.com/david/rfp-finder/internal/filter"
	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/scoring"
	"github.com/david/rfp-finder/internal/store"
)

// Options bounds one pipeline run.
type Options struct {
	Status     string // opportunity status to load; empty means all
	TopK       int
	EnrichTopN int
	CacheDir   string // attachment cache dir; required when EnrichTopN > 0
}

// Pipeline owns the shared dependencies of the filter/score flows.
type Pipeline struct {
	Store   *store.Store
	Backend scoring.Backend
}

func New(st *store.Store, backend scoring.Backend) *Pipeline {
	return &Pipeline{Store: st, Backend: backend}
}

func (p *Pipeline) loadOpportunities(ctx context.Context, status string) ([]*models.NormalizedOpportunity, error) {
	if status != "" {
		return p.Store.GetByStatus(ctx, status)
	}
	return p.Store.GetAll(ctx)
}

// RunFilterOnly loads stored opportunities and applies the hard rules.
// Returns the passing opportunities plus the complete per-opportunity
// results, including excluded ones.
func (p *Pipeline) RunFilterOnly(ctx context.Context, profile *models.UserProfile, status string) ([]*models.NormalizedOpportunity, []filter.FilterResult, error) {
	engine, err := filter.NewEngine(profile)
	if err != nil {
		return nil, nil, err
	}

	opps, err := p.loadOpportunities(ctx, status)
	if err != nil {
		return nil, nil, err
	}
	if len(opps) == 0 {
		return nil, nil, nil
	}

	results := engine.FilterMany(opps)
	var passed []*models.NormalizedOpportunity
	for _, r := range results {
		if r.Passed {
			passed = append(passed, r.Opportunity)
		}
	}
	return passed, results, nil
}

// Run executes the full flow: load → filter → shortlist → enrich → score.
// Returns the scored results sorted by score descending plus every filter
// result.
func (p *Pipeline) Run(ctx context.Context, profile *models.UserProfile, opts Options) ([]*scoring.Result, []filter.FilterResult, error) {
	passed, results, err := p.RunFilterOnly(ctx, profile, opts.Status)
	if err != nil {
		return nil, nil, err
	}
	if len(passed) == 0 {
		return nil, results, nil
	}

	scorer := &scoring.Scorer{
		Backend:  p.Backend,
		Examples: p.Store,
	}
	if opts.EnrichTopN > 0 {
		if opts.CacheDir == "" {
			return nil, nil, fmt.Errorf("enrichment requested without a cache directory")
		}
		scorer.Enricher = attachments.NewEnricher(attachments.NewFetcher(opts.CacheDir), p.Store)
	}

	scored, err := scorer.ScoreOpportunities(ctx, profile, passed, scoring.Options{
		TopK:       opts.TopK,
		EnrichTopN: opts.EnrichTopN,
	})
	if err != nil {
		return nil, nil, err
	}
	return scored, results, nil
}

// IngestStats summarizes one ingest run.
type IngestStats struct {
	RunID   string
	Source  string
	Fetched int
	New     int
	Amended int
}

// Ingest fetches from one connector and upserts everything into the store,
// recording the run. A fetch error fails the run record before returning.
func (p *Pipeline) Ingest(ctx context.Context, conn connectors.Connector, incremental bool, since time.Time) (*IngestStats, error) {
	run, err := p.Store.StartRun(ctx, conn.Source())
	if err != nil {
		return nil, err
	}

	var opps []*models.NormalizedOpportunity
	if incremental {
		opps, err = conn.FetchIncremental(ctx, since)
	} else {
		opps, err = conn.FetchAll(ctx)
	}
	if err != nil {
		if finishErr := p.Store.FinishRun(ctx, run.ID, store.RunFailed, 0, 0, 0); finishErr != nil {
			log.Printf("Failed to record failed run %s: %v", run.ID, finishErr)
		}
		return nil, fmt.Errorf("fetch from %s failed: %w", conn.Source(), err)
	}

	stats := &IngestStats{RunID: run.ID, Source: conn.Source(), Fetched: len(opps)}
	for _, opp := range opps {
		wasNew, wasAmended, err := p.Store.Upsert(ctx, opp)
		if err != nil {
			if finishErr := p.Store.FinishRun(ctx, run.ID, store.RunFailed, stats.Fetched, stats.New, stats.Amended); finishErr != nil {
				log.Printf("Failed to record failed run %s: %v", run.ID, finishErr)
			}
			return nil, err
		}
		if wasNew {
			stats.New++
		}
		if wasAmended {
			stats.Amended++
		}
	}

	if err := p.Store.FinishRun(ctx, run.ID, store.RunCompleted, stats.Fetched, stats.New, stats.Amended); err != nil {
		return nil, err
	}
	return stats, nil
}
