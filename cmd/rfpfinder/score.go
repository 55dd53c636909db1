package main

import (
	"context"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/pipeline"
	"github.com/david/rfp-finder/internal/scoring"
)

var (
	scoreProfile    string
	scoreStatus     string
	scoreTopK       int
	scoreEnrichTopN int
	scoreCacheDir   string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Filter, shortlist, and rank stored opportunities",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "", "path to the profile YAML")
	scoreCmd.Flags().StringVar(&scoreStatus, "status", models.StatusOpen, "opportunity status to load (empty for all)")
	scoreCmd.Flags().IntVar(&scoreTopK, "top-k", 20, "shortlist size (0 scores everything)")
	scoreCmd.Flags().IntVar(&scoreEnrichTopN, "enrich-top-n", 0, "enrich this many shortlisted items with attachment text")
	scoreCmd.Flags().StringVar(&scoreCacheDir, "cache-dir", "attachments_cache", "attachment download directory")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(scoreProfile)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	p := newPipeline(st)
	scored, results, err := p.Run(context.Background(), profile, pipeline.Options{
		Status:     scoreStatus,
		TopK:       scoreTopK,
		EnrichTopN: scoreEnrichTopN,
		CacheDir:   scoreCacheDir,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(scored)
		return nil
	}

	renderScoreTable(scored)
	cmd.Printf("%d scored (of %d stored)\n", len(scored), len(results))
	return nil
}

func renderScoreTable(scored []*scoring.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Score", "Conf", "Title", "Closes", "Reasons"})
	for _, r := range scored {
		t.AppendRow(table.Row{
			r.Score,
			r.Confidence,
			truncate(r.Opportunity.Title, 50),
			formatDate(r.Opportunity.ClosingAt),
			truncate(strings.Join(r.MatchReasons, "; "), 60),
		})
	}
	t.Render()
}
