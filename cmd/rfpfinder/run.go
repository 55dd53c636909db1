package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/pipeline"
)

var (
	runProfile    string
	runTopK       int
	runEnrichTopN int
	runCacheDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest every source, then filter and rank",
	Long: `Runs the full flow in one invocation: ingest all registered sources,
apply the hard rules, and rank the survivors. Equivalent to "ingest" followed
by "score".`,
	RunE: runFull,
}

func init() {
	runCmd.Flags().StringVar(&runProfile, "profile", "", "path to the profile YAML")
	runCmd.Flags().IntVar(&runTopK, "top-k", 20, "shortlist size (0 scores everything)")
	runCmd.Flags().IntVar(&runEnrichTopN, "enrich-top-n", 0, "enrich this many shortlisted items with attachment text")
	runCmd.Flags().StringVar(&runCacheDir, "cache-dir", "attachments_cache", "attachment download directory")
	rootCmd.AddCommand(runCmd)
}

func runFull(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(runProfile)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reg := newRegistry()
	p := newPipeline(st)
	ctx := context.Background()

	for _, source := range reg.AvailableSources() {
		conn, err := reg.Get(source)
		if err != nil {
			return err
		}
		log.Printf("Ingesting %s...", source)
		stats, err := p.Ingest(ctx, conn, false, time.Time{})
		if err != nil {
			log.Printf("Ingest of %s failed, continuing: %v", source, err)
			continue
		}
		cmd.Printf("%s: fetched=%d new=%d amended=%d\n", stats.Source, stats.Fetched, stats.New, stats.Amended)
	}

	scored, results, err := p.Run(ctx, profile, pipeline.Options{
		Status:     models.StatusOpen,
		TopK:       runTopK,
		EnrichTopN: runEnrichTopN,
		CacheDir:   runCacheDir,
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
