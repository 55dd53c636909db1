package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/connectors/bidsandtenders"
)

var (
	ingestSource      string
	ingestIncremental bool
	ingestSince       string
	ingestTenants     []string
	ingestProvince    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch opportunities and store them",
	Long: `Fetches notices from one source (or all registered sources) and
upserts them into the local store, recording an ingest run per source.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "all", "source to ingest (canadabuys, bidsandtenders, or all)")
	ingestCmd.Flags().BoolVar(&ingestIncremental, "incremental", false, "fetch only recently published notices")
	ingestCmd.Flags().StringVar(&ingestSince, "since", "", "publication cutoff for --incremental (YYYY-MM-DD or RFC3339)")
	ingestCmd.Flags().StringSliceVar(&ingestTenants, "tenants", nil, "bids&tenders portals to query (tenant keys, or 'all')")
	ingestCmd.Flags().StringVar(&ingestProvince, "province", "", "query every known bids&tenders portal in this province (e.g. ON)")
	rootCmd.AddCommand(ingestCmd)
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q", raw)
}

func runIngest(cmd *cobra.Command, args []string) error {
	since, err := parseSince(ingestSince)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reg := newRegistry()
	sources := reg.AvailableSources()
	if ingestSource != "all" {
		sources = []string{ingestSource}
	}

	p := newPipeline(st)
	ctx := context.Background()
	var allStats []any
	for _, source := range sources {
		conn, err := reg.Get(source)
		if err != nil {
			return err
		}
		if source == bidsandtenders.SourceID && (len(ingestTenants) > 0 || ingestProvince != "") {
			conn = bidsandtenders.NewForTenants(ingestTenants, ingestProvince)
		}
		log.Printf("Ingesting %s...", source)
		stats, err := p.Ingest(ctx, conn, ingestIncremental, since)
		if err != nil {
			log.Printf("Ingest of %s failed: %v", source, err)
			continue
		}
		allStats = append(allStats, stats)
		if !jsonOutput {
			cmd.Printf("%s: fetched=%d new=%d amended=%d (run %s)\n",
				stats.Source, stats.Fetched, stats.New, stats.Amended, stats.RunID)
		}
	}

	if jsonOutput {
		printJSON(allStats)
	}
	if len(allStats) == 0 {
		return fmt.Errorf("no source ingested successfully (tried %s)", strings.Join(sources, ", "))
	}
	return nil
}
