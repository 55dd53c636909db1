// rfpfinder finds, filters, and ranks Canadian public procurement notices.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/connectors"
	"github.com/david/rfp-finder/internal/connectors/bidsandtenders"
	"github.com/david/rfp-finder/internal/connectors/canadabuys"
	"github.com/david/rfp-finder/internal/models"
	"github.com/david/rfp-finder/internal/pipeline"
	"github.com/david/rfp-finder/internal/scoring"
	"github.com/david/rfp-finder/internal/store"
)

var (
	dbPath     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "rfpfinder",
	Short: "Find and rank Canadian RFP opportunities",
	Long: `rfpfinder ingests procurement notices from CanadaBuys and
bids&tenders portals, filters them against a profile of hard rules,
and ranks the survivors by fit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", store.DefaultPath, "path to the SQLite database")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB() (*sql.DB, *store.Store, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, store.NewStore(db), nil
}

func newPipeline(st *store.Store) *pipeline.Pipeline {
	return pipeline.New(st, scoring.BackendFromEnv())
}

func newRegistry() *connectors.Registry {
	reg := connectors.NewRegistry()
	reg.Register(canadabuys.SourceID, func() connectors.Connector { return canadabuys.New() })
	reg.Register(bidsandtenders.SourceID, func() connectors.Connector { return bidsandtenders.New() })
	return reg
}

func loadProfile(path string) (*models.UserProfile, error) {
	if path == "" {
		return nil, fmt.Errorf("--profile is required")
	}
	profile, err := models.LoadProfile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("JSON encode failed: %v", err)
	}
}
