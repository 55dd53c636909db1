package main

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/models"
)

var (
	filterProfile string
	filterStatus  string
	filterExplain bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Apply the hard rules to stored opportunities",
	RunE:  runFilter,
}

func init() {
	filterCmd.Flags().StringVar(&filterProfile, "profile", "", "path to the profile YAML")
	filterCmd.Flags().StringVar(&filterStatus, "status", models.StatusOpen, "opportunity status to load (empty for all)")
	filterCmd.Flags().BoolVar(&filterExplain, "explain", false, "show per-rule explanations for every opportunity")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(filterProfile)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	p := newPipeline(st)
	passed, results, err := p.RunFilterOnly(context.Background(), profile, filterStatus)
	if err != nil {
		return err
	}

	if jsonOutput {
		if filterExplain {
			printJSON(results)
		} else {
			printJSON(passed)
		}
		return nil
	}

	if filterExplain {
		for _, r := range results {
			verdict := "PASS"
			if !r.Passed {
				verdict = "EXCLUDED (" + r.ExcludedByRule + ")"
			}
			cmd.Printf("%s  %s\n", verdict, r.Opportunity.Title)
			for _, ex := range r.Explanations {
				cmd.Printf("    %s\n", ex)
			}
		}
		cmd.Printf("\n%d of %d passed\n", len(passed), len(results))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Region", "Closes", "Source"})
	for _, opp := range passed {
		t.AppendRow(table.Row{opp.ID, truncate(opp.Title, 60), opp.Region, formatDate(opp.ClosingAt), opp.Source})
	}
	t.Render()
	cmd.Printf("%d of %d passed\n", len(passed), len(results))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
