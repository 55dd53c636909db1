package main

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show ingest run history",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := st.ListRuns(context.Background(), runsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(runs)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Status", "Fetched", "New", "Amended", "Duration", "Started At"})
	for _, run := range runs {
		duration := "Running..."
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		t.AppendRow(table.Row{run.Source, run.Status, run.ItemsFetched, run.ItemsNew, run.ItemsAmended, duration, run.StartedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}
