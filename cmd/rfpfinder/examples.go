package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/examples"
	"github.com/david/rfp-finder/internal/store"
)

var (
	examplesProfileID  string
	exampleProfilePath string
	exampleLabel       string
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Manage good/bad example opportunities for a profile",
}

var examplesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Fetch one page and store it as a labeled example",
	Args:  cobra.ExactArgs(1),
	RunE:  runExamplesAdd,
}

var examplesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch every example URL listed on the profile",
	RunE:  runExamplesSync,
}

var examplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored examples for a profile",
	RunE:  runExamplesList,
}

func init() {
	examplesCmd.PersistentFlags().StringVar(&examplesProfileID, "profile-id", "", "profile the examples belong to")
	examplesAddCmd.Flags().StringVar(&exampleLabel, "label", store.LabelGood, "example label (good or bad)")
	examplesSyncCmd.Flags().StringVar(&exampleProfilePath, "profile", "", "path to the profile YAML")
	examplesCmd.AddCommand(examplesAddCmd)
	examplesCmd.AddCommand(examplesSyncCmd)
	examplesCmd.AddCommand(examplesListCmd)
	rootCmd.AddCommand(examplesCmd)
}

func runExamplesAdd(cmd *cobra.Command, args []string) error {
	if examplesProfileID == "" {
		return fmt.Errorf("--profile-id is required")
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	url := args[0]
	page, err := examples.NewFetcher().FetchPage(context.Background(), url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	ex := &store.Example{
		ProfileID: examplesProfileID,
		URL:       url,
		Label:     exampleLabel,
		Title:     page.Title,
		RawText:   page.Text,
	}
	if err := st.AddExample(context.Background(), ex); err != nil {
		return err
	}

	cmd.Printf("Stored %s example %d: %s\n", ex.Label, ex.ID, page.Title)
	return nil
}

func runExamplesSync(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(exampleProfilePath)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := examples.NewSyncer(st).Sync(context.Background(), profile)
	if err != nil {
		return err
	}

	cmd.Printf("added=%d skipped=%d failed=%d\n", result.Added, result.Skipped, result.Failed)
	return nil
}

func runExamplesList(cmd *cobra.Command, args []string) error {
	if examplesProfileID == "" {
		return fmt.Errorf("--profile-id is required")
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := st.ListExamples(context.Background(), examplesProfileID)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(list)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Label", "Title", "URL", "Added"})
	for _, ex := range list {
		t.AppendRow(table.Row{ex.ID, ex.Label, truncate(ex.Title, 40), truncate(ex.URL, 50), ex.CreatedAt.Format("2006-01-02")})
	}
	t.Render()
	return nil
}
