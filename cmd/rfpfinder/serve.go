package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/david/rfp-finder/internal/api"
)

var (
	serveProfile string
	servePort    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Starts the HTTP API bound to one profile. Login requires
API_PASSWORD_HASH (a bcrypt hash); tokens are signed with JWT_SECRET or an
ephemeral fallback.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "path to the profile YAML")
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(serveProfile)
	if err != nil {
		return err
	}

	db, st, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	port := servePort
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}

	server := api.NewServer(newPipeline(st), profile)
	return server.Start(":" + port)
}
