package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/coopvote/plenum/internal/client"
	"github.com/coopvote/plenum/internal/ui"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	api client.VotingClient
)

func defaultServer() string {
	if s := os.Getenv("PLENUM_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	return os.Getenv("PLENUM_AUTH_TOKEN")
}

var rootCmd = &cobra.Command{
	Use:   "plenum",
	Short: "CLI client for the plenum voting service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		api = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if api != nil {
			api.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "voting server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(agendaCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
