package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Calendar",
	Long: `Remove any cached token and run the OAuth flow again. The client
credentials are read from ~/.config/taskrank/credentials.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.ClearToken(); err != nil {
			return err
		}
		if _, err := auth.GetClient(cmd.Context(), auth.CalendarScopes); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		path, _ := auth.TokenPath()
		log.Info("authentication successful", "token", path)
		return nil
	},
}
