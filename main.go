package main

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/logger"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
	log *charmlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taskrank",
	Short: "Rank tasks by urgency, importance, effort and impact",
	Long: `taskrank scores a batch of tasks and tells you what to work on next.

Tasks can come from a JSON file, Taskwarrior or Org-mode files. The ranking
can be printed, served over HTTP, or published to a Google Calendar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromPath(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		log = logger.New(logger.Config{Level: level, JSON: cfg.Log.JSON})
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/taskrank/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(rankCmd, serveCmd, publishCmd, authCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
