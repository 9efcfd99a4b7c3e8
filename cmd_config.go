package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

var configOpts struct {
	calendar string
	strategy string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configOpts.calendar, "set-calendar", "", "set the default Google Calendar name")
	configCmd.Flags().StringVar(&configOpts.strategy, "set-strategy", "", "set the default scoring strategy")
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configOpts.calendar == "" && configOpts.strategy == "" {
		printConfig(out, cfg)
		return nil
	}

	if configOpts.strategy != "" {
		if !scoring.Strategy(configOpts.strategy).Valid() {
			return fmt.Errorf("invalid strategy %q, must be one of %s", configOpts.strategy, strategyNames())
		}
		cfg.Strategy = configOpts.strategy
	}
	if configOpts.calendar != "" {
		cfg.Calendar = configOpts.calendar
	}

	var err error
	if configPath != "" {
		err = config.SaveToPath(cfg, configPath)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintln(out, "Configuration saved.")
	printConfig(out, cfg)
	return nil
}

func printConfig(w io.Writer, c *config.Config) {
	fmt.Fprintf(w, "calendar:        %s\n", c.Calendar)
	fmt.Fprintf(w, "strategy:        %s\n", c.Strategy)
	fmt.Fprintf(w, "listen:          %s\n", c.Listen)
	fmt.Fprintf(w, "suggest_limit:   %d\n", c.SuggestLimit)
	fmt.Fprintf(w, "cycle_mode:      %s\n", c.CycleMode)
	fmt.Fprintf(w, "warn_dangling:   %t\n", c.WarnDangling)
	fmt.Fprintf(w, "publish.limit:   %d\n", c.Publish.Limit)
	fmt.Fprintf(w, "log.level:       %s\n", c.Log.Level)
	if len(c.Weights) > 0 {
		keys := make([]string, 0, len(c.Weights))
		for k := range c.Weights {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "weights:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %-12s %g\n", k+":", c.Weights[k])
		}
	}
}
