package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

// scoreFlags control a scoring run. rank and publish share them.
type scoreFlags struct {
	strategy     string
	weights      []string
	date         string
	cycleMode    string
	warnDangling bool
}

func (s *scoreFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.strategy, "strategy", "", "smart, fast, impact or deadline (default from config)")
	cmd.Flags().StringArrayVar(&s.weights, "weight", nil, "weight override as factor=value, repeatable")
	cmd.Flags().StringVar(&s.date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&s.cycleMode, "cycle-mode", "", "cycle detection: scc or path (default from config)")
	cmd.Flags().BoolVar(&s.warnDangling, "warn-dangling", false, "warn about dependencies on unknown tasks")
}

// options merges the flags over the config.
func (s *scoreFlags) options(c *config.Config, now time.Time) (scoring.Options, error) {
	strategy := scoring.Strategy(c.Strategy)
	if s.strategy != "" {
		strategy = scoring.Strategy(s.strategy)
	}
	if !strategy.Valid() {
		return scoring.Options{}, fmt.Errorf("invalid strategy %q, must be one of %s", strategy, strategyNames())
	}

	overrides := make(map[string]float64, len(c.Weights)+len(s.weights))
	for k, v := range c.Weights {
		overrides[k] = v
	}
	for _, kv := range s.weights {
		k, v, err := parseWeight(kv)
		if err != nil {
			return scoring.Options{}, err
		}
		overrides[k] = v
	}

	mode := c.CycleMode
	if s.cycleMode != "" {
		mode = s.cycleMode
	}
	cycleMode, err := scoring.ParseCycleMode(mode)
	if err != nil {
		return scoring.Options{}, err
	}

	ref := model.NewDate(now)
	if s.date != "" {
		if ref, err = model.ParseDate(s.date); err != nil {
			return scoring.Options{}, fmt.Errorf("invalid --date: %w", err)
		}
	}

	return scoring.Options{
		Strategy:     strategy,
		Overrides:    overrides,
		Reference:    ref,
		CycleMode:    cycleMode,
		WarnDangling: s.warnDangling || c.WarnDangling,
	}, nil
}

func parseWeight(kv string) (string, float64, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("invalid weight %q, want factor=value", kv)
	}
	k = strings.TrimSpace(k)
	if !scoring.ValidFactor(k) {
		return "", 0, fmt.Errorf("invalid weight key %q, valid keys are urgency, importance, effort, dependency", k)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid weight value %q: %w", v, err)
	}
	return k, f, nil
}

func strategyNames() string {
	names := make([]string, 0, 4)
	for _, s := range scoring.Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

var rankOpts struct {
	sourceFlags
	scoreFlags
	top    int
	asJSON bool
	watch  bool
}

var rankCmd = &cobra.Command{
	Use:   "rank [file | filter... | org files...]",
	Short: "Score tasks and print them in priority order",
	Long: `Score a batch of tasks and print them from most to least urgent.

By default tasks are read as JSON from the given file or stdin, either an
array of tasks or {"tasks": [...]}. With --source taskwarrior the arguments
are a Taskwarrior filter; with --source org they are Org-mode files.`,
	Example: `  taskrank rank tasks.json
  taskrank rank --strategy deadline --top 5 --source taskwarrior project:work
  taskrank rank --source org --tag work ~/org/todo.org --weight effort=0.4`,
	RunE: runRank,
}

func init() {
	rankOpts.sourceFlags.register(rankCmd)
	rankOpts.scoreFlags.register(rankCmd)
	rankCmd.Flags().IntVar(&rankOpts.top, "top", 0, "only show the first N tasks (0 shows all)")
	rankCmd.Flags().BoolVar(&rankOpts.asJSON, "json", false, "print the result as JSON")
	rankCmd.Flags().BoolVar(&rankOpts.watch, "watch", false, "re-rank whenever the input files change")
}

func runRank(cmd *cobra.Command, args []string) error {
	if !rankOpts.watch {
		return rankOnce(cmd, args)
	}

	files := rankOpts.sourceFlags.watchedFiles(args)
	if len(files) == 0 {
		return fmt.Errorf("--watch needs input files")
	}
	if err := rankOnce(cmd, args); err != nil {
		log.Error("rank failed", "err", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFiles(ctx, files, func(name string) {
		log.Debug("input changed", "file", name)
		if err := rankOnce(cmd, args); err != nil {
			log.Error("rank failed", "err", err)
		}
	})
}

func rankOnce(cmd *cobra.Command, args []string) error {
	opts, err := rankOpts.scoreFlags.options(cfg, time.Now())
	if err != nil {
		return err
	}
	raw, err := rankOpts.sourceFlags.load(cmd.Context(), args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	res, err := scoring.Score(raw, opts)
	if err != nil {
		return err
	}
	log.Debug("ranked tasks", "tasks", len(res.Tasks), "strategy", opts.Strategy, "warnings", len(res.Warnings))

	top := res.Tasks
	if rankOpts.top > 0 {
		top = res.Top(rankOpts.top)
	}
	return printRanking(cmd.OutOrStdout(), top, res.Warnings, rankOpts.asJSON)
}

func printRanking(w io.Writer, tasks []model.Task, warnings []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(scoring.Result{Tasks: tasks, Warnings: warnings})
	}
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks to rank.")
	} else {
		fmt.Fprintln(w, renderTable(tasks))
	}
	if len(warnings) > 0 {
		fmt.Fprintln(w, renderWarnings(warnings))
	}
	return nil
}
