package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskrank/pkg/api"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

var serveOpts struct {
	addr  string
	trace bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring API over HTTP",
	Long: `Start the HTTP API:

  POST /api/tasks/analyze/   score and sort a batch
  GET|POST /api/tasks/suggest/   top suggestions
  GET /health, GET /metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "listen address (default from config, :8000)")
	serveCmd.Flags().BoolVar(&serveOpts.trace, "trace", false, "write request and scoring spans to stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if serveOpts.addr != "" {
		addr = serveOpts.addr
	}
	cycleMode, err := scoring.ParseCycleMode(cfg.CycleMode)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := api.Options{
		Logger:       log,
		Registry:     reg,
		Clock:        time.Now,
		CycleMode:    cycleMode,
		WarnDangling: cfg.WarnDangling,
		Weights:      cfg.Weights,
		SuggestLimit: cfg.SuggestLimit,
	}
	if serveOpts.trace {
		tp, err := api.NewStdoutTracerProvider(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to flush spans", "err", err)
			}
		}()
		opts.TracerProvider = tp
	}
	srv := api.New(opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, addr)
}
