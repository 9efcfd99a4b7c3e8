// Package api serves the scoring engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/harrisonrobin/taskrank/pkg/logger"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

const (
	serviceName         = "taskrank"
	defaultSuggestLimit = 3
)

type Options struct {
	Logger *charmlog.Logger
	// Registry receives the API collectors and backs /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry
	// Clock supplies "today" for each request.
	Clock        func() time.Time
	CycleMode    scoring.CycleMode
	WarnDangling bool
	// TracerProvider backs request and scoring spans. The global provider is
	// used when nil.
	TracerProvider trace.TracerProvider
	// Weights are applied when a request carries no weight_overrides.
	Weights      map[string]float64
	SuggestLimit int
}

type Server struct {
	log          *charmlog.Logger
	registry     *prometheus.Registry
	metrics      *Metrics
	tracerProv   trace.TracerProvider
	tracer       trace.Tracer
	clock        func() time.Time
	cycleMode    scoring.CycleMode
	warnDangling bool
	weights      map[string]float64
	suggestLimit int
	engine       *gin.Engine
}

func New(opts Options) *Server {
	registerValidations()

	s := &Server{
		log:          opts.Logger,
		registry:     opts.Registry,
		clock:        opts.Clock,
		cycleMode:    opts.CycleMode,
		warnDangling: opts.WarnDangling,
		weights:      opts.Weights,
		suggestLimit: opts.SuggestLimit,
		tracerProv:   opts.TracerProvider,
	}
	if s.tracerProv == nil {
		s.tracerProv = otel.GetTracerProvider()
	}
	s.tracer = s.tracerProv.Tracer(serviceName)
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.suggestLimit <= 0 {
		s.suggestLimit = defaultSuggestLimit
	}
	s.metrics = NewMetrics(s.registry)
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(s.tracerProv)))
	r.Use(requestContext(s.log, s.metrics))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	tasks := r.Group("/api/tasks")
	tasks.POST("/analyze/", s.analyze)
	tasks.GET("/suggest/", s.suggestQuery)
	tasks.POST("/suggest/", s.suggestBody)
	return r
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
