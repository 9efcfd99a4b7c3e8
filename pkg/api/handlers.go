package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/harrisonrobin/taskrank/pkg/logger"
	"github.com/harrisonrobin/taskrank/pkg/model"
	"github.com/harrisonrobin/taskrank/pkg/scoring"
)

const noTasksWarning = "No tasks provided for analysis."

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type suggestResponse struct {
	Suggestions []model.Task `json:"suggestions"`
	Warnings    []string     `json:"warnings"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request data", Details: errorDetails(err)})
		return
	}

	strategy := scoring.Strategy(req.Strategy)
	if strategy == "" {
		strategy = scoring.StrategySmart
	}
	res, err := s.score(c, "analyze", rawTasks(req.Tasks), strategy, req.WeightOverrides)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error processing tasks", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// suggestQuery serves GET /suggest/?tasks=<json>&strategy=<name>.
func (s *Server) suggestQuery(c *gin.Context) {
	strategy, ok := s.bindStrategy(c, c.DefaultQuery("strategy", string(scoring.StrategySmart)))
	if !ok {
		return
	}

	var payloads []TaskPayload
	if param := c.Query("tasks"); param != "" {
		var probe []json.RawMessage
		if err := json.Unmarshal([]byte(param), &probe); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid JSON in tasks parameter", Details: err.Error()})
			return
		}
		if err := json.Unmarshal([]byte(param), &payloads); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid task data", Details: errorDetails(err)})
			return
		}
	}
	s.suggest(c, payloads, strategy)
}

func (s *Server) suggestBody(c *gin.Context) {
	var req SuggestRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid task data", Details: errorDetails(err)})
		return
	}
	if req.Strategy == "" {
		req.Strategy = string(scoring.StrategySmart)
	}
	strategy, ok := s.bindStrategy(c, req.Strategy)
	if !ok {
		return
	}
	s.suggest(c, req.Tasks, strategy)
}

func (s *Server) bindStrategy(c *gin.Context, name string) (scoring.Strategy, bool) {
	strategy := scoring.Strategy(name)
	if !strategy.Valid() {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   fmt.Sprintf("Invalid strategy: %s. Must be one of: %s", name, strategyList()),
			Details: map[string]any{"strategy": name},
		})
		return "", false
	}
	return strategy, true
}

func strategyList() string {
	names := make([]string, 0, len(scoring.Strategies()))
	for _, st := range scoring.Strategies() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

func (s *Server) suggest(c *gin.Context, payloads []TaskPayload, strategy scoring.Strategy) {
	if len(payloads) == 0 {
		c.JSON(http.StatusOK, suggestResponse{Suggestions: []model.Task{}, Warnings: []string{noTasksWarning}})
		return
	}
	if err := binding.Validator.ValidateStruct(&taskList{Tasks: payloads}); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid task data", Details: errorDetails(err)})
		return
	}

	res, err := s.score(c, "suggest", rawTasks(payloads), strategy, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error processing task suggestions", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, suggestResponse{Suggestions: res.Top(s.suggestLimit), Warnings: res.Warnings})
}

// score runs one batch through the engine inside a span and records metrics.
func (s *Server) score(c *gin.Context, endpoint string, raw []model.RawTask, strategy scoring.Strategy, overrides map[string]float64) (*scoring.Result, error) {
	ctx, span := s.tracer.Start(c.Request.Context(), "score_tasks")
	defer span.End()
	span.SetAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.Int("tasks.count", len(raw)),
	)

	if overrides == nil {
		overrides = s.weights
	}

	start := time.Now()
	res, err := scoring.Score(raw, scoring.Options{
		Strategy:     strategy,
		Overrides:    overrides,
		Reference:    model.NewDate(s.clock()),
		CycleMode:    s.cycleMode,
		WarnDangling: s.warnDangling,
	})
	s.metrics.ScoringDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		logger.FromContext(ctx).Error("scoring failed", "endpoint", endpoint, "err", err)
		return nil, err
	}

	s.metrics.TasksScored.WithLabelValues(string(strategy)).Add(float64(len(res.Tasks)))
	s.metrics.Warnings.Add(float64(len(res.Warnings)))
	if len(res.Cycles) > 0 {
		s.metrics.Cycles.Inc()
		span.SetAttributes(attribute.StringSlice("cycles", res.Cycles))
	}
	logger.FromContext(ctx).Debug("scored batch",
		"endpoint", endpoint, "strategy", strategy, "tasks", len(res.Tasks), "warnings", len(res.Warnings))
	return res, nil
}
