package api

import (
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harrisonrobin/taskrank/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// requestContext tags each request with an id, attaches a request-scoped
// logger to its context and logs the outcome.
func requestContext(base *charmlog.Logger, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		l := base.With("request_id", id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.Requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if status >= 500 {
			l.Error("request failed", fields...)
		} else {
			l.Info("request", fields...)
		}
	}
}
