package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys a handler may set for the request log line.
const (
	RunIDKey  = "run_id"
	FormatKey = "format"
)

// RequestObserver logs each request and records its HTTP metrics. Decode
// handlers tag the request with RunIDKey and FormatKey so the log line can be
// joined with the batch log.
func RequestObserver(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, route, status, elapsed)

		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case route != "/health" && route != "/metrics":
			event = logger.Info()
		}
		if v := c.GetString(FormatKey); v != "" {
			event = event.Str("format", v)
		}
		if v := c.GetString(RunIDKey); v != "" {
			event = event.Str("run_id", v)
		}
		if len(c.Errors) > 0 {
			event = event.Str("gin_errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Int("bytes", c.Writer.Size()).
			Msg("decode service request")
	}
}
