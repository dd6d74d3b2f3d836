package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/tcontctl/internal/batch"
	"github.com/danmuck/tcontctl/internal/document"
	"github.com/danmuck/tcontctl/internal/observability"
	"github.com/danmuck/tcontctl/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/v1/decode", s.handleDecode)

	observability.RegisterMetrics()
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(observability.Registry, promhttp.HandlerOpts{})))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.appeared).String(),
		"service": "tcontctl",
		"formats": document.Formats(),
	})
}

func (s *Server) handleDecode(c *gin.Context) {
	format := c.DefaultQuery("format", "xml")
	c.Set(observability.FormatKey, format)
	parser, ok := document.Get(format)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format", "format": format})
		return
	}

	opts := s.cfg.Batch
	if v, ok := c.GetQuery("strict"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid strict flag"})
			return
		}
		opts.Message.Strict = b
	}
	if v, ok := c.GetQuery("continue"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid continue flag"})
			return
		}
		opts.ContinueOnError = b
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	records, err := parser.Parse(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": render.ErrorFor(err)})
		return
	}

	report, err := batch.NewDriver(opts).WithLogger(s.logger).Run(c.Request.Context(), records)
	c.Set(observability.RunIDKey, report.RunID)
	if err != nil {
		var recErr *batch.RecordError
		if errors.As(err, &recErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"run_id":    report.RunID,
				"record":    recErr.Index,
				"direction": recErr.Direction.String(),
				"error":     render.ErrorFor(recErr.Err),
				"messages":  render.Document(report.Results),
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   report.RunID,
		"failed":   report.Failed,
		"messages": render.Document(report.Results),
	})
}
