package queueapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ringq/internal/logger"
	"ringq/internal/metrics"
)

// RegisterRoutes builds the echo router for h. The logger is taken from ctx;
// m may be nil, in which case /metrics is not served.
func RegisterRoutes(ctx context.Context, h *Handler, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(observe(logger.FromCtx(ctx), m))

	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/queues", h.List)
	e.PUT("/queues/:name", h.Create)
	e.GET("/queues/:name", h.Stats)
	e.HEAD("/queues/:name", h.Stats)
	e.DELETE("/queues/:name", h.Delete)
	e.POST("/queues/:name/messages", h.Enqueue)
	e.DELETE("/queues/:name/messages/head", h.Dequeue)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
	return e
}

func observe(log *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			if m != nil {
				m.HTTP.WithLabelValues(req.Method, c.Path(), strconv.Itoa(res.Status)).Inc()
			}
			log.Debug("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		}
	}
}
