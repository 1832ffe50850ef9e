// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware Echo 中间件 - 记录 HTTP 请求指标
// 路由标签使用路由模板（c.Path()）而非原始路径，防止标签基数爆炸
func Middleware(service string) echo.MiddlewareFunc {
	tracker := NewPathLimitTracker(200)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsHealthCheckEndpoint(c.Request().URL.Path) {
				return next(c)
			}

			DefaultHTTPMetrics.IncInProgress(service)
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}

			route := tracker.TrackPath(NormalizeRoute(c.Path()))
			DefaultHTTPMetrics.RecordRequest(service, route, c.Request().Method, status, time.Since(start))
			DefaultHTTPMetrics.DecInProgress(service)

			return err
		}
	}
}

// Handler 返回 Prometheus metrics HTTP 处理器
// 用于暴露 /metrics 端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoHandler Echo 框架的 Prometheus metrics 处理器
func EchoHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	}
}
