package middleware

import (
	"catalog-self/internal/pkg/correlation"

	"github.com/labstack/echo/v4"
)

// CorrelationMiddleware 关联标识中间件，服务的 HTTP 入口边界。
//
// 每个请求获得一个独立的关联存储：trace ID 从 X-Trace-ID 请求头延续
// （缺失则生成带 gen- 前缀的新值，标记链路起点在本服务），request ID
// 无条件新生成（单跳标识），租户/用户标识存在才提取。
// 两个主标识会镜像到响应头，方便调用方排查问题。
// 请求结束后清空存储，标识不会泄漏到连接复用的下一个请求。
func CorrelationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// 每个请求一个独立的关联存储
			ctx := correlation.NewContext(req.Context())

			traceID := req.Header.Get(correlation.HeaderTraceID)
			if traceID == "" {
				traceID = correlation.GenerateTraceID(correlation.GeneratedTracePrefix)
			}
			requestID := correlation.GenerateRequestID()

			correlation.Publish(ctx, correlation.TraceID, traceID)
			correlation.Publish(ctx, correlation.RequestID, requestID)

			if tenantID := req.Header.Get(correlation.HeaderTenantID); tenantID != "" {
				correlation.Publish(ctx, correlation.TenantID, tenantID)
			}
			if userID := req.Header.Get(correlation.HeaderUserID); userID != "" {
				correlation.Publish(ctx, correlation.UserID, userID)
			}

			// 设置到 Echo context，供错误处理器兜底读取
			c.Set("trace_id", traceID)
			c.Set("request_id", requestID)

			// 镜像到响应头
			c.Response().Header().Set(correlation.HeaderTraceID, traceID)
			c.Response().Header().Set(correlation.HeaderRequestID, requestID)

			c.SetRequest(req.WithContext(ctx))

			defer correlation.ClearAll(ctx)
			return next(c)
		}
	}
}
