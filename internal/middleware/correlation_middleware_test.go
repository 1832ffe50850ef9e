package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-self/internal/pkg/correlation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func doCorrelationRequest(t *testing.T, headers map[string]string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(CorrelationMiddleware())
	e.GET("/api/v1/products/:id", handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p-1", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCorrelationMiddlewareContinuesInboundTraceID(t *testing.T) {
	var gotTrace, gotRequest string
	rec := doCorrelationRequest(t, map[string]string{
		correlation.HeaderTraceID: "abc-123",
	}, func(c echo.Context) error {
		ctx := c.Request().Context()
		gotTrace, _ = correlation.Get(ctx, correlation.TraceID)
		gotRequest, _ = correlation.Get(ctx, correlation.RequestID)
		return c.NoContent(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc-123", gotTrace)
	require.True(t, strings.HasPrefix(gotRequest, correlation.RequestIDPrefix))

	// 两个主标识镜像到响应头
	require.Equal(t, "abc-123", rec.Header().Get(correlation.HeaderTraceID))
	require.Equal(t, gotRequest, rec.Header().Get(correlation.HeaderRequestID))
}

func TestCorrelationMiddlewareGeneratesTraceIDWhenMissing(t *testing.T) {
	var gotTrace string
	doCorrelationRequest(t, nil, func(c echo.Context) error {
		gotTrace, _ = correlation.Get(c.Request().Context(), correlation.TraceID)
		return c.NoContent(http.StatusOK)
	})

	require.True(t, strings.HasPrefix(gotTrace, correlation.GeneratedTracePrefix))
}

func TestCorrelationMiddlewareOptionalIdentifiers(t *testing.T) {
	var tenantID, userID string
	var tenantOK, userOK bool
	doCorrelationRequest(t, map[string]string{
		correlation.HeaderTenantID: "tenant-7",
	}, func(c echo.Context) error {
		ctx := c.Request().Context()
		tenantID, tenantOK = correlation.Get(ctx, correlation.TenantID)
		userID, userOK = correlation.Get(ctx, correlation.UserID)
		return c.NoContent(http.StatusOK)
	})

	require.True(t, tenantOK)
	require.Equal(t, "tenant-7", tenantID)

	// 缺失的可选标识不出现
	require.False(t, userOK)
	require.Empty(t, userID)
}

func TestCorrelationMiddlewareFreshRequestIDPerRequest(t *testing.T) {
	e := echo.New()
	e.Use(CorrelationMiddleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.HeaderTraceID, "abc-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		id := rec.Header().Get(correlation.HeaderRequestID)
		require.NotEmpty(t, id)
		require.False(t, seen[id], "request ID 在请求之间被复用")
		seen[id] = true
	}
}

func TestCorrelationMiddlewareSetsEchoContextValues(t *testing.T) {
	var ctxTrace, ctxRequest interface{}
	doCorrelationRequest(t, map[string]string{
		correlation.HeaderTraceID: "abc-123",
	}, func(c echo.Context) error {
		ctxTrace = c.Get("trace_id")
		ctxRequest = c.Get("request_id")
		return c.NoContent(http.StatusOK)
	})

	require.Equal(t, "abc-123", ctxTrace)
	require.IsType(t, "", ctxRequest)
	require.True(t, strings.HasPrefix(ctxRequest.(string), correlation.RequestIDPrefix))
}

func TestCorrelationMiddlewareClearsStoreAfterRequest(t *testing.T) {
	var captured *correlation.Store
	doCorrelationRequest(t, map[string]string{
		correlation.HeaderTraceID: "abc-123",
	}, func(c echo.Context) error {
		captured = correlation.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NotNil(t, captured)
	// 请求结束后存储被清空，标识不随连接复用泄漏
	_, ok := captured.Get(correlation.TraceID)
	require.False(t, ok)
}
