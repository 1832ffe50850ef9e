// File: internal/pkg/messaging/adapter_test.go
package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catalog-self/internal/pkg/correlation"

	"github.com/stretchr/testify/require"
)

func mapLookup(headers map[string]string) HeaderLookup {
	return func(name string) string { return headers[name] }
}

func mapSetter(headers map[string]string) HeaderSetter {
	return func(name, value string) { headers[name] = value }
}

func TestProcessInboundExtractsHeaders(t *testing.T) {
	ctx := correlation.NewContext(context.Background())
	headers := map[string]string{
		correlation.HeaderTraceID:  "abc-123",
		correlation.HeaderTenantID: "tenant-7",
		correlation.HeaderUserID:   "u-1",
	}

	got, err := ProcessInbound(ctx, mapLookup(headers), func(ctx context.Context, msg string) (string, error) {
		traceID, _ := correlation.Get(ctx, correlation.TraceID)
		require.Equal(t, "abc-123", traceID)

		tenantID, _ := correlation.Get(ctx, correlation.TenantID)
		require.Equal(t, "tenant-7", tenantID)

		userID, _ := correlation.Get(ctx, correlation.UserID)
		require.Equal(t, "u-1", userID)

		// request ID 永远本地新生成
		requestID, ok := correlation.Get(ctx, correlation.RequestID)
		require.True(t, ok)
		require.True(t, strings.HasPrefix(requestID, correlation.RequestIDPrefix))

		return msg + "-done", nil
	}, "payload")

	require.NoError(t, err)
	require.Equal(t, "payload-done", got)
}

func TestProcessInboundGeneratesMissingTraceID(t *testing.T) {
	ctx := correlation.NewContext(context.Background())

	_, err := ProcessInbound(ctx, mapLookup(nil), func(ctx context.Context, _ struct{}) (struct{}, error) {
		traceID, ok := correlation.Get(ctx, correlation.TraceID)
		require.True(t, ok)
		require.True(t, strings.HasPrefix(traceID, correlation.GeneratedTracePrefix))

		// 可选标识缺失时不出现
		_, ok = correlation.Get(ctx, correlation.TenantID)
		require.False(t, ok)
		return struct{}{}, nil
	}, struct{}{})
	require.NoError(t, err)
}

func TestProcessInboundFreshRequestIDPerMessage(t *testing.T) {
	ctx := correlation.NewContext(context.Background())
	headers := map[string]string{correlation.HeaderTraceID: "abc-123"}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		_, err := ProcessInbound(ctx, mapLookup(headers), func(ctx context.Context, _ int) (int, error) {
			id, _ := correlation.Get(ctx, correlation.RequestID)
			require.False(t, seen[id], "request ID 在消息之间被复用")
			seen[id] = true
			return 0, nil
		}, i)
		require.NoError(t, err)
	}
}

func TestProcessInboundRestoresPreviousState(t *testing.T) {
	ctx := correlation.NewContext(context.Background())
	correlation.Publish(ctx, correlation.TraceID, "worker-trace")

	sentinel := errors.New("handler failed")
	_, err := ProcessInbound(ctx, mapLookup(map[string]string{
		correlation.HeaderTraceID: "msg-trace",
	}), func(ctx context.Context, _ struct{}) (struct{}, error) {
		traceID, _ := correlation.Get(ctx, correlation.TraceID)
		require.Equal(t, "msg-trace", traceID)
		return struct{}{}, sentinel
	}, struct{}{})

	// 错误原样透传，处理前的状态恢复
	require.ErrorIs(t, err, sentinel)
	traceID, ok := correlation.Get(ctx, correlation.TraceID)
	require.True(t, ok)
	require.Equal(t, "worker-trace", traceID)
}

func TestPrepareOutboundHeaders(t *testing.T) {
	ctx := correlation.NewContext(context.Background())
	correlation.Publish(ctx, correlation.TraceID, "abc-123")
	correlation.Publish(ctx, correlation.RequestID, "req-1")
	correlation.Publish(ctx, correlation.TenantID, "tenant-7")

	headers := map[string]string{}
	PrepareOutboundHeaders(ctx, mapSetter(headers))

	require.Equal(t, "abc-123", headers[correlation.HeaderTraceID])
	require.Equal(t, "tenant-7", headers[correlation.HeaderTenantID])

	// 单跳标识永不出站
	_, exists := headers[correlation.HeaderRequestID]
	require.False(t, exists)

	// 用户标识缺失时不写头
	_, exists = headers[correlation.HeaderUserID]
	require.False(t, exists)
}

func TestPrepareOutboundHeadersGeneratesTraceID(t *testing.T) {
	ctx := correlation.NewContext(context.Background())

	headers := map[string]string{}
	PrepareOutboundHeaders(ctx, mapSetter(headers))

	require.True(t, strings.HasPrefix(headers[correlation.HeaderTraceID], correlation.GeneratedTracePrefix))

	// 生成的 trace ID 同时发布回上下文，后续出站复用同一个值
	stored, ok := correlation.Get(ctx, correlation.TraceID)
	require.True(t, ok)
	require.Equal(t, headers[correlation.HeaderTraceID], stored)
}
