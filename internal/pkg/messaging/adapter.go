// File: internal/pkg/messaging/adapter.go
package messaging

import (
	"context"

	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
)

// 消息边界的关联标识桥接：发布/消费双方没有共享调用栈，
// 标识只能通过消息头携带。头名称与 HTTP 边界完全一致。

// HeaderLookup 按名称读取消息头；不存在时返回空串
type HeaderLookup func(name string) string

// HeaderSetter 按名称写入消息头
type HeaderSetter func(name, value string)

// ProcessInbound 以独立工作单元的身份处理一条入站消息。
//
// 流程：保存处理前的上下文 → 从消息头提取 trace ID（缺失则生成 gen- 前缀的新值）
// → 无条件生成全新的 request ID（消费一条消息就是一个新的独立工作单元）
// → 机会性提取租户/用户标识 → 全部发布到关联存储和日志上下文 → 执行 handler。
// defer 中恢复处理前的上下文并清空日志上下文，handler 的返回值和错误原样透传。
func ProcessInbound[T any, R any](
	ctx context.Context,
	lookup HeaderLookup,
	handler func(context.Context, T) (R, error),
	msg T,
) (R, error) {
	previous := correlation.Capture(ctx)
	defer func() {
		correlation.Restore(ctx, previous)
		correlation.SyncToLogContext(ctx)
	}()

	setupInboundIDs(ctx, lookup)
	return handler(ctx, msg)
}

// setupInboundIDs 从消息头装配当前工作单元的关联标识
func setupInboundIDs(ctx context.Context, lookup HeaderLookup) {
	traceID := lookup(correlation.HeaderTraceID)
	if traceID == "" {
		traceID = correlation.GenerateTraceID(correlation.GeneratedTracePrefix)
	}
	correlation.Publish(ctx, correlation.TraceID, traceID)

	requestID := correlation.GenerateRequestID()
	correlation.Publish(ctx, correlation.RequestID, requestID)

	extractOptional(ctx, lookup, correlation.HeaderTenantID, correlation.TenantID)
	extractOptional(ctx, lookup, correlation.HeaderUserID, correlation.UserID)

	log.DebugContext(ctx, "开始处理入站消息",
		log.String("trace_id", traceID),
		log.String("request_id", requestID),
	)
}

func extractOptional(ctx context.Context, lookup HeaderLookup, header string, key correlation.Key) {
	if v := lookup(header); v != "" {
		correlation.Publish(ctx, key, v)
	}
}

// PrepareOutboundHeaders 把当前关联标识写入待发布消息的头部。
//
// trace ID 完全缺失时就地生成（即使在任何已追踪请求之外生产的消息也必须可追踪）；
// 租户/用户标识存在才传播；request ID 是单跳标识，永远不写到出站消息上。
func PrepareOutboundHeaders(ctx context.Context, set HeaderSetter) {
	traceID := correlation.TraceIDOrGenerate(ctx)
	set(correlation.HeaderTraceID, traceID)

	propagateIfPresent(ctx, set, correlation.TenantID, correlation.HeaderTenantID)
	propagateIfPresent(ctx, set, correlation.UserID, correlation.HeaderUserID)
}

func propagateIfPresent(ctx context.Context, set HeaderSetter, key correlation.Key, header string) {
	if v, ok := correlation.Get(ctx, key); ok && v != "" {
		set(header, v)
	}
}
