// File: internal/pkg/correlation/correlation.go
package correlation

import (
	"github.com/google/uuid"
)

// Key 统一的关联标识键类型
type Key string

const (
	// TraceID 跨跳路追踪 ID：同一逻辑操作的所有下游环节（HTTP 请求 → 池化任务 →
	// 发布消息 → 消费者）共享同一个值。只在最外层边界缺失时才生成。
	TraceID Key = "trace_id"

	// RequestID 单跳请求 ID：每个独立工作单元（一次 HTTP 请求、一条被消费的消息）
	// 都重新生成，从不向下游传递。
	RequestID Key = "request_id"

	// TenantID 租户 ID（可选，入站存在时机会性传播）
	TenantID Key = "tenant_id"

	// UserID 用户 ID（可选，入站存在时机会性传播）
	UserID Key = "user_id"
)

// HTTP / 消息头名称，两个边界使用相同的名称和语义
const (
	HeaderTraceID   = "X-Trace-ID"
	HeaderRequestID = "X-Request-ID"
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"
)

const (
	// GeneratedTracePrefix 本地生成（而非入站携带）的 trace ID 前缀
	GeneratedTracePrefix = "gen-"

	// RequestIDPrefix 请求 ID 前缀
	RequestIDPrefix = "req-"
)

// wellKnownKeys 固定的键集合，同时决定日志属性的输出顺序
var wellKnownKeys = []Key{TraceID, RequestID, TenantID, UserID}

// GenerateTraceID 生成新的 trace ID
func GenerateTraceID(prefix string) string {
	return prefix + uuid.NewString()
}

// GenerateRequestID 生成新的 request ID
func GenerateRequestID() string {
	return RequestIDPrefix + uuid.NewString()
}
