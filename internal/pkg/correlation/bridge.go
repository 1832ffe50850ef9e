// File: internal/pkg/correlation/bridge.go
package correlation

import (
	"context"
	"log/slog"
	"sort"
)

// Store 与日志上下文之间的桥接。
//
// "日志上下文" 指 log.ContextHandler 在格式化每条日志时读取的那组属性
// （Store 内部的 logCtx 镜像）。业务代码只要用带 ctx 的日志调用，
// 每条日志就会自动携带当前工作单元的关联标识，调用点无需做任何事。

// Publish 同时写入 Store 和日志上下文，对调用方而言是一次原子发布
func Publish(ctx context.Context, key Key, value string) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	s.entries[key] = value
	s.logCtx[key] = value
}

// Remove 从 Store 和日志上下文中同时移除
func Remove(ctx context.Context, key Key) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	delete(s.entries, key)
	delete(s.logCtx, key)
}

// SyncToLogContext 把 Store 的全部条目复制进日志上下文。
// 日志上下文不感知快照，Restore 之后必须调用一次。
func SyncToLogContext(ctx context.Context) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	clear(s.logCtx)
	for k, v := range s.entries {
		s.logCtx[k] = v
	}
}

// ClearAll 同时清空 Store 和日志上下文。
// 必须放在 defer 中调用，保证工作单元的每条退出路径（包括 panic）都会执行，
// 否则残留的标识会泄漏到复用同一 worker 的下一个工作单元。
func ClearAll(ctx context.Context) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	clear(s.entries)
	clear(s.logCtx)
}

// TraceIDOrGenerate 读取当前 trace ID；完全缺失时就地生成并发布一个,
// 保证读取方拿到的 trace ID 永远非空（即使在任何已追踪请求之外）。
func TraceIDOrGenerate(ctx context.Context) string {
	if id, ok := Get(ctx, TraceID); ok && id != "" {
		return id
	}
	id := GenerateTraceID(GeneratedTracePrefix)
	Publish(ctx, TraceID, id)
	return id
}

// LogAttrs 返回日志上下文当前的全部属性，供 log.ContextHandler 注入日志记录。
// 固定键按既定顺序排在前面，其余键按字典序，保证日志输出稳定。
func LogAttrs(ctx context.Context) []slog.Attr {
	s := FromContext(ctx)
	if s == nil || len(s.logCtx) == 0 {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(s.logCtx))
	seen := make(map[Key]bool, len(wellKnownKeys))
	for _, k := range wellKnownKeys {
		if v, ok := s.logCtx[k]; ok && v != "" {
			attrs = append(attrs, slog.String(string(k), v))
		}
		seen[k] = true
	}

	var rest []string
	for k := range s.logCtx {
		if !seen[k] {
			rest = append(rest, string(k))
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		attrs = append(attrs, slog.String(k, s.logCtx[Key(k)]))
	}
	return attrs
}
