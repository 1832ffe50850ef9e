// File: internal/pkg/correlation/store.go
package correlation

import (
	"context"
)

// Store 单个工作单元私有的关联标识存储。
//
// 一个 Store 从创建到清空都归属于创建它的工作单元（一次请求、一个池化任务、
// 一条消息的处理过程），任何时刻只有该工作单元访问它，因此不需要加锁。
// 跨工作单元传递只能通过 Snapshot 拿到的防御性拷贝，绝不共享活动实例。
//
// entries 是关联存储本身；logCtx 是日志上下文的镜像（由 log.ContextHandler
// 消费）。两者分开维护：Restore 只替换 entries，日志上下文本身不感知快照，
// 需要调用方随后 SyncToLogContext。
type Store struct {
	entries map[Key]string
	logCtx  map[Key]string
}

// Snapshot 某一时刻 Store 内容的不可变拷贝，用于跨执行单元边界携带标识。
type Snapshot map[Key]string

// NewStore 创建空的 Store
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]string),
		logCtx:  make(map[Key]string),
	}
}

// Put 写入一个值，静默覆盖
func (s *Store) Put(key Key, value string) {
	s.entries[key] = value
}

// Get 只读查询；键未设置时返回 false 而不是报错
func (s *Store) Get(key Key) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Snapshot 返回当前全部条目的不可变拷贝
func (s *Store) Snapshot() Snapshot {
	snap := make(Snapshot, len(s.entries))
	for k, v := range s.entries {
		snap[k] = v
	}
	return snap
}

// Restore 用给定快照整体替换当前条目；nil 或空快照等价于 Clear
func (s *Store) Restore(snap Snapshot) {
	clear(s.entries)
	for k, v := range snap {
		s.entries[k] = v
	}
}

// Clear 清空当前条目
func (s *Store) Clear() {
	clear(s.entries)
}

type storeCtxKey struct{}

// NewContext 开始一个新的工作单元：在 ctx 上挂载一个全新的 Store。
// 每个入站请求、每个池化 worker、每条被消费的消息都应从这里开始。
func NewContext(parent context.Context) context.Context {
	return context.WithValue(parent, storeCtxKey{}, NewStore())
}

// FromContext 取出当前工作单元的 Store；未挂载时返回 nil
func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(storeCtxKey{}).(*Store); ok {
		return s
	}
	return nil
}

// 包级便捷函数：全部容忍未挂载 Store 的 ctx——本子系统是基础设施，
// 绝不能让调用方的业务操作因此失败。

// Put 在 ctx 所属工作单元的 Store 中写入一个值
func Put(ctx context.Context, key Key, value string) {
	if s := FromContext(ctx); s != nil {
		s.Put(key, value)
	}
}

// Get 从 ctx 所属工作单元的 Store 中读取；缺失表示为 false，不是错误
func Get(ctx context.Context, key Key) (string, bool) {
	if s := FromContext(ctx); s != nil {
		return s.Get(key)
	}
	return "", false
}

// Capture 取当前 Store 的快照；未挂载时返回 nil（Restore 会将其视为清空）
func Capture(ctx context.Context) Snapshot {
	if s := FromContext(ctx); s != nil {
		return s.Snapshot()
	}
	return nil
}

// Restore 用快照整体替换当前 Store 的内容
func Restore(ctx context.Context, snap Snapshot) {
	if s := FromContext(ctx); s != nil {
		s.Restore(snap)
	}
}

// Clear 清空当前 Store
func Clear(ctx context.Context) {
	if s := FromContext(ctx); s != nil {
		s.Clear()
	}
}
