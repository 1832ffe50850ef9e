// File: internal/pkg/correlation/executor.go
package correlation

import (
	"context"
	"errors"
	"sync"
)

// 跨执行单元传播的包装器。
//
// 所有形态遵循同一套流程：
//  1. 包装时（发起方，同步）立即对发起方 Store 做快照。快照是急切的，
//     即使任务很久之后才被调度，携带的也是发起那一刻的上下文。
//  2. 实际执行时（worker，可能被复用）：
//     a. 先快照 worker 自己已有的上下文 previous——上一个任务清理不彻底时
//        它可能非空，无论如何都要留到最后恢复；
//     b. Restore 发起方快照并 SyncToLogContext；
//     c. 执行真实任务，返回值和错误原样透传，包装器对业务结果完全透明；
//     d. defer 中 Restore(previous) 并再次同步——无论任务正常返回、
//        返回错误还是 panic 都会执行。
//
// 嵌套包装按 LIFO 恢复：最内层的包装恢复到它自己进入时的状态，
// 这是唯一与 "不跨任务泄漏" 保证一致的行为。

// Wrap 包装一个纯副作用的工作单元
func Wrap(ctx context.Context, fn func(context.Context)) func(context.Context) {
	snap := Capture(ctx)
	return func(workerCtx context.Context) {
		previous := Capture(workerCtx)
		Restore(workerCtx, snap)
		SyncToLogContext(workerCtx)
		defer func() {
			Restore(workerCtx, previous)
			SyncToLogContext(workerCtx)
		}()
		fn(workerCtx)
	}
}

// WrapErr 包装一个可能失败的工作单元，错误原样透传
func WrapErr(ctx context.Context, fn func(context.Context) error) func(context.Context) error {
	snap := Capture(ctx)
	return func(workerCtx context.Context) error {
		previous := Capture(workerCtx)
		Restore(workerCtx, snap)
		SyncToLogContext(workerCtx)
		defer func() {
			Restore(workerCtx, previous)
			SyncToLogContext(workerCtx)
		}()
		return fn(workerCtx)
	}
}

// WrapSupplier 包装一个惰性求值的 supplier
func WrapSupplier[T any](ctx context.Context, fn func(context.Context) T) func(context.Context) T {
	snap := Capture(ctx)
	return func(workerCtx context.Context) T {
		previous := Capture(workerCtx)
		Restore(workerCtx, snap)
		SyncToLogContext(workerCtx)
		defer func() {
			Restore(workerCtx, previous)
			SyncToLogContext(workerCtx)
		}()
		return fn(workerCtx)
	}
}

// WrapResult 包装一个返回值且可能失败的工作单元
func WrapResult[T any](ctx context.Context, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	snap := Capture(ctx)
	return func(workerCtx context.Context) (T, error) {
		previous := Capture(workerCtx)
		Restore(workerCtx, snap)
		SyncToLogContext(workerCtx)
		defer func() {
			Restore(workerCtx, previous)
			SyncToLogContext(workerCtx)
		}()
		return fn(workerCtx)
	}
}

// ErrExecutorClosed 向已关闭的 Executor 提交任务时返回
var ErrExecutorClosed = errors.New("correlation: executor 已关闭")

// Task 提交给 Executor 的工作单元
type Task func(context.Context)

// Executor 固定大小的 worker 池，提交的每个任务都自动带上发起方的关联上下文。
//
// 每个 worker goroutine 持有一个长期存活的私有 Store（池化线程的对应物），
// 先后被不相关的任务复用但绝不并发共享。Submit 内部做包装，
// 向共享池提交任务的调用方不需要写任何传播代码。
type Executor struct {
	tasks    chan Task
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// NewExecutor 创建并启动 worker 池
func NewExecutor(workers, queueSize int) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	e := &Executor{
		tasks: make(chan Task, queueSize),
		quit:  make(chan struct{}),
	}

	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()

	// worker 的基础上下文和私有 Store 与 worker 同寿命，
	// 包装器负责在每个任务前后安装/恢复内容。
	workerCtx := NewContext(context.Background())
	for {
		select {
		case task := <-e.tasks:
			task(workerCtx)
		case <-e.quit:
			// 排空已入队的存量任务后退出
			for {
				select {
				case task := <-e.tasks:
					task(workerCtx)
				default:
					return
				}
			}
		}
	}
}

// Submit 包装任务并入队。ctx 是发起方的上下文，快照在此刻立即捕获。
func (e *Executor) Submit(ctx context.Context, task Task) error {
	wrapped := Wrap(ctx, task)

	select {
	case <-e.quit:
		return ErrExecutorClosed
	default:
	}

	select {
	case e.tasks <- wrapped:
		return nil
	case <-e.quit:
		return ErrExecutorClosed
	}
}

// Shutdown 停止接收新任务并等待存量任务完成；ctx 到期则提前返回其错误
func (e *Executor) Shutdown(ctx context.Context) error {
	e.quitOnce.Do(func() {
		close(e.quit)
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
