package task

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// WorkerPool 执行到期任务的固定数量协程.
// 任务回调会去抢牌桌锁, 放在独立协程里执行, 时间轮的 tick 不会被阻塞.
type WorkerPool struct {
	size   int
	queue  chan *Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	executed atomic.Int64
	failed   atomic.Int64
}

// NewWorkerPool 创建工作协程池
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		size:   size,
		queue:  make(chan *Task, size*16),
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default().With("component", "WorkerPool"),
	}
}

// Start 启动所有工作协程
func (wp *WorkerPool) Start() {
	wp.wg.Add(wp.size)
	for i := range wp.size {
		go wp.loop(i)
	}
	wp.logger.Info("工作协程池已启动", "size", wp.size)
}

func (wp *WorkerPool) loop(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case t := <-wp.queue:
			wp.run(id, t)
		}
	}
}

// run 执行单个任务, panic 与错误都只记日志
func (wp *WorkerPool) run(workerID int, t *Task) {
	wp.executed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			wp.failed.Add(1)
			wp.logger.Error("任务 panic", "worker", workerID, "taskId", t.ID, "panic", r)
		}
	}()

	if err := t.Execute(wp.ctx); err != nil {
		wp.failed.Add(1)
		wp.logger.Error("任务失败", "worker", workerID, "taskId", t.ID, "target", t.Target, "error", err)
	}
}

// Submit 投递任务, 队列满时等待. 协程池已停止时返回 false.
func (wp *WorkerPool) Submit(t *Task) bool {
	if t == nil {
		return false
	}
	select {
	case wp.queue <- t:
		return true
	case <-wp.ctx.Done():
		wp.logger.Warn("协程池已停止, 任务被丢弃", "taskId", t.ID)
		return false
	}
}

// Executed 已执行与失败的任务数
func (wp *WorkerPool) Executed() (executed, failed int64) {
	return wp.executed.Load(), wp.failed.Load()
}

// Stop 停止所有工作协程, 队列中未执行的任务被丢弃
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info("工作协程池已停止", "dropped", len(wp.queue))
}
