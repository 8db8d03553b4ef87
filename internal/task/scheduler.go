// Package task 基于时间轮的延时任务调度, 用于吃碰杠胡窗口超时等短延时回调.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNotRunning     = errors.New("调度器未运行")
	ErrAlreadyRunning = errors.New("调度器已经在运行中")
	ErrNilTask        = errors.New("任务不能为空")
)

// Scheduler 任务调度器
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建任务调度器
func NewScheduler(workerCount int, tick time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(tick),
		workerPool: NewWorkerPool(workerCount),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "Scheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("任务调度器已启动", "tick", s.wheel.TickDuration())
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.wheel.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			for _, t := range s.wheel.Tick() {
				s.workerPool.Submit(t)
			}
		}
	}
}

// Stop 停止调度器, 未到期的任务被丢弃
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.workerPool.Stop()

	s.logger.Info("任务调度器已停止", "dropped", s.wheel.GetTotalTaskCount())
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrNotRunning
	}
	if task == nil || task.ID == "" {
		return ErrNilTask
	}

	s.wheel.AddTask(task)
	return nil
}

// RemoveTask 删除任务, 任务已执行或不存在时返回 false
func (s *Scheduler) RemoveTask(taskID string) bool {
	return s.wheel.RemoveTask(taskID)
}

// AfterFunc 延时执行 fn, 返回取消函数. 调度器未运行时退回到 time.AfterFunc.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	task := NewTask("", d, func(context.Context, string) error {
		fn()
		return nil
	})
	if err := s.AddTask(task); err != nil {
		s.logger.Warn("调度器不可用, 使用标准定时器", "error", err)
		t := time.AfterFunc(d, fn)
		return func() { t.Stop() }
	}
	return func() { s.RemoveTask(task.ID) }
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// Stats 调度器统计信息
type Stats struct {
	Running     bool  `json:"running"`
	CurrentSlot int   `json:"currentSlot"`
	Pending     int   `json:"pending"`
	Workers     int   `json:"workers"`
	Executed    int64 `json:"executed"`
	Failed      int64 `json:"failed"`
}

// GetStats 获取调度器统计信息
func (s *Scheduler) GetStats() Stats {
	executed, failed := s.workerPool.Executed()
	return Stats{
		Running:     s.IsRunning(),
		CurrentSlot: s.wheel.GetCurrentSlot(),
		Pending:     s.wheel.GetTotalTaskCount(),
		Workers:     s.workerPool.size,
		Executed:    executed,
		Failed:      failed,
	}
}
