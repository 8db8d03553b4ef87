package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context, target string) error

// Task 延时任务
type Task struct {
	ID        string        `json:"id"`        // 任务唯一ID
	Target    string        `json:"target"`    // 操作对象标识, 一般是牌桌号
	Delay     time.Duration `json:"delay"`     // 延迟时长
	Fn        TaskFunc      `json:"-"`         // 执行函数
	CreatedAt time.Time     `json:"createdAt"` // 创建时间

	rounds int // 还需转过的整圈数
}

// NewTask 创建新任务, ID 为随机 UUID
func NewTask(target string, delay time.Duration, fn TaskFunc) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Target:    target,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Target)
}
