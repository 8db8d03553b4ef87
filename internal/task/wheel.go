package task

import (
	"sync"
	"time"
)

const (
	// SlotCount 时间轮槽位数量
	SlotCount = 60
	// DefaultTick 默认每格时长
	DefaultTick = 100 * time.Millisecond
)

// TimeWheel 单层时间轮. 超过一圈的任务记录剩余圈数.
type TimeWheel struct {
	slots       [SlotCount]*Slot
	tick        time.Duration
	currentSlot int
	index       map[string]int // taskID -> 槽位
	mu          sync.Mutex
}

// NewTimeWheel 创建时间轮
func NewTimeWheel(tick time.Duration) *TimeWheel {
	if tick <= 0 {
		tick = DefaultTick
	}
	tw := &TimeWheel{
		tick:  tick,
		index: make(map[string]int),
	}
	for i := 0; i < SlotCount; i++ {
		tw.slots[i] = NewSlot()
	}
	return tw
}

// ticksFor 延迟换算成格数, 不足一格按一格算
func (tw *TimeWheel) ticksFor(delay time.Duration) int {
	ticks := int((delay + tw.tick - 1) / tw.tick)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// AddTask 添加任务到时间轮
func (tw *TimeWheel) AddTask(task *Task) {
	ticks := tw.ticksFor(task.Delay)

	tw.mu.Lock()
	defer tw.mu.Unlock()

	target := (tw.currentSlot + ticks) % SlotCount
	task.rounds = (ticks - 1) / SlotCount
	tw.index[task.ID] = target
	tw.slots[target].AddTask(task)
}

// RemoveTask 从时间轮删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].RemoveTask(taskID)
}

// Tick 推进一格, 返回到期任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.currentSlot = (tw.currentSlot + 1) % SlotCount
	due := tw.slots[tw.currentSlot].TakeDue()
	for _, task := range due {
		delete(tw.index, task.ID)
	}
	return due
}

// TickDuration 每格时长
func (tw *TimeWheel) TickDuration() time.Duration {
	return tw.tick
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return tw.currentSlot
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return len(tw.index)
}
