package task

// Slot 时间轮的一格. 不单独加锁, 只在 TimeWheel 的锁内访问.
type Slot struct {
	tasks map[string]*Task
}

// NewSlot 创建新槽位
func NewSlot() *Slot {
	return &Slot{tasks: make(map[string]*Task)}
}

// AddTask 放入任务
func (s *Slot) AddTask(task *Task) {
	s.tasks[task.ID] = task
}

// RemoveTask 取消任务, 不存在时返回 false
func (s *Slot) RemoveTask(taskID string) bool {
	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)
	return true
}

// TakeDue 取出本圈到期的任务, 其余任务圈数减一后留在槽内
func (s *Slot) TakeDue() []*Task {
	var due []*Task
	for id, task := range s.tasks {
		if task.rounds > 0 {
			task.rounds--
			continue
		}
		due = append(due, task)
		delete(s.tasks, id)
	}
	return due
}

// Count 槽内任务数
func (s *Slot) Count() int {
	return len(s.tasks)
}
