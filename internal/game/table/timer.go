package table

import "time"

// Timer 可取消的延时任务, 用于吃碰杠胡窗口超时
type Timer interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type stdTimer struct{}

func (stdTimer) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
