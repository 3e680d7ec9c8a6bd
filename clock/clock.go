// Package clock 提供定时器使用的单调时钟源
package clock

import (
	"time"

	utime "github.com/fixkme/gotimer/time"
)

// Clock 单调时钟, 相邻两次 Now 的返回值不会减小
type Clock interface {
	Now() utime.Timespec
}

// Func 把普通函数适配为 Clock
type Func func() utime.Timespec

func (f Func) Now() utime.Timespec {
	return f()
}

// runtimeClock 使用 Go runtime 的单调读数, 纪元为进程启动
type runtimeClock struct {
	base time.Time
}

func newRuntimeClock() *runtimeClock {
	return &runtimeClock{base: time.Now()}
}

func (c *runtimeClock) Now() utime.Timespec {
	return utime.FromDuration(time.Since(c.base))
}
