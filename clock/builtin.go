package clock

import "sync"

var (
	builtinClock Clock
	once         sync.Once
)

// Default 进程级单调时钟
func Default() Clock {
	once.Do(func() {
		builtinClock = NewMonotonic()
	})
	return builtinClock
}
