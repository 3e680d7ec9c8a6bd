//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris)

package clock

import utime "github.com/fixkme/gotimer/time"

// Monotonic 在没有 clock_gettime 的平台上使用 runtime 单调时钟
type Monotonic struct {
	rc *runtimeClock
}

func NewMonotonic() *Monotonic {
	return &Monotonic{rc: newRuntimeClock()}
}

func (m *Monotonic) Now() utime.Timespec {
	return m.rc.Now()
}
