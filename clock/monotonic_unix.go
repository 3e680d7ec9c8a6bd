//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris

package clock

import (
	"github.com/fixkme/gotimer/mlog"
	utime "github.com/fixkme/gotimer/time"
	"golang.org/x/sys/unix"
)

// Monotonic 读取 CLOCK_MONOTONIC
type Monotonic struct {
	fallback Clock
}

func NewMonotonic() *Monotonic {
	m := &Monotonic{}
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		mlog.Warnf("clock_gettime(CLOCK_MONOTONIC) unavailable, use runtime clock: %v", err)
		m.fallback = newRuntimeClock()
	}
	return m
}

func (m *Monotonic) Now() utime.Timespec {
	if m.fallback != nil {
		return m.fallback.Now()
	}
	var ts unix.Timespec
	// 构造时已探测过, 这里不会失败
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	return utime.FromUnix(ts)
}
