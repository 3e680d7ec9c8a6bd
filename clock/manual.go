package clock

import (
	"sync"
	"time"

	utime "github.com/fixkme/gotimer/time"
)

// Manual 手动推进的时钟, 用于测试和trace回放
type Manual struct {
	mu  sync.Mutex
	now utime.Timespec
}

func NewManual(start utime.Timespec) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() utime.Timespec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set 设置当前时间, 早于当前值时忽略
func (m *Manual) Set(t utime.Timespec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.After(m.now) {
		m.now = t
	}
}

func (m *Manual) Advance(d time.Duration) utime.Timespec {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.AddClamp(utime.FromDuration(d))
	return m.now
}

func (m *Manual) AdvanceMsec(msec uint32) utime.Timespec {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.AddMsecClamp(msec)
	return m.now
}
