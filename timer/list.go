package timer

import "github.com/fixkme/gotimer/tick"

// listBackend 按 tick 排序的双向链表, 适合定时器很少的场景
type listBackend struct {
	svc     *Service
	timers  *_List
	pending int
}

func newListBackend(s *Service) *listBackend {
	return &listBackend{svc: s, timers: newTimerList()}
}

func (l *listBackend) arm(t *Timer, tk tick.Tick) {
	switch t.state {
	case Pending:
		t.removeFromList()
	default:
		l.pending++
	}
	t.tick = tk
	l.timers.InsertSorted(t)
	t.state = Pending
}

func (l *listBackend) cancel(t *Timer) {
	t.removeFromList()
	l.pending--
}

func (l *listBackend) issue() (tick.Tick, bool) {
	if t := l.timers.Front(); t != nil {
		return t.tick, true
	}
	return 0, false
}

func (l *listBackend) count() int {
	return l.pending
}

func (l *listBackend) run() {
	now := tick.Tick(-1)
	for {
		t := l.timers.Front()
		if t == nil {
			return
		}
		// 同一 tick 上的定时器只采样一次时钟
		if now < t.tick {
			now = l.svc.load()
			if now < t.tick {
				return
			}
		}
		t.removeFromList()
		l.pending--
		// 回调里重新 Arm 会再次计数
		l.svc.fire(t, now)
	}
}
