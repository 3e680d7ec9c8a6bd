package timer

import (
	"github.com/fixkme/gotimer/mlog"
	"github.com/fixkme/gotimer/tick"
)

// 每层 64 个槽, tick 精度不低于 32Hz 时用 5 层, 否则 4 层
const (
	_SLOT_BITS = 6
	_SLOTS     = 1 << _SLOT_BITS
	_SLOT_MASK = _SLOTS - 1

	_LEVEL_EXPIRED = -1 // 已落后于游标
	_LEVEL_ETERNAL = -2 // 超出时间轮范围
)

func wheelLevels(p tick.Precision) int {
	if p.Bits() >= 5 {
		return 5
	}
	return 4
}

// hwheel 分层时间轮.
//
// 第 l 层的槽覆盖 64^l 个 tick, 定时器按相对游标的距离放入能容纳它的最低层,
// 槽号取到期 tick 的第 l 组 6 位. 游标每跨过 64^l 的边界, 就把第 l 层当前槽里的
// 定时器重新分配到低层. 超出 64^L 的定时器有序地放在 eternal 链表里,
// 最高层绕回时再取出.
type hwheel struct {
	svc     *Service
	tick    tick.Tick // 下一个待处理的 tick
	next    tick.Tick // 下次到期缓存, 大于 tick 时有效
	pending int       // 包括回调中的定时器
	levels  int
	span    int64 // 64^levels
	slots   [][_SLOTS]*_List
	pop     []int  // 每层的定时器数量
	expired *_List // 到期 tick 小于游标的定时器, 有序
	eternal *_List
}

func newHWheel(s *Service) *hwheel {
	levels := wheelLevels(s.prec)
	w := &hwheel{
		svc:     s,
		levels:  levels,
		span:    int64(1) << (_SLOT_BITS * levels),
		slots:   make([][_SLOTS]*_List, levels),
		pop:     make([]int, levels),
		expired: newTimerList(),
		eternal: newTimerList(),
	}
	for l := range w.slots {
		for i := range w.slots[l] {
			w.slots[l][i] = newTimerList()
		}
	}
	return w
}

// bound 游标所在的 64^l 块之后的第一个 tick, 可能超出 tick.Max
func (w *hwheel) bound(l int) uint64 {
	shift := uint(_SLOT_BITS * l)
	return (uint64(w.tick)>>shift + 1) << shift
}

func (w *hwheel) enroll(t *Timer) {
	if t.tick < w.tick {
		t.level = _LEVEL_EXPIRED
		w.expired.InsertSorted(t)
		return
	}
	rel := int64(t.tick - w.tick)
	for l := 0; l < w.levels; l++ {
		shift := uint(_SLOT_BITS * l)
		if rel < int64(1)<<(shift+_SLOT_BITS) {
			t.level = int8(l)
			w.pop[l]++
			w.slots[l][(int64(t.tick)>>shift)&_SLOT_MASK].PushBack(t)
			return
		}
	}
	t.level = _LEVEL_ETERNAL
	w.eternal.InsertSorted(t)
}

func (w *hwheel) unlink(t *Timer) {
	if t.level >= 0 {
		w.pop[t.level]--
	}
	t.removeFromList()
}

// refresh 空时间轮的游标跟上当前时间, 不会后退
func (w *hwheel) refresh() {
	if now := w.svc.load(); now > w.tick {
		w.tick = now
	}
}

func (w *hwheel) arm(t *Timer, tk tick.Tick) {
	switch t.state {
	case Idle:
		if w.pending == 0 {
			w.refresh()
			w.next = tk
		}
		w.pending++
	case Pending:
		if t.tick == tk {
			return
		}
		w.unlink(t)
		if t.tick == w.next {
			w.next = w.tick
		}
	case Running:
		// 回调中重新调度, pending 里已经计入
	}
	if tk < w.next {
		w.next = tk
	}
	t.tick = tk
	t.state = Pending
	w.enroll(t)
}

func (w *hwheel) cancel(t *Timer) {
	w.unlink(t)
	if t.tick == w.next {
		w.next = w.tick
	}
	w.pending--
	if w.pending == 0 {
		w.refresh()
	}
}

func (w *hwheel) count() int {
	return w.pending
}

func (w *hwheel) issue() (tick.Tick, bool) {
	if w.pending == 0 {
		return 0, false
	}
	if w.next > w.tick {
		return w.next, true
	}
	next, ok := w.findIssue()
	if ok {
		w.next = next
	}
	return next, ok
}

// findIssue 逐层查找最早的到期 tick.
// 第 l 层的定时器都不早于 bound(l), 所以低层找到的值小于 bound(l+1) 时即为结果.
func (w *hwheel) findIssue() (tick.Tick, bool) {
	if t := w.expired.Front(); t != nil {
		return t.tick, true
	}
	c := int64(w.tick)
	issue := tick.Max
	found := false
	for l := 0; l < w.levels; l++ {
		if w.pop[l] > 0 {
			base := c >> uint(_SLOT_BITS*l)
			// 第 0 层从当前槽开始, 更高层的当前槽已经级联过
			start := int64(1)
			if l == 0 {
				start = 0
			}
			for i := start; i < start+_SLOTS; i++ {
				if tk, ok := w.slots[l][(base+i)&_SLOT_MASK].MinTick(); ok {
					if tk < issue {
						issue = tk
					}
					found = true
					break
				}
			}
		}
		if found && uint64(issue) < w.bound(l+1) {
			return issue, true
		}
	}
	if t := w.eternal.Front(); t != nil {
		if t.tick < issue {
			issue = t.tick
		}
		found = true
	}
	if mlog.IsLevelEnabled(mlog.TraceLevel) {
		mlog.Tracef("hwheel full issue search, tick=%d issue=%d found=%v", w.tick, issue, found)
	}
	return issue, found
}

func (w *hwheel) expire(t *Timer, now tick.Tick) {
	w.unlink(t)
	if w.svc.fire(t, now) {
		w.pending--
	}
}

func (w *hwheel) run() {
	now := w.svc.load()
	for {
		for t := w.expired.Front(); t != nil; t = w.expired.Front() {
			w.expire(t, now)
		}
		if w.pending == 0 {
			if now > w.tick {
				w.tick = now
			}
			return
		}
		if w.tick > now {
			now = w.svc.load()
			if w.tick > now {
				return
			}
		}
		// 第 0 层当前槽里的定时器都在这个 tick 到期, 回调里新加的同 tick 定时器也会进来
		slot := w.slots[0][int64(w.tick)&_SLOT_MASK]
		for t := slot.Front(); t != nil; t = slot.Front() {
			w.expire(t, now)
		}
		if w.tick == tick.Max {
			return
		}
		w.advance(now)
	}
}

// advance 游标前进一格. 第 0 层为空时直接跳到下一个有定时器的层的边界, 最远到 now+1.
func (w *hwheel) advance(now tick.Tick) {
	next := w.tick + 1
	if w.pop[0] == 0 {
		l := 1
		for l < w.levels && w.pop[l] == 0 {
			l++
		}
		b := w.bound(l)
		if limit := uint64(now) + 1; b > limit {
			b = limit
		}
		if b > uint64(tick.Max) {
			b = uint64(tick.Max)
		}
		next = tick.Tick(b)
	}
	w.tick = next
	if int64(next)&_SLOT_MASK == 0 {
		w.cascade()
	}
}

// cascade 游标跨过第 l 层边界时, 把第 l 层当前槽的定时器分配到低层
func (w *hwheel) cascade() {
	c := int64(w.tick)
	for l := 1; l < w.levels; l++ {
		slot := (c >> uint(_SLOT_BITS*l)) & _SLOT_MASK
		w.cascadeSlot(l, slot)
		if slot != 0 {
			return
		}
	}
	for t := w.eternal.Front(); t != nil && int64(t.tick-w.tick) < w.span; t = w.eternal.Front() {
		t.removeFromList()
		w.enroll(t)
	}
}

func (w *hwheel) cascadeSlot(l int, slot int64) {
	timers := w.slots[l][slot]
	if timers.IsEmpty() {
		return
	}
	n := 0
	for t := timers.Detach(); t != nil; n++ {
		next := t.next
		t.prev, t.next = nil, nil
		w.pop[l]--
		w.enroll(t)
		t = next
	}
	if mlog.IsLevelEnabled(mlog.TraceLevel) {
		mlog.Tracef("hwheel cascade level=%d slot=%d timers=%d tick=%d", l, slot, n, w.tick)
	}
}
