package timer

import (
	"container/heap"

	"github.com/fixkme/gotimer/tick"
)

type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].tick < h[j].tick }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil // avoid memory leak
	t.index = -1
	*h = old[0 : n-1]
	return t
}

// heapBackend 以 tick 为键的最小堆
type heapBackend struct {
	svc    *Service
	timers timerHeap
}

func newHeapBackend(s *Service) *heapBackend {
	return &heapBackend{svc: s, timers: make(timerHeap, 0, 64)}
}

func (h *heapBackend) arm(t *Timer, tk tick.Tick) {
	t.tick = tk
	if t.state == Pending {
		// 变早上浮, 变晚下沉
		heap.Fix(&h.timers, t.index)
		return
	}
	t.state = Pending
	heap.Push(&h.timers, t)
}

func (h *heapBackend) cancel(t *Timer) {
	heap.Remove(&h.timers, t.index)
}

func (h *heapBackend) issue() (tick.Tick, bool) {
	if len(h.timers) == 0 {
		return 0, false
	}
	return h.timers[0].tick, true
}

func (h *heapBackend) count() int {
	return len(h.timers)
}

func (h *heapBackend) run() {
	now := tick.Tick(-1)
	for len(h.timers) > 0 {
		t := h.timers[0]
		if now < t.tick {
			now = h.svc.load()
			if now < t.tick {
				return
			}
		}
		heap.Pop(&h.timers)
		h.svc.fire(t, now)
	}
}
