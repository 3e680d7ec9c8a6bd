package trace

import (
	"sync"

	"github.com/eapache/queue"
)

// Ring 保存最近 size 条事件
type Ring struct {
	mu   sync.Mutex
	q    *queue.Queue
	size int
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1024
	}
	return &Ring{q: queue.New(), size: size}
}

func (r *Ring) Write(ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q.Length() == r.size {
		r.q.Remove()
	}
	cp := *ev
	r.q.Add(&cp)
	return nil
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Length()
}

// Events 从旧到新的副本
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, r.q.Length())
	for i := range events {
		events[i] = *r.q.Get(i).(*Event)
	}
	return events
}

func (r *Ring) Close() error {
	return nil
}
