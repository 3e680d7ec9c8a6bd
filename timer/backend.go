package timer

import (
	"strings"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/tick"
)

// Kind 后端类型, 三种后端对外行为一致
type Kind uint8

const (
	List   Kind = iota // 有序链表, 插入 O(n)
	HWheel             // 分层时间轮, 插入和推进均摊 O(1)
	Heap               // 最小堆, 插入 O(log n)
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case HWheel:
		return "hwheel"
	case Heap:
		return "heap"
	}
	return "unknown"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "list":
		return List, nil
	case "hwheel", "wheel", "":
		return HWheel, nil
	case "heap":
		return Heap, nil
	}
	return 0, errs.InvalidBackend.Printf("backend=%s", s)
}

func (k Kind) valid() bool {
	return k <= Heap
}

// backend 三种实现共用的内部接口.
// arm 把 t 调度到 tk, 后端根据 t.state 决定是插入, 调整还是重新调度.
type backend interface {
	arm(t *Timer, tk tick.Tick)
	cancel(t *Timer)
	issue() (tick.Tick, bool)
	run()
	count() int
}
