// Package timer 把任意数量的到期回调复用到一个单调时钟上.
//
// 定时器由调用者分配和持有, Service 只负责把它链入所选后端 (有序链表, 分层时间轮
// 或最小堆) 并在到期时调用回调. 所有操作都必须在同一个 goroutine 里进行, 回调里可以
// 对任意定时器(包括自己)调用 Arm/Cancel, 但不能重入 Run.
package timer

import (
	"fmt"

	"github.com/fixkme/gotimer/tick"
	utime "github.com/fixkme/gotimer/time"
)

type State uint8

const (
	Idle    State = iota // 未启动, 或已取消/已执行完
	Pending              // 已链入后端, 等待到期
	Running              // 回调执行中
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Func 到期回调, 参数为到期的定时器本身
type Func func(t *Timer)

// Timer 定时器, 零值不可用, 需要通过 New 或 Init 设置回调.
// 状态为 Idle 时调用者可以丢弃它.
type Timer struct {
	Data any // 调用者自定义数据

	fn       Func
	state    State
	deadline utime.Timespec
	tick     tick.Tick
	id       int64
	svc      *Service

	prev, next *Timer // list / hwheel 双向链表
	level      int8   // hwheel 中所在层
	index      int    // heap 下标
}

func New(fn Func, data any) *Timer {
	t := &Timer{}
	t.Init(fn)
	t.Data = data
	return t
}

// Init 设置回调, 只能在 Idle 状态调用
func (t *Timer) Init(fn Func) {
	if fn == nil {
		panic("timer: nil expiry func")
	}
	if t.state != Idle {
		panic("timer: init of a non idle timer")
	}
	t.fn = fn
	t.index = -1
}

// ID 第一次 Arm 时由 Service 分配, 之前为 0
func (t *Timer) ID() int64 {
	return t.id
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) Pending() bool {
	return t.state == Pending
}

// Deadline 最近一次 Arm 计算出的到期时间
func (t *Timer) Deadline() utime.Timespec {
	return t.deadline
}

// Tick 到期时间向上取整后的 tick
func (t *Timer) Tick() tick.Tick {
	return t.tick
}

func (t *Timer) String() string {
	return fmt.Sprintf("timer{id:%d state:%s tick:%d}", t.id, t.state, t.tick)
}

// expire 执行回调, 回调里没有重新 Arm 的话回到 Idle, 返回 true
func (t *Timer) expire() bool {
	t.state = Running
	t.fn(t)
	if t.state == Running {
		t.state = Idle
		return true
	}
	return false
}
