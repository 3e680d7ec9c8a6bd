package timer

import (
	"fmt"

	"github.com/fixkme/gotimer/tick"
	utime "github.com/fixkme/gotimer/time"
)

// Op 可追踪的操作
type Op uint8

const (
	OpArmTspec Op = iota + 1
	OpArmMsec
	OpArmSec
	OpCancel
	OpIssueTspec
	OpIssueMsec
	OpRunEnter
	OpRunExit
	OpExpire
)

var opNames = [...]string{
	OpArmTspec:   "arm_tspec",
	OpArmMsec:    "arm_msec",
	OpArmSec:     "arm_sec",
	OpCancel:     "cancel",
	OpIssueTspec: "issue_tspec",
	OpIssueMsec:  "issue_msec",
	OpRunEnter:   "run_enter",
	OpRunExit:    "run_exit",
	OpExpire:     "expire",
}

func (op Op) String() string {
	if op > 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func (op Op) Valid() bool {
	return op >= OpArmTspec && op <= OpExpire
}

// Record 一次操作的追踪记录.
//
//	op           Timer  Tick       Time        Arg
//	arm_tspec    id     到期tick   到期时间    0
//	arm_msec     id     到期tick   到期时间    毫秒数
//	arm_sec      id     到期tick   到期时间    秒数
//	cancel       id     到期tick   到期时间    取消前的状态
//	issue_tspec  0      下次到期   下次到期    无定时器时为 -1
//	issue_msec   0      下次到期   当前时间    返回的毫秒数
//	run_enter    0      0          当前时间    待执行定时器数
//	run_exit     0      0          当前时间    本次执行的定时器数
//	expire       id     到期tick   当前时间    采样得到的当前tick
type Record struct {
	Op    Op
	Timer int64
	Tick  tick.Tick
	Time  utime.Timespec
	Arg   int64
}

// Tracer 接收追踪记录, 不能持有 r, 也不能调用 Service 的方法
type Tracer interface {
	Trace(r *Record)
}

// TracerFunc 把普通函数适配为 Tracer
type TracerFunc func(r *Record)

func (f TracerFunc) Trace(r *Record) {
	f(r)
}

func (s *Service) trace(op Op, timerID int64, tk tick.Tick, tm utime.Timespec, arg int64) {
	if s.tracer == nil {
		return
	}
	s.rec = Record{Op: op, Timer: timerID, Tick: tk, Time: tm, Arg: arg}
	s.tracer.Trace(&s.rec)
}
