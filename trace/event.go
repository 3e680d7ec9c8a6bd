// Package trace 记录定时器的每一次公开操作, 用于排查问题和离线回放
package trace

import (
	"fmt"

	"github.com/fixkme/gotimer/tick"
	"github.com/fixkme/gotimer/timer"
	utime "github.com/fixkme/gotimer/time"
)

// Event 一条追踪事件, 字段含义见 timer.Record
type Event struct {
	Seq   uint64
	Kind  timer.Op
	Timer int64
	Tick  int64
	Sec   int64
	Nsec  int64
	Arg   int64
	Stamp int64 // 记录时的 unix 纳秒
}

func (ev *Event) Time() utime.Timespec {
	return utime.Timespec{Sec: ev.Sec, Nsec: ev.Nsec}
}

func (ev *Event) fromRecord(r *timer.Record) {
	ev.Kind = r.Op
	ev.Timer = r.Timer
	ev.Tick = int64(r.Tick)
	ev.Sec = r.Time.Sec
	ev.Nsec = r.Time.Nsec
	ev.Arg = r.Arg
}

// Record 还原为 timer.Record
func (ev *Event) Record() timer.Record {
	return timer.Record{
		Op:    ev.Kind,
		Timer: ev.Timer,
		Tick:  tick.Tick(ev.Tick),
		Time:  ev.Time(),
		Arg:   ev.Arg,
	}
}

func (ev *Event) String() string {
	switch ev.Kind {
	case timer.OpArmTspec, timer.OpArmMsec, timer.OpArmSec:
		return fmt.Sprintf("#%d %s timer=%d tick=%d deadline=%d.%09d arg=%d",
			ev.Seq, ev.Kind, ev.Timer, ev.Tick, ev.Sec, ev.Nsec, ev.Arg)
	case timer.OpCancel:
		return fmt.Sprintf("#%d %s timer=%d tick=%d state=%s",
			ev.Seq, ev.Kind, ev.Timer, ev.Tick, timer.State(ev.Arg))
	case timer.OpIssueTspec:
		if ev.Arg < 0 {
			return fmt.Sprintf("#%d %s none", ev.Seq, ev.Kind)
		}
		return fmt.Sprintf("#%d %s tick=%d issue=%d.%09d", ev.Seq, ev.Kind, ev.Tick, ev.Sec, ev.Nsec)
	case timer.OpIssueMsec:
		return fmt.Sprintf("#%d %s now=%d.%09d msec=%d", ev.Seq, ev.Kind, ev.Sec, ev.Nsec, ev.Arg)
	case timer.OpRunEnter, timer.OpRunExit:
		return fmt.Sprintf("#%d %s now=%d.%09d timers=%d", ev.Seq, ev.Kind, ev.Sec, ev.Nsec, ev.Arg)
	case timer.OpExpire:
		return fmt.Sprintf("#%d %s timer=%d tick=%d now=%d.%09d now_tick=%d",
			ev.Seq, ev.Kind, ev.Timer, ev.Tick, ev.Sec, ev.Nsec, ev.Arg)
	}
	return fmt.Sprintf("#%d %s", ev.Seq, ev.Kind)
}
