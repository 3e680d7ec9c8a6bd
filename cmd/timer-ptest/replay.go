package main

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/fixkme/gotimer/clock"
	"github.com/fixkme/gotimer/tick"
	utime "github.com/fixkme/gotimer/time"
	"github.com/fixkme/gotimer/timer"
	"github.com/fixkme/gotimer/trace"
)

type opStat struct {
	count int64
	total time.Duration
	max   time.Duration
}

func (st *opStat) add(d time.Duration) {
	st.count++
	st.total += d
	if d > st.max {
		st.max = d
	}
}

// replayer 按事件时间戳推进手动时钟, 在指定后端上重放定时器操作
type replayer struct {
	svc    *timer.Service
	clk    *clock.Manual
	base   utime.Timespec
	stamp0 int64
	timers map[int64]*timer.Timer
	stats  map[timer.Op]*opStat
}

// rec 不为空时记录重放过程, 时间戳取自手动时钟
func newReplayer(kind timer.Kind, prec tick.Precision, rec *trace.Recorder) (*replayer, error) {
	clk := clock.NewManual(utime.Timespec{})
	opts := []timer.Option{timer.WithClock(clk), timer.WithPrecision(prec)}
	if rec != nil {
		rec.StampWith(clk)
		opts = append(opts, timer.WithTracer(rec))
	}
	svc, err := timer.NewService(kind, opts...)
	if err != nil {
		return nil, err
	}
	return &replayer{
		svc:    svc,
		clk:    clk,
		timers: make(map[int64]*timer.Timer),
		stats:  make(map[timer.Op]*opStat),
	}, nil
}

// 这些事件的 Time 字段是记录时的当前时间
func carriesNow(op timer.Op) bool {
	switch op {
	case timer.OpIssueMsec, timer.OpRunEnter, timer.OpRunExit, timer.OpExpire:
		return true
	}
	return false
}

// align 用第一个带当前时间的事件把时间戳映射到记录时的时钟
func (r *replayer) align(events []trace.Event) {
	if len(events) == 0 {
		return
	}
	r.stamp0 = events[0].Stamp
	for i := range events {
		ev := &events[i]
		if !carriesNow(ev.Kind) {
			continue
		}
		base, sign := ev.Time().Sub(utime.FromDuration(time.Duration(ev.Stamp - r.stamp0)))
		if sign > 0 {
			r.base = base
		}
		break
	}
	r.clk.Set(r.base)
}

func (r *replayer) at(ev *trace.Event) utime.Timespec {
	return r.base.AddClamp(utime.FromDuration(time.Duration(ev.Stamp - r.stamp0)))
}

func (r *replayer) get(id int64) *timer.Timer {
	t, ok := r.timers[id]
	if !ok {
		t = timer.New(func(*timer.Timer) {}, id)
		r.timers[id] = t
	}
	return t
}

func (r *replayer) measure(op timer.Op, fn func()) {
	start := time.Now()
	fn()
	d := time.Since(start)
	st, ok := r.stats[op]
	if !ok {
		st = &opStat{}
		r.stats[op] = st
	}
	st.add(d)
}

// step 重放一个事件, 结果类事件被忽略
func (r *replayer) step(ev *trace.Event) {
	r.clk.Set(r.at(ev))
	switch ev.Kind {
	case timer.OpArmTspec:
		t := r.get(ev.Timer)
		at := ev.Time()
		r.measure(ev.Kind, func() { r.svc.ArmAt(t, at) })
	case timer.OpArmMsec:
		t := r.get(ev.Timer)
		r.measure(ev.Kind, func() { r.svc.ArmInMsec(t, uint32(ev.Arg)) })
	case timer.OpArmSec:
		t := r.get(ev.Timer)
		r.measure(ev.Kind, func() { r.svc.ArmInSec(t, uint32(ev.Arg)) })
	case timer.OpCancel:
		t := r.get(ev.Timer)
		r.measure(ev.Kind, func() { r.svc.Cancel(t) })
	case timer.OpRunEnter:
		var msec int
		r.measure(timer.OpIssueMsec, func() { msec = r.svc.NextDeadlineMsec() })
		if msec == 0 {
			r.measure(timer.OpRunEnter, r.svc.Run)
		}
	}
}

func (r *replayer) replay(events []trace.Event) {
	r.align(events)
	for i := range events {
		r.step(&events[i])
	}
}

func (r *replayer) report(w io.Writer) {
	ops := make([]timer.Op, 0, len(r.stats))
	for op := range r.stats {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	for _, op := range ops {
		st := r.stats[op]
		name := op.String()
		if op == timer.OpRunEnter {
			name = "run"
		}
		fmt.Fprintf(w, "%-12s count=%-8d avg=%-10v max=%v\n",
			name, st.count, st.total/time.Duration(st.count), st.max)
	}
	fmt.Fprintf(w, "%-12s %d\n", "fired", r.svc.Fired())
	fmt.Fprintf(w, "%-12s %d\n", "pending", r.svc.Count())
}

// synthesize 生成一段随机负载, 在 span 毫秒的范围内启动, 取消和运行 n 个定时器
func synthesize(n int, span uint32, loops int, seed int64) []trace.Event {
	rng := rand.New(rand.NewSource(seed))
	if n <= 0 {
		n = 1
	}
	if span == 0 {
		span = 1
	}
	const start = 1000
	var stamp int64
	events := make([]trace.Event, 0, loops+1)
	events = append(events, trace.Event{Kind: timer.OpRunEnter, Sec: start})
	for i := 0; i < loops; i++ {
		ev := trace.Event{Seq: uint64(i + 1), Timer: int64(1 + rng.Intn(n))}
		switch r := rng.Intn(100); {
		case r < 55:
			ev.Kind = timer.OpArmMsec
			ev.Arg = int64(1 + rng.Int63n(int64(span)))
		case r < 65:
			ev.Kind = timer.OpArmSec
			ev.Arg = int64(1 + rng.Int63n(int64(span/1000+1)))
		case r < 80:
			ev.Kind = timer.OpCancel
		default:
			ev.Kind = timer.OpRunEnter
			ev.Timer = 0
			stamp += rng.Int63n(int64(span/8+1)) * int64(time.Millisecond)
		}
		ev.Stamp = stamp
		events = append(events, ev)
	}
	return events
}
