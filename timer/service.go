package timer

import (
	"fmt"
	"time"

	"github.com/fixkme/gotimer/clock"
	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/mlog"
	"github.com/fixkme/gotimer/tick"
	utime "github.com/fixkme/gotimer/time"
)

type options struct {
	prec   tick.Precision
	clk    clock.Clock
	tracer Tracer
}

type Option func(*options)

// WithPrecision tick 精度, 默认 tick.DefaultSubsecBits
func WithPrecision(p tick.Precision) Option {
	return func(o *options) {
		o.prec = p
	}
}

// WithClock 时钟源, 默认 clock.Default()
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clk = c
	}
}

func WithTracer(tr Tracer) Option {
	return func(o *options) {
		o.tracer = tr
	}
}

// Service 一个独立的定时器域. 非并发安全, 所有方法必须在同一个 goroutine 调用.
type Service struct {
	prec    tick.Precision
	clk     clock.Clock
	kind    Kind
	be      backend
	genId   int64
	tracer  Tracer
	rec     Record
	now     utime.Timespec // 最近一次采样
	running bool
	fired   int64
}

func NewService(kind Kind, opts ...Option) (*Service, error) {
	o := &options{prec: tick.DefaultSubsecBits}
	for _, opt := range opts {
		opt(o)
	}
	if !o.prec.Valid() {
		return nil, errs.InvalidPrecision.Printf("bits=%d", uint8(o.prec))
	}
	if !kind.valid() {
		return nil, errs.InvalidBackend.Printf("kind=%d", uint8(kind))
	}
	if o.clk == nil {
		o.clk = clock.Default()
	}
	s := &Service{
		prec:   o.prec,
		clk:    o.clk,
		kind:   kind,
		tracer: o.tracer,
	}
	switch kind {
	case List:
		s.be = newListBackend(s)
	case HWheel:
		s.be = newHWheel(s)
	case Heap:
		s.be = newHeapBackend(s)
	}
	if mlog.IsLevelEnabled(mlog.DebugLevel) {
		mlog.Debugf("timer service created, backend=%s precision=%s", kind, o.prec)
	}
	return s, nil
}

func MustService(kind Kind, opts ...Option) *Service {
	s, err := NewService(kind, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Service) Backend() Kind {
	return s.kind
}

func (s *Service) Precision() tick.Precision {
	return s.prec
}

func (s *Service) Clock() clock.Clock {
	return s.clk
}

// Now 读取时钟
func (s *Service) Now() utime.Timespec {
	return s.clk.Now()
}

// Count 等待中的定时器数量
func (s *Service) Count() int {
	return s.be.count()
}

// Fired 累计执行过的回调数
func (s *Service) Fired() int64 {
	return s.fired
}

// load 采样时钟并转换为 tick, 超出范围时截断为 tick.Max
func (s *Service) load() tick.Tick {
	s.now = s.clk.Now()
	return s.prec.FromTimeLowerClamp(s.now)
}

func (s *Service) bind(t *Timer) {
	if t == nil {
		panic("timer: nil timer")
	}
	if t.fn == nil {
		panic("timer: timer without expiry func")
	}
	switch t.svc {
	case s:
	case nil:
		s.genId++
		t.id = s.genId
		t.svc = s
	default:
		panic(fmt.Sprintf("timer: timer %d belongs to another service", t.id))
	}
}

func (s *Service) arm(t *Timer, deadline utime.Timespec) {
	t.deadline = deadline
	s.be.arm(t, s.prec.FromTimeUpperClamp(deadline))
}

// ArmAt 在单调时间 at 到期, at 早于当前时间的在下次 Run 时执行
func (s *Service) ArmAt(t *Timer, at utime.Timespec) {
	if !at.Valid() {
		panic(fmt.Sprintf("timer: invalid deadline {%d %d}", at.Sec, at.Nsec))
	}
	s.bind(t)
	s.arm(t, at)
	s.trace(OpArmTspec, t.id, t.tick, t.deadline, 0)
}

// ArmInMsec 从现在起 msec 毫秒后到期
func (s *Service) ArmInMsec(t *Timer, msec uint32) {
	s.bind(t)
	s.arm(t, s.clk.Now().AddMsecClamp(msec))
	s.trace(OpArmMsec, t.id, t.tick, t.deadline, int64(msec))
}

// ArmInSec 从现在起 sec 秒后到期
func (s *Service) ArmInSec(t *Timer, sec uint32) {
	s.bind(t)
	s.arm(t, s.clk.Now().AddSecClamp(sec))
	s.trace(OpArmSec, t.id, t.tick, t.deadline, int64(sec))
}

// Cancel 取消等待中的定时器, 其他状态下什么也不做.
// 回调里取消自己不起作用, 回调返回后定时器回到 Idle.
func (s *Service) Cancel(t *Timer) {
	if t == nil {
		panic("timer: nil timer")
	}
	if t.svc == nil {
		return
	}
	if t.svc != s {
		panic(fmt.Sprintf("timer: timer %d belongs to another service", t.id))
	}
	prev := t.state
	if prev == Pending {
		s.be.cancel(t)
		t.state = Idle
	}
	s.trace(OpCancel, t.id, t.tick, t.deadline, int64(prev))
}

// NextDeadlineTick 最早的到期 tick
func (s *Service) NextDeadlineTick() (tick.Tick, bool) {
	return s.be.issue()
}

// NextDeadline 最早的到期时间, 不会早于任何定时器请求的时间
func (s *Service) NextDeadline() (utime.Timespec, bool) {
	tk, ok := s.be.issue()
	if !ok {
		s.trace(OpIssueTspec, 0, 0, utime.Timespec{}, -1)
		return utime.Timespec{}, false
	}
	at := s.prec.ToTime(tk)
	s.trace(OpIssueTspec, 0, tk, at, 0)
	return at, true
}

// NextDeadlineMsec 距离下次到期的毫秒数(向上取整), 已到期返回 0, 没有定时器返回 -1.
// 超出 int32 的截断为 math.MaxInt32, 可以直接作为 poll 的超时参数.
func (s *Service) NextDeadlineMsec() int {
	msec := -1
	tk, ok := s.be.issue()
	now := s.clk.Now()
	if ok {
		diff, sign := s.prec.ToTime(tk).Sub(now)
		if sign > 0 {
			msec = int(diff.MsecUpperClamp())
		} else {
			msec = 0
		}
	}
	s.trace(OpIssueMsec, 0, tk, now, int64(msec))
	return msec
}

// NextDelay 与 NextDeadlineMsec 相同, 以 time.Duration 表示
func (s *Service) NextDelay() (time.Duration, bool) {
	tk, ok := s.be.issue()
	if !ok {
		return 0, false
	}
	diff, sign := s.prec.ToTime(tk).Sub(s.clk.Now())
	if sign <= 0 {
		return 0, true
	}
	return diff.Duration(), true
}

// Run 执行所有已到期的定时器. 不能在回调里调用.
func (s *Service) Run() {
	if s.running {
		panic("timer: reentrant run")
	}
	s.running = true
	defer func() {
		s.running = false
	}()

	fired := s.fired
	s.trace(OpRunEnter, 0, 0, s.clk.Now(), int64(s.be.count()))
	s.be.run()
	s.trace(OpRunExit, 0, 0, s.now, s.fired-fired)
}

// fire 执行到期回调, 定时器已经从后端摘下. 回调里没有重新 Arm 时返回 true.
func (s *Service) fire(t *Timer, now tick.Tick) bool {
	s.fired++
	s.trace(OpExpire, t.id, t.tick, s.now, int64(now))
	return t.expire()
}
