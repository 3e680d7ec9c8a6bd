package timer

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/fixkme/gotimer/clock"
	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/tick"
	utime "github.com/fixkme/gotimer/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{List, HWheel, Heap}

func newTestService(t *testing.T, kind Kind, bits int) (*Service, *clock.Manual) {
	clk := clock.NewManual(utime.Timespec{Sec: 100})
	s, err := NewService(kind, WithPrecision(tick.MustPrecision(bits)), WithClock(clk))
	require.NoError(t, err)
	return s, clk
}

func forEachKind(t *testing.T, fn func(t *testing.T, kind Kind)) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			fn(t, kind)
		})
	}
}

// recorder 记录回调触发的定时器
type recorder struct {
	fired []string
}

func (r *recorder) timer(name string) *Timer {
	return New(func(t *Timer) {
		r.fired = append(r.fired, t.Data.(string))
	}, name)
}

func (r *recorder) take() []string {
	fired := r.fired
	r.fired = nil
	sort.Strings(fired)
	return fired
}

func TestNewService(t *testing.T) {
	_, err := NewService(Kind(9))
	assert.ErrorIs(t, err, errs.InvalidBackend)
	_, err = NewService(List, WithPrecision(tick.Precision(10)))
	assert.ErrorIs(t, err, errs.InvalidPrecision)

	s, err := NewService(Heap, WithPrecision(tick.MustPrecision(3)))
	require.NoError(t, err)
	assert.Equal(t, Heap, s.Backend())
	assert.Equal(t, uint(3), s.Precision().Bits())
	assert.Same(t, clock.Default(), s.Clock())
	assert.True(t, s.Now().Valid())
}

func TestParseKind(t *testing.T) {
	for _, kind := range allKinds {
		k, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, k)
	}
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, HWheel, k)
	_, err = ParseKind("skiplist")
	assert.ErrorIs(t, err, errs.InvalidBackend)
}

func TestOneHertzScenario(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 0)
		r := &recorder{}
		a, b, c := r.timer("A"), r.timer("B"), r.timer("C")
		s.ArmInSec(a, 3)
		s.ArmInSec(b, 1)
		s.ArmInSec(c, 3)
		assert.Equal(t, 3, s.Count())

		clk.AdvanceMsec(1000)
		assert.Equal(t, 0, s.NextDeadlineMsec())
		s.Run()
		assert.Equal(t, []string{"B"}, r.take())
		assert.Equal(t, 2, s.Count())
		assert.Equal(t, Idle, b.State())

		clk.AdvanceMsec(2000)
		s.Run()
		assert.Equal(t, []string{"A", "C"}, r.take())
		assert.Equal(t, 0, s.Count())
		assert.Equal(t, -1, s.NextDeadlineMsec())
	})
}

func TestNoEarlyFire(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		tm := r.timer("t")
		s.ArmInMsec(tm, 1000)
		assert.Equal(t, tick.Tick(101<<8), tm.Tick())
		assert.Equal(t, utime.Timespec{Sec: 101}, tm.Deadline())

		clk.AdvanceMsec(999)
		s.Run()
		assert.Empty(t, r.take())
		assert.True(t, tm.Pending())

		clk.AdvanceMsec(1)
		s.Run()
		assert.Equal(t, []string{"t"}, r.take())
		assert.Equal(t, Idle, tm.State())

		// 只触发一次
		clk.AdvanceMsec(5000)
		s.Run()
		assert.Empty(t, r.take())
	})
}

func TestDeadlineRoundsUp(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 2)
		r := &recorder{}
		tm := r.timer("t")
		// 100.3s 向上取整到 100.5s
		s.ArmAt(tm, utime.Timespec{Sec: 100, Nsec: 300 * utime.MsNsec})
		assert.Equal(t, tick.Tick(100<<2|2), tm.Tick())

		clk.AdvanceMsec(300)
		s.Run()
		assert.Empty(t, r.take())
		clk.AdvanceMsec(200)
		s.Run()
		assert.Equal(t, []string{"t"}, r.take())
	})
}

func TestArmInPast(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		other := r.timer("other")
		s.ArmInMsec(other, 10)
		clk.AdvanceMsec(20)
		s.Run()
		assert.Equal(t, []string{"other"}, r.take())

		late := r.timer("late")
		s.ArmAt(late, utime.Timespec{Sec: 50})
		assert.Equal(t, 0, s.NextDeadlineMsec())
		s.Run()
		assert.Equal(t, []string{"late"}, r.take())
		assert.Equal(t, 0, s.Count())
	})
}

func TestCancel(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		a, b := r.timer("a"), r.timer("b")

		// 从未启动过
		s.Cancel(a)
		assert.Equal(t, 0, s.Count())

		s.ArmInMsec(a, 100)
		s.ArmInMsec(b, 200)
		s.Cancel(a)
		assert.Equal(t, Idle, a.State())
		assert.Equal(t, 1, s.Count())
		s.Cancel(a)
		assert.Equal(t, 1, s.Count())

		tk, ok := s.NextDeadlineTick()
		require.True(t, ok)
		assert.Equal(t, b.Tick(), tk)

		clk.AdvanceMsec(500)
		s.Run()
		assert.Equal(t, []string{"b"}, r.take())

		s.Cancel(b)
		assert.Equal(t, 0, s.Count())
		_, ok = s.NextDeadlineTick()
		assert.False(t, ok)
	})
}

func TestRearmPending(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		a, b := r.timer("a"), r.timer("b")
		s.ArmInMsec(a, 100)
		s.ArmInMsec(b, 300)

		// 推迟到 b 之后
		s.ArmInMsec(a, 400)
		assert.Equal(t, 2, s.Count())
		tk, _ := s.NextDeadlineTick()
		assert.Equal(t, b.Tick(), tk)

		// 提前
		s.ArmInMsec(a, 50)
		tk, _ = s.NextDeadlineTick()
		assert.Equal(t, a.Tick(), tk)

		// 同一 tick 重复启动
		s.ArmInMsec(a, 50)
		assert.Equal(t, 2, s.Count())

		clk.AdvanceMsec(100)
		s.Run()
		assert.Equal(t, []string{"a"}, r.take())
		clk.AdvanceMsec(250)
		s.Run()
		assert.Equal(t, []string{"b"}, r.take())
	})
}

func TestRearmInCallback(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		n := 0
		var tm *Timer
		tm = New(func(self *Timer) {
			n++
			assert.Equal(t, Running, self.State())
			if n < 3 {
				s.ArmInMsec(self, 500)
			}
		}, nil)
		s.ArmInMsec(tm, 500)

		clk.AdvanceMsec(500)
		s.Run()
		assert.Equal(t, 1, n)
		assert.Equal(t, Pending, tm.State())
		assert.Equal(t, 1, s.Count())

		clk.AdvanceMsec(499)
		s.Run()
		assert.Equal(t, 1, n)

		clk.AdvanceMsec(1)
		s.Run()
		assert.Equal(t, 2, n)
		assert.True(t, tm.Pending())

		clk.AdvanceMsec(500)
		s.Run()
		assert.Equal(t, 3, n)
		assert.Equal(t, Idle, tm.State())
		assert.Equal(t, 0, s.Count())
	})
}

func TestCancelInCallback(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		victim := r.timer("victim")
		self := New(func(tm *Timer) {
			s.Cancel(tm)
			s.Cancel(victim)
		}, nil)
		s.ArmInMsec(self, 10)
		s.ArmInMsec(victim, 20)

		clk.AdvanceMsec(20)
		s.Run()
		assert.Equal(t, Idle, self.State())
		assert.Equal(t, Idle, victim.State())
		assert.Equal(t, 0, s.Count())
		assert.Equal(t, -1, s.NextDeadlineMsec())

		clk.AdvanceMsec(100)
		s.Run()
		assert.Empty(t, r.take())
	})
}

func TestCallbackArmsOther(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		b := r.timer("b")
		a := New(func(tm *Timer) {
			r.fired = append(r.fired, "a")
			s.ArmAt(b, tm.Deadline())
		}, nil)
		s.ArmInMsec(a, 20)
		clk.AdvanceMsec(30)
		s.Run()
		assert.Equal(t, []string{"a", "b"}, r.take())
		assert.Equal(t, 0, s.Count())
	})
}

func TestTies(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		r := &recorder{}
		want := make([]string, 0, 100)
		for i := 0; i < 100; i++ {
			name := fmt.Sprintf("t%03d", i)
			s.ArmInMsec(r.timer(name), 250)
			want = append(want, name)
		}
		s.ArmInMsec(r.timer("later"), 260)
		clk.AdvanceMsec(250)
		s.Run()
		assert.Equal(t, want, r.take())
		assert.Equal(t, 1, s.Count())
	})
}

func TestNextDeadlineMsec(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 8)
		assert.Equal(t, -1, s.NextDeadlineMsec())
		_, ok := s.NextDelay()
		assert.False(t, ok)

		r := &recorder{}
		a := r.timer("a")
		s.ArmInMsec(a, 1500)
		assert.Equal(t, 1500, s.NextDeadlineMsec())
		at, ok := s.NextDeadline()
		require.True(t, ok)
		assert.Equal(t, utime.Timespec{Sec: 101, Nsec: 500 * utime.MsNsec}, at)

		// 1ms 向上取整到一个 tick (3.90625ms)
		b := r.timer("b")
		s.ArmInMsec(b, 1)
		assert.Equal(t, 4, s.NextDeadlineMsec())
		d, ok := s.NextDelay()
		require.True(t, ok)
		assert.Equal(t, int64(3906250), d.Nanoseconds())

		clk.AdvanceMsec(10)
		assert.Equal(t, 0, s.NextDeadlineMsec())
		d, _ = s.NextDelay()
		assert.Zero(t, d)
		s.Run()
		assert.Equal(t, []string{"b"}, r.take())

		s.Cancel(a)
		far := r.timer("far")
		s.ArmAt(far, utime.Timespec{Sec: 1 << 40})
		assert.Equal(t, math.MaxInt32, s.NextDeadlineMsec())
	})
}

func TestClampToMax(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 9)
		r := &recorder{}
		tm := r.timer("max")
		s.ArmAt(tm, utime.Max)
		assert.Equal(t, tick.Max, tm.Tick())
		tk, ok := s.NextDeadlineTick()
		require.True(t, ok)
		assert.Equal(t, tick.Max, tk)

		clk.Advance(1 << 40)
		s.Run()
		assert.Empty(t, r.take())
		assert.Equal(t, 1, s.Count())
	})
}

// 覆盖时间轮的各层边界以及 eternal 链表
func TestLevelBoundaries(t *testing.T) {
	offsets := []int64{1, 2, 63, 64, 65, 127, 4095, 4096, 4097, 262143, 262144, 262145,
		16777215, 16777216, 16777217, 40000000, 1 << 30}
	forEachKind(t, func(t *testing.T, kind Kind) {
		s, clk := newTestService(t, kind, 0)
		r := &recorder{}
		for _, off := range offsets {
			s.ArmInSec(r.timer(fmt.Sprint(off)), uint32(off))
		}
		base := int64(100)
		for _, off := range offsets {
			tk, ok := s.NextDeadlineTick()
			require.True(t, ok)
			require.Equal(t, tick.Tick(base+off), tk, "offset %d", off)

			clk.Set(utime.Timespec{Sec: base + off - 1})
			s.Run()
			require.Empty(t, r.take(), "offset %d", off)
			clk.Set(utime.Timespec{Sec: base + off})
			s.Run()
			require.Equal(t, []string{fmt.Sprint(off)}, r.take())
		}
		assert.Equal(t, 0, s.Count())
	})
}

func TestWheelLevels(t *testing.T) {
	assert.Equal(t, 4, wheelLevels(tick.MustPrecision(0)))
	assert.Equal(t, 4, wheelLevels(tick.MustPrecision(4)))
	assert.Equal(t, 5, wheelLevels(tick.MustPrecision(5)))
	assert.Equal(t, 5, wheelLevels(tick.MustPrecision(9)))

	s, clk := newTestService(t, HWheel, 8)
	w := s.be.(*hwheel)
	r := &recorder{}
	near, mid, eternal := r.timer("near"), r.timer("mid"), r.timer("eternal")
	s.ArmInMsec(near, 100)
	s.ArmInSec(mid, 3600)
	s.ArmInSec(eternal, 5000000)
	assert.Equal(t, int8(0), near.level)
	assert.Equal(t, int8(3), mid.level)
	assert.Equal(t, int8(_LEVEL_ETERNAL), eternal.level)
	assert.Equal(t, 1, w.eternal.Len())

	clk.AdvanceMsec(3600 * 1000)
	s.Run()
	assert.Equal(t, []string{"mid", "near"}, r.take())
	tk, _ := s.NextDeadlineTick()
	assert.Equal(t, eternal.Tick(), tk)

	clk.Advance(5000000 * 1e9)
	s.Run()
	assert.Equal(t, []string{"eternal"}, r.take())
	assert.Equal(t, 0, s.Count())
}

func TestWheelIssueCache(t *testing.T) {
	s, _ := newTestService(t, HWheel, 8)
	w := s.be.(*hwheel)
	r := &recorder{}
	a, b := r.timer("a"), r.timer("b")
	s.ArmInMsec(a, 10)
	s.ArmInMsec(b, 20000)
	tk, _ := s.NextDeadlineTick()
	assert.Equal(t, a.Tick(), tk)
	assert.Equal(t, a.Tick(), w.next)

	s.Cancel(a)
	assert.LessOrEqual(t, w.next, w.tick)
	tk, _ = s.NextDeadlineTick()
	assert.Equal(t, b.Tick(), tk)
}

func TestContractViolations(t *testing.T) {
	s, _ := newTestService(t, List, 8)
	other, _ := newTestService(t, List, 8)
	assert.Panics(t, func() { s.ArmInMsec(nil, 1) })
	assert.Panics(t, func() { s.Cancel(nil) })
	assert.Panics(t, func() { s.ArmInMsec(&Timer{}, 1) })
	assert.Panics(t, func() { New(nil, nil) })
	assert.Panics(t, func() { s.ArmAt(New(func(*Timer) {}, nil), utime.Timespec{Nsec: -1}) })

	tm := New(func(*Timer) {}, nil)
	s.ArmInMsec(tm, 1)
	assert.Equal(t, int64(1), tm.ID())
	assert.Panics(t, func() { other.ArmInMsec(tm, 1) })
	assert.Panics(t, func() { other.Cancel(tm) })
}

func TestReentrantRun(t *testing.T) {
	s, clk := newTestService(t, Heap, 8)
	tm := New(func(*Timer) { s.Run() }, nil)
	s.ArmInMsec(tm, 0)
	clk.AdvanceMsec(1)
	assert.Panics(t, func() { s.Run() })
}

func TestTracer(t *testing.T) {
	var ops []Op
	clk := clock.NewManual(utime.Timespec{Sec: 100})
	s := MustService(List, WithClock(clk), WithTracer(TracerFunc(func(r *Record) {
		ops = append(ops, r.Op)
	})))
	tm := New(func(*Timer) {}, nil)
	s.ArmAt(tm, utime.Timespec{Sec: 101})
	s.ArmInMsec(tm, 10)
	s.ArmInSec(tm, 1)
	s.NextDeadline()
	s.NextDeadlineMsec()
	clk.AdvanceMsec(1000)
	s.Run()
	s.Cancel(tm)
	assert.Equal(t, []Op{OpArmTspec, OpArmMsec, OpArmSec, OpIssueTspec, OpIssueMsec,
		OpRunEnter, OpExpire, OpRunExit, OpCancel}, ops)
	assert.Equal(t, int64(1), s.Fired())
	assert.Equal(t, "run_exit", OpRunExit.String())
	assert.False(t, Op(0).Valid())
}

// 相同的操作序列在三种后端上的执行结果必须一致
func runScript(t *testing.T, kind Kind, seed int64) []string {
	const n = 64
	s, clk := newTestService(t, kind, 8)
	rnd := rand.New(rand.NewSource(seed))
	var fired []int64
	hits := make([]int, n)
	timers := make([]*Timer, n)
	for i := range timers {
		i := i
		timers[i] = New(func(tm *Timer) {
			fired = append(fired, tm.ID())
			hits[i]++
			if hits[i]%3 == 1 {
				s.ArmInMsec(tm, uint32(1+i*37))
			}
		}, i)
	}

	var out []string
	for step := 0; step < 4000; step++ {
		tm := timers[rnd.Intn(n)]
		switch op := rnd.Intn(20); {
		case op < 8:
			s.ArmInMsec(tm, uint32(rnd.Intn(5000)))
		case op < 10:
			s.ArmInSec(tm, uint32(rnd.Intn(7200)))
		case op < 11:
			s.ArmAt(tm, clk.Now().AddMsecClamp(uint32(rnd.Intn(100000))))
		case op < 14:
			s.Cancel(tm)
		case op < 15:
			clk.AdvanceMsec(uint32(rnd.Intn(3600000)))
			fallthrough
		default:
			clk.AdvanceMsec(uint32(rnd.Intn(300)))
			fired = fired[:0]
			s.Run()
			sort.Slice(fired, func(i, j int) bool { return fired[i] < fired[j] })
			out = append(out, fmt.Sprintf("run %v", fired))
		}
		tk, ok := s.NextDeadlineTick()
		out = append(out, fmt.Sprintf("issue %d %v count %d", tk, ok, s.Count()))
	}
	return out
}

func TestBackendEquivalence(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		want := runScript(t, List, seed)
		assert.Equal(t, want, runScript(t, HWheel, seed), "seed %d", seed)
		assert.Equal(t, want, runScript(t, Heap, seed), "seed %d", seed)
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Same(t, s, Default())
	assert.Equal(t, HWheel, s.Backend())
	tm := New(func(*Timer) {}, nil)
	ArmInSec(tm, 3600)
	assert.True(t, tm.Pending())
	assert.GreaterOrEqual(t, NextDeadlineMsec(), 0)
	Cancel(tm)
	Run()
	assert.Equal(t, Idle, tm.State())
}
