// Package time 提供单调时钟使用的 (秒, 纳秒) 时间值及其饱和运算
package time

import (
	"math"
	"time"

	"github.com/fixkme/gotimer/util"
)

const (
	SecMs   = 1000
	MsNsec  = 1000000
	SecNsec = 1000000000
)

// Timespec 与 struct timespec 对应, Nsec 必须在 [0, SecNsec) 内
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Max 可表示的最大时间
var Max = Timespec{Sec: math.MaxInt64, Nsec: SecNsec - 1}

func FromDuration(d time.Duration) Timespec {
	if d < 0 {
		return Timespec{}
	}
	return Timespec{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}

// Msec 构造 msec 毫秒长度的时间值
func Msec(msec uint32) Timespec {
	return Timespec{Sec: int64(msec / SecMs), Nsec: int64(msec%SecMs) * MsNsec}
}

func (t Timespec) Valid() bool {
	return t.Sec >= 0 && t.Nsec >= 0 && t.Nsec < SecNsec
}

func (t Timespec) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

func (t Timespec) Compare(o Timespec) int {
	switch {
	case t.Sec > o.Sec:
		return 1
	case t.Sec < o.Sec:
		return -1
	case t.Nsec > o.Nsec:
		return 1
	case t.Nsec < o.Nsec:
		return -1
	}
	return 0
}

func (t Timespec) After(o Timespec) bool  { return t.Compare(o) > 0 }
func (t Timespec) Before(o Timespec) bool { return t.Compare(o) < 0 }

// AddClamp 相加, 溢出时截断为 Max
func (t Timespec) AddClamp(d Timespec) Timespec {
	nsec := t.Nsec + d.Nsec
	carry := int64(0)
	if nsec >= SecNsec {
		nsec -= SecNsec
		carry = 1
	}
	sec, ok := util.AddInt64(t.Sec, d.Sec)
	if ok {
		sec, ok = util.AddInt64(sec, carry)
	}
	if !ok {
		return Max
	}
	return Timespec{Sec: sec, Nsec: nsec}
}

func (t Timespec) AddMsecClamp(msec uint32) Timespec {
	return t.AddClamp(Msec(msec))
}

func (t Timespec) AddSecClamp(sec uint32) Timespec {
	return t.AddClamp(Timespec{Sec: int64(sec)})
}

// Sub 返回 |t - o| 以及符号 (1, 0, -1)
func (t Timespec) Sub(o Timespec) (Timespec, int) {
	switch t.Compare(o) {
	case 1:
		return absdiff(t, o), 1
	case -1:
		return absdiff(o, t), -1
	}
	return Timespec{}, 0
}

func absdiff(higher, lower Timespec) Timespec {
	nsec := higher.Nsec - lower.Nsec
	if nsec < 0 {
		return Timespec{Sec: higher.Sec - lower.Sec - 1, Nsec: nsec + SecNsec}
	}
	return Timespec{Sec: higher.Sec - lower.Sec, Nsec: nsec}
}

// MsecUpperClamp 转换为毫秒(向上取整), 超出 int32 时截断为 math.MaxInt32
func (t Timespec) MsecUpperClamp() int32 {
	ms, ok := util.MulInt64(t.Sec, SecMs)
	if ok {
		ms, ok = util.AddInt64(ms, (t.Nsec+MsNsec-1)/MsNsec)
	}
	if !ok {
		return math.MaxInt32
	}
	return util.ClampInt32(ms)
}

// Duration 转换为 time.Duration, 超出范围时截断
func (t Timespec) Duration() time.Duration {
	ns, ok := util.MulInt64(t.Sec, SecNsec)
	if ok {
		ns, ok = util.AddInt64(ns, t.Nsec)
	}
	if !ok {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
