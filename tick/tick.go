// Package tick converts monotonic time values to and from fixed point tick
// counts.
//
// A tick lasts 1/(2^bits) second where bits is the sub-second precision of a
// Precision value:
//
//	bits  period (ms)  frequency (Hz)
//	   0  1000.000000               1
//	   1   500.000000               2
//	   2   250.000000               4
//	   3   125.000000               8
//	   4    62.500000              16
//	   5    31.250000              32
//	   6    15.625000              64
//	   7     7.812500             128
//	   8     3.906250             256
//	   9     1.953125             512
//
// The period must divide one second exactly so that conversions are plain
// shifts and masks, hence bits may not exceed MaxSubsecBits.
package tick

import (
	"fmt"
	"math"

	"github.com/fixkme/gotimer/errs"
	utime "github.com/fixkme/gotimer/time"
	"github.com/fixkme/gotimer/util"
)

// Tick counts sub-second units since the epoch of the clock it was read from.
type Tick int64

const (
	// Max is the largest encodable tick, so that Tick >> bits always fits
	// a Timespec second field.
	Max Tick = math.MaxInt64

	MaxSubsecBits = 9

	// DefaultSubsecBits gives a 256 Hz tick.
	DefaultSubsecBits = 8
)

// Precision is the sub-second bit width of ticks.
type Precision uint8

func NewPrecision(bits int) (Precision, error) {
	if bits < 0 || bits > MaxSubsecBits {
		return 0, errs.InvalidPrecision.Printf("bits=%d", bits)
	}
	return Precision(bits), nil
}

func MustPrecision(bits int) Precision {
	p, err := NewPrecision(bits)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Precision) Bits() uint {
	return uint(p)
}

func (p Precision) Valid() bool {
	return p <= MaxSubsecBits
}

// Nsec is the tick period in nanoseconds.
func (p Precision) Nsec() int64 {
	return utime.SecNsec >> p
}

func (p Precision) PerSec() int64 {
	return 1 << p
}

func (p Precision) Mask() int64 {
	return (1 << p) - 1
}

// MaxSec is the largest Timespec second value that converts to a tick.
func (p Precision) MaxSec() int64 {
	return int64(Max) >> p
}

func (p Precision) String() string {
	return fmt.Sprintf("%dHz", p.PerSec())
}

func (p Precision) check(t utime.Timespec) {
	if !p.Valid() {
		panic(fmt.Sprintf("tick: invalid precision %d", uint8(p)))
	}
	if !t.Valid() {
		panic(fmt.Sprintf("tick: invalid timespec {%d %d}", t.Sec, t.Nsec))
	}
}

// FromTimeLower converts t rounding down to the previous tick boundary.
func (p Precision) FromTimeLower(t utime.Timespec) (Tick, error) {
	p.check(t)
	if t.Sec > p.MaxSec() {
		return 0, errs.Range.Printf("sec=%d", t.Sec)
	}
	return Tick(t.Sec<<p | t.Nsec/p.Nsec()), nil
}

// FromTimeUpper converts t rounding up to the next tick boundary.
func (p Precision) FromTimeUpper(t utime.Timespec) (Tick, error) {
	p.check(t)
	if t.Sec <= p.MaxSec() {
		period := p.Nsec()
		tk, ok := util.AddInt64(t.Sec<<p, (t.Nsec+period-1)/period)
		if ok {
			return Tick(tk), nil
		}
	}
	return 0, errs.Range.Printf("sec=%d nsec=%d", t.Sec, t.Nsec)
}

// FromTimeLowerClamp is FromTimeLower saturating to Max on range error.
func (p Precision) FromTimeLowerClamp(t utime.Timespec) Tick {
	tk, err := p.FromTimeLower(t)
	if err != nil {
		return Max
	}
	return tk
}

// FromTimeUpperClamp is FromTimeUpper saturating to Max on range error.
func (p Precision) FromTimeUpperClamp(t utime.Timespec) Tick {
	tk, err := p.FromTimeUpper(t)
	if err != nil {
		return Max
	}
	return tk
}

// ToTime is the exact inverse of FromTimeLower.
func (p Precision) ToTime(tk Tick) utime.Timespec {
	if tk < 0 {
		panic(fmt.Sprintf("tick: negative tick %d", tk))
	}
	return utime.Timespec{
		Sec:  int64(tk) >> p,
		Nsec: (int64(tk) & p.Mask()) * p.Nsec(),
	}
}
