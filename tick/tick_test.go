package tick

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/fixkme/gotimer/errs"
	utime "github.com/fixkme/gotimer/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrecision(t *testing.T) {
	for bits := 0; bits <= MaxSubsecBits; bits++ {
		p, err := NewPrecision(bits)
		require.NoError(t, err)
		assert.Equal(t, int64(utime.SecNsec), p.Nsec()*p.PerSec(), "bits=%d", bits)
	}
	_, err := NewPrecision(10)
	assert.True(t, errors.Is(err, errs.InvalidPrecision))
	_, err = NewPrecision(-1)
	assert.True(t, errors.Is(err, errs.InvalidPrecision))
	assert.Panics(t, func() { MustPrecision(12) })
}

func TestConversions(t *testing.T) {
	p := MustPrecision(2) // 250ms
	cases := []struct {
		ts    utime.Timespec
		lower Tick
		upper Tick
	}{
		{utime.Timespec{}, 0, 0},
		{utime.Timespec{Sec: 1}, 4, 4},
		{utime.Timespec{Sec: 1, Nsec: 1}, 4, 5},
		{utime.Timespec{Sec: 1, Nsec: 250000000}, 5, 5},
		{utime.Timespec{Sec: 1, Nsec: 999999999}, 7, 8},
		{utime.Timespec{Sec: 3, Nsec: 600000000}, 14, 15},
	}
	for _, c := range cases {
		lo, err := p.FromTimeLower(c.ts)
		require.NoError(t, err)
		up, err := p.FromTimeUpper(c.ts)
		require.NoError(t, err)
		assert.Equal(t, c.lower, lo, "%+v", c.ts)
		assert.Equal(t, c.upper, up, "%+v", c.ts)
	}
	assert.Equal(t, utime.Timespec{Sec: 3, Nsec: 500000000}, p.ToTime(14))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for bits := 0; bits <= MaxSubsecBits; bits++ {
		p := MustPrecision(bits)
		ticks := []Tick{0, 1, Tick(p.Mask()), Tick(p.PerSec()), Max - 1, Max}
		for i := 0; i < 256; i++ {
			ticks = append(ticks, Tick(r.Int63()))
		}
		for _, tk := range ticks {
			got, err := p.FromTimeLower(p.ToTime(tk))
			require.NoError(t, err)
			assert.Equal(t, tk, got, "bits=%d", bits)
		}
	}
}

func TestMonotonicRounding(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for bits := 0; bits <= MaxSubsecBits; bits++ {
		p := MustPrecision(bits)
		for i := 0; i < 256; i++ {
			ts := utime.Timespec{Sec: r.Int63n(1 << 40), Nsec: r.Int63n(utime.SecNsec)}
			if i%4 == 0 {
				ts.Nsec -= ts.Nsec % p.Nsec()
			}
			lo := p.FromTimeLowerClamp(ts)
			up := p.FromTimeUpperClamp(ts)
			if ts.Nsec%p.Nsec() == 0 {
				assert.Equal(t, lo, up)
			} else {
				assert.Equal(t, lo+1, up)
			}
		}
	}
}

func TestRange(t *testing.T) {
	p := MustPrecision(9)
	_, err := p.FromTimeLower(utime.Timespec{Sec: p.MaxSec() + 1})
	assert.True(t, errors.Is(err, errs.Range))

	tk, err := p.FromTimeLower(utime.Timespec{Sec: p.MaxSec(), Nsec: utime.SecNsec - 1})
	require.NoError(t, err)
	assert.Equal(t, Max, tk)

	// rounding the last second up overflows
	_, err = p.FromTimeUpper(utime.Timespec{Sec: p.MaxSec(), Nsec: utime.SecNsec - 1})
	assert.True(t, errors.Is(err, errs.Range))
	assert.Equal(t, Max, p.FromTimeUpperClamp(utime.Max))
	assert.Equal(t, Max, p.FromTimeLowerClamp(utime.Max))

	p0 := MustPrecision(0)
	assert.Equal(t, Tick(math.MaxInt64), p0.FromTimeLowerClamp(utime.Timespec{Sec: math.MaxInt64}))
}

func TestInvalidInput(t *testing.T) {
	p := MustPrecision(4)
	assert.Panics(t, func() { _, _ = p.FromTimeLower(utime.Timespec{Sec: -1}) })
	assert.Panics(t, func() { _, _ = p.FromTimeUpper(utime.Timespec{Nsec: utime.SecNsec}) })
	assert.Panics(t, func() { p.ToTime(-1) })
}
