package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixkme/gotimer/clock"
	utime "github.com/fixkme/gotimer/time"
	"github.com/fixkme/gotimer/timer"
	"github.com/fixkme/gotimer/trace"
)

func writeTrace(t *testing.T, path string) string {
	rec := trace.NewRecorder()
	fs, err := trace.NewFileSink(path, rec.Session())
	require.NoError(t, err)
	rec.AddSink(fs)

	clk := clock.NewManual(utime.Timespec{Sec: 1})
	s := timer.MustService(timer.HWheel, timer.WithClock(clk), timer.WithTracer(rec))
	a := timer.New(func(*timer.Timer) {}, nil)
	s.ArmInMsec(a, 250)
	clk.AdvanceMsec(250)
	s.Run()
	require.NoError(t, rec.Close())
	return rec.Session()
}

func TestDumpFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	session := writeTrace(t, path)

	var out bytes.Buffer
	d := newDumper(&out, false)
	require.NoError(t, dumpFile(path, d))
	text := out.String()
	assert.Contains(t, text, "arm_msec timer=1")
	assert.Contains(t, text, "expire timer=1")
	assert.Contains(t, text, "session "+session+": 4 events")
	assert.Equal(t, 1, d.counts[timer.OpExpire])

	out.Reset()
	d = newDumper(&out, true)
	require.NoError(t, dumpFile(path, d))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 5)

	assert.Error(t, dumpFile(filepath.Join(t.TempDir(), "missing"), d))
}
