package trace

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/fixkme/gotimer/clock"
	"github.com/fixkme/gotimer/mlog"
	utime "github.com/fixkme/gotimer/time"
	"github.com/fixkme/gotimer/timer"
	"github.com/rs/xid"
)

// Sink 事件的输出端, Write 不能持有 ev
type Sink interface {
	Write(ev *Event) error
	Close() error
}

// Recorder 实现 timer.Tracer, 给事件编号后分发到各个 Sink.
// Sink 的错误只记录日志和计数, 不影响定时器.
type Recorder struct {
	session xid.ID
	seq     uint64
	sinks   []Sink
	errors  atomic.Int64
	ev      Event
	now     func() int64
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{
		session: xid.New(),
		sinks:   sinks,
		now:     func() int64 { return time.Now().UnixNano() },
	}
}

// StampWith 用 c 的时间给事件打时间戳, 回放手动时钟的负载时使用
func (r *Recorder) StampWith(c clock.Clock) {
	r.now = func() int64 {
		now := c.Now()
		return now.Sec*utime.SecNsec + now.Nsec
	}
}

// Session 本次记录的会话 id
func (r *Recorder) Session() string {
	return r.session.String()
}

func (r *Recorder) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Seq 已记录的事件数
func (r *Recorder) Seq() uint64 {
	return r.seq
}

func (r *Recorder) Errors() int64 {
	return r.errors.Load()
}

func (r *Recorder) Trace(rec *timer.Record) {
	r.seq++
	r.ev = Event{Seq: r.seq, Stamp: r.now()}
	r.ev.fromRecord(rec)
	for _, s := range r.sinks {
		if err := s.Write(&r.ev); err != nil {
			if r.errors.Add(1) == 1 || mlog.IsLevelEnabled(mlog.DebugLevel) {
				mlog.Warnf("trace session %s sink %T write error: %v", r.Session(), s, err)
			}
		}
	}
}

func (r *Recorder) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
