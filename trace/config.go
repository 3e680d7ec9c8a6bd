package trace

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/mlog"
)

// NewFromConfig 按配置挂载 sink, 没有配置任何 sink 时返回 nil
// 配置了 trace_stream 时 rdb 不能为空
func NewFromConfig(conf *config.TraceConfig, rdb redis.Cmdable) (rec *Recorder, ring *Ring, err error) {
	if conf.TraceRing <= 0 && conf.TraceFile == "" && !conf.TraceLog && conf.TraceStream == "" {
		return nil, nil, nil
	}
	rec = NewRecorder()
	if conf.TraceRing > 0 {
		ring = NewRing(conf.TraceRing)
		rec.AddSink(ring)
	}
	if conf.TraceLog {
		rec.AddSink(NewLogSink(mlog.DebugLevel))
	}
	if conf.TraceFile != "" {
		fs, err := NewFileSink(conf.TraceFile, rec.Session())
		if err != nil {
			return nil, nil, errors.Join(err, rec.Close())
		}
		rec.AddSink(fs)
	}
	if conf.TraceStream != "" {
		if rdb == nil {
			return nil, nil, errors.Join(errs.InvalidConfig.Print("trace_stream requires redis"), rec.Close())
		}
		rec.AddSink(NewRedisSink(rdb, conf.TraceStream, conf.TraceStreamMaxLen, rec.Session()))
	}
	mlog.Infof("trace session %s", rec.Session())
	return rec, ring, nil
}
