package trace

import "github.com/fixkme/gotimer/mlog"

// LogSink 把事件写到 mlog
type LogSink struct {
	level mlog.Level
}

func NewLogSink(level mlog.Level) *LogSink {
	return &LogSink{level: level}
}

func (s *LogSink) Write(ev *Event) error {
	if !mlog.IsLevelEnabled(s.level) {
		return nil
	}
	switch s.level {
	case mlog.TraceLevel:
		mlog.Tracef("timer %s", ev)
	case mlog.DebugLevel:
		mlog.Debugf("timer %s", ev)
	default:
		mlog.Infof("timer %s", ev)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
