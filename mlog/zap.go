package mlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	*zap.SugaredLogger
	level Level
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case FatalLevel:
		return zapcore.FatalLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case NoticeLevel, InfoLevel:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func newZapLogger(level Level, development bool) (*zapLogger, error) {
	var conf zap.Config
	if development {
		conf = zap.NewDevelopmentConfig()
	} else {
		conf = zap.NewProductionConfig()
	}
	conf.Level = zap.NewAtomicLevelAt(zapLevel(level))
	l, err := conf.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &zapLogger{SugaredLogger: l.Sugar(), level: level}, nil
}

func (l *zapLogger) IsLevelEnabled(level Level) bool {
	return l.level >= level
}

// zap 没有 trace/notice, 分别映射到 debug/info
func (l *zapLogger) Trace(v ...any) {
	if l.IsLevelEnabled(TraceLevel) {
		l.SugaredLogger.Debug(v...)
	}
}

func (l *zapLogger) Tracef(format string, v ...any) {
	if l.IsLevelEnabled(TraceLevel) {
		l.SugaredLogger.Debugf(format, v...)
	}
}

func (l *zapLogger) Notice(v ...any) {
	l.SugaredLogger.Info(v...)
}

func (l *zapLogger) Noticef(format string, v ...any) {
	l.SugaredLogger.Infof(format, v...)
}
