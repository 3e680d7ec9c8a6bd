package mlog

import (
	"fmt"
	"log"
	"os"
)

// levelWriter 按级别过滤并格式化, 具体输出由 out 决定
type levelWriter struct {
	level Level
	out   func(line string)
}

func (l *levelWriter) IsLevelEnabled(level Level) bool {
	return l.level >= level
}

func (l *levelWriter) Log(level Level, args ...any) {
	if l.IsLevelEnabled(level) {
		l.out(getLevelTag(level) + fmt.Sprint(args...))
	}
}

func (l *levelWriter) Logf(level Level, format string, args ...any) {
	if l.IsLevelEnabled(level) {
		if len(format) == 0 {
			l.out(getLevelTag(level) + fmt.Sprint(args...))
		} else {
			l.out(getLevelTag(level) + fmt.Sprintf(format, args...))
		}
	}
}

func (l *levelWriter) Trace(v ...any)                 { l.Log(TraceLevel, v...) }
func (l *levelWriter) Tracef(format string, v ...any) { l.Logf(TraceLevel, format, v...) }
func (l *levelWriter) Debug(v ...any)                 { l.Log(DebugLevel, v...) }
func (l *levelWriter) Debugf(format string, v ...any) { l.Logf(DebugLevel, format, v...) }
func (l *levelWriter) Info(v ...any)                  { l.Log(InfoLevel, v...) }
func (l *levelWriter) Infof(format string, v ...any)  { l.Logf(InfoLevel, format, v...) }
func (l *levelWriter) Notice(v ...any)                { l.Log(NoticeLevel, v...) }
func (l *levelWriter) Noticef(format string, v ...any) {
	l.Logf(NoticeLevel, format, v...)
}
func (l *levelWriter) Warn(v ...any)                  { l.Log(WarnLevel, v...) }
func (l *levelWriter) Warnf(format string, v ...any)  { l.Logf(WarnLevel, format, v...) }
func (l *levelWriter) Error(v ...any)                 { l.Log(ErrorLevel, v...) }
func (l *levelWriter) Errorf(format string, v ...any) { l.Logf(ErrorLevel, format, v...) }

func (l *levelWriter) Fatal(v ...any) {
	l.Log(FatalLevel, v...)
	os.Exit(1)
}

func (l *levelWriter) Fatalf(format string, v ...any) {
	l.Logf(FatalLevel, format, v...)
	os.Exit(1)
}

type stdoutLogger struct {
	levelWriter
}

func newStdoutLogger(level Level) *stdoutLogger {
	log.SetFlags(log.Ldate | log.Lmicroseconds)
	l := &stdoutLogger{}
	l.level = level
	l.out = func(line string) { log.Println(line) }
	return l
}

func getLevelTag(level Level) string {
	switch level {
	case FatalLevel:
		return "[fatal] "
	case ErrorLevel:
		return "[error] "
	case WarnLevel:
		return "[warn] "
	case NoticeLevel:
		return "[notice] "
	case InfoLevel:
		return "[info] "
	case DebugLevel:
		return "[debug] "
	case TraceLevel:
		return "[trace] "
	}
	return ""
}
