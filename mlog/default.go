package mlog

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
)

// fileLogger 异步写文件, 由 lumberjack 负责按大小滚动
type fileLogger struct {
	levelWriter
	rotater *lumberjack.Logger
	ll      *log.Logger
	buff    chan string
	stdOut  bool
}

func newDefaultLogger(logpath, logName string, level Level, stdOut bool) (*fileLogger, error) {
	// 默认使用当前路径
	if len(logpath) == 0 {
		logpath = "."
	}
	if err := os.MkdirAll(logpath, 0755); err != nil {
		return nil, err
	}
	rotater := &lumberjack.Logger{
		Filename:   filepath.Join(logpath, genLogName(logName)),
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		LocalTime:  true,
	}
	if stdOut {
		log.SetFlags(log.Ldate | log.Lmicroseconds)
	}
	l := &fileLogger{
		rotater: rotater,
		ll:      log.New(rotater, "", log.Ldate|log.Lmicroseconds),
		buff:    make(chan string, 0x10000),
		stdOut:  stdOut,
	}
	l.level = level
	l.out = func(line string) { l.buff <- line }
	return l, nil
}

func (me *fileLogger) write(str string) {
	if me.stdOut {
		log.Println(str)
	}
	me.ll.Println(str)
}

func (me *fileLogger) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("mlog recover error %v\n", r)
			}
			me.rotater.Close()
			wg.Done()
		}()

		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case str := <-me.buff:
						me.write(str)
					default:
						return
					}
				}
			case str := <-me.buff:
				me.write(str)
			}
		}
	}()
}

// Fatal 需要等缓冲写完再退出
func (me *fileLogger) Fatal(v ...any) {
	me.Log(FatalLevel, v...)
	time.Sleep(time.Second)
	os.Exit(1)
}

func (me *fileLogger) Fatalf(format string, v ...any) {
	me.Logf(FatalLevel, format, v...)
	time.Sleep(time.Second)
	os.Exit(1)
}

func genLogName(logName string) string {
	if logName == "" {
		logName = "mlog"
	}
	return logName + ".log"
}
