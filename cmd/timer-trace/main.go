// timer-trace 打印 trace 文件或 redis stream 中的定时器事件
//
//	timer-trace -file run.trace
//	timer-trace -stream gotimer:trace -session cn0g3b1ld8rg00c1tq6g -redis 127.0.0.1:6379
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fixkme/gotimer/db/redis"
	"github.com/fixkme/gotimer/framework/app"
	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/timer"
	"github.com/fixkme/gotimer/trace"
)

var (
	configFile = flag.String("config", "", "json config file")
	file       = flag.String("file", "", "trace file written by the file sink")
	stream     = flag.String("stream", "", "redis stream written by the redis sink")
	session    = flag.String("session", "", "only dump events of this session (stream only)")
	redisAddr  = flag.String("redis", "", "redis address, overrides config")
	summary    = flag.Bool("summary", false, "only print per kind counts")
)

func main() {
	flag.Parse()
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "timer-trace: %v\n", err)
		os.Exit(1)
	}
}

type dumper struct {
	w       io.Writer
	summary bool
	counts  map[timer.Op]int
	total   int
}

func newDumper(w io.Writer, summary bool) *dumper {
	return &dumper{w: w, summary: summary, counts: make(map[timer.Op]int)}
}

func (d *dumper) event(ev *trace.Event) error {
	d.total++
	d.counts[ev.Kind]++
	if d.summary {
		return nil
	}
	_, err := fmt.Fprintln(d.w, ev.String())
	return err
}

func (d *dumper) done(session string) {
	fmt.Fprintf(d.w, "session %s: %d events\n", session, d.total)
	for op := timer.OpArmTspec; op <= timer.OpExpire; op++ {
		if n := d.counts[op]; n > 0 {
			fmt.Fprintf(d.w, "  %-12s %d\n", op, n)
		}
	}
}

func run(w io.Writer) error {
	if (*file == "") == (*stream == "") {
		return fmt.Errorf("exactly one of -file and -stream is required")
	}
	if err := config.LoadConfig(*configFile, config.LoadEnv); err != nil {
		return err
	}
	conf := config.Config

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
	}()
	if err := app.SetupLog(ctx, wg, &conf.LogConfig, conf.IsDebug); err != nil {
		return err
	}

	d := newDumper(w, *summary)
	if *file != "" {
		return dumpFile(*file, d)
	}

	if *redisAddr != "" {
		conf.RedisAddr = *redisAddr
	}
	rdb, err := redis.NewRedisFromConfig(ctx, &conf.RedisConfig)
	if err != nil {
		return err
	}
	defer rdb.Stop()
	if err := trace.ReadStream(ctx, rdb.GetCmdable(), *stream, *session, d.event); err != nil {
		return err
	}
	d.done(*session)
	return nil
}

func dumpFile(path string, d *dumper) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	session, err := trace.Decode(f, d.event)
	if err != nil {
		return err
	}
	d.done(session)
	return nil
}
