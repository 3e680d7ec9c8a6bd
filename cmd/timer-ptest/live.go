package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fixkme/gotimer/clock"
	"github.com/fixkme/gotimer/framework/app"
	"github.com/fixkme/gotimer/framework/config"
	g "github.com/fixkme/gotimer/framework/go"
	"github.com/fixkme/gotimer/mlog"
	"github.com/fixkme/gotimer/timer"
	"github.com/fixkme/gotimer/trace"
)

// liveRun 用真实时钟在 RoutineAgent 上跑 n 个周期性定时器, 持续 d
func liveRun(ctx context.Context, w io.Writer, conf *config.AppConfig, rec *trace.Recorder, n int, span uint32, seed int64, d time.Duration, runID uuid.UUID) error {
	kind, err := conf.Kind()
	if err != nil {
		return err
	}
	prec, err := conf.Precision()
	if err != nil {
		return err
	}
	clk := clock.Default()
	opts := []timer.Option{timer.WithPrecision(prec), timer.WithClock(clk)}
	if rec != nil {
		opts = append(opts, timer.WithTracer(rec))
	}
	svc, err := timer.NewService(kind, opts...)
	if err != nil {
		return err
	}
	agent := g.NewRoutineAgent(svc, conf.TaskChanSize, time.Duration(conf.MaxWaitMsec)*time.Millisecond)

	if span == 0 {
		span = 1
	}
	rng := rand.New(rand.NewSource(seed))
	var late opStat // 回调相对截止时间的延迟, 只在循环协程上修改
	expire := func(t *timer.Timer) {
		diff, sign := clk.Now().Sub(t.Deadline())
		if sign > 0 {
			late.add(diff.Duration())
		} else {
			late.add(0)
		}
		svc.ArmInMsec(t, uint32(1+rng.Int63n(int64(span))))
	}
	agent.Init(func() {
		fmt.Fprintf(w, "== live %s backend %s precision %s pending %d\n", runID, kind, prec, svc.Count())
	})

	// 循环协程还没启动, 可以直接操作 svc
	for i := 0; i < n; i++ {
		svc.ArmInMsec(timer.New(expire, i), uint32(1+rng.Int63n(int64(span))))
	}

	runCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	if err := app.NewApp().Run(runCtx, agent); err != nil {
		return err
	}

	fmt.Fprintf(w, "%-12s %d\n", "fired", svc.Fired())
	if late.count > 0 {
		fmt.Fprintf(w, "%-12s avg=%v max=%v\n", "lateness", late.total/time.Duration(late.count), late.max)
	}
	mlog.Infof("live run %s done, %d timers fired", runID, svc.Fired())
	return nil
}
