// timer-ptest 在各个后端上重放定时器负载并统计每种操作的耗时
//
//	timer-ptest -backend all -timers 10000 -span 60000 -loops 1000000
//	timer-ptest -backend hwheel -trace run.trace
//	timer-ptest -backend heap -timers 1000 -span 200 -live 10s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fixkme/gotimer/db/redis"
	"github.com/fixkme/gotimer/framework/app"
	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/mlog"
	"github.com/fixkme/gotimer/timer"
	"github.com/fixkme/gotimer/trace"
)

var (
	configFile = flag.String("config", "", "json config file")
	backend    = flag.String("backend", "", "list, hwheel, heap or all (default from config)")
	bits       = flag.Int("bits", -1, "tick subsecond bits 0~9 (default from config)")
	traceFile  = flag.String("trace", "", "replay a recorded trace file instead of a synthetic workload")
	timers     = flag.Int("timers", 1000, "synthetic workload: number of timers")
	span       = flag.Uint("span", 10000, "synthetic workload: max relative expiry in msec")
	seed       = flag.Int64("seed", 1, "synthetic workload: random seed")
	loops      = flag.Int("loops", 100000, "synthetic workload: number of operations")
	live       = flag.Duration("live", 0, "run -timers periodic timers on the real clock for this long instead of replaying")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "timer-ptest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadConfig(*configFile, config.LoadEnv); err != nil {
		return err
	}
	conf := config.Config
	if *bits >= 0 {
		conf.SubsecBits = *bits
	}
	all := *backend == "all"
	if *backend != "" && !all {
		conf.Backend = *backend
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
	}()
	if err := app.SetupLog(ctx, wg, &conf.LogConfig, conf.IsDebug); err != nil {
		return err
	}

	if *live > 0 {
		if all {
			return fmt.Errorf("-live needs a single backend")
		}
		return runLive(ctx, conf)
	}

	events, session, err := loadEvents()
	if err != nil {
		return err
	}
	runID := uuid.New()
	mlog.Infof("ptest run %s: %d events, session %q", runID, len(events), session)

	var cmd goredis.Cmdable
	if conf.TraceStream != "" {
		rdb, err := redis.NewRedisFromConfig(ctx, &conf.RedisConfig)
		if err != nil {
			return err
		}
		defer rdb.Stop()
		cmd = rdb.GetCmdable()
	}

	kinds := []timer.Kind{}
	if all {
		kinds = append(kinds, timer.List, timer.HWheel, timer.Heap)
	} else {
		kind, _ := conf.Kind()
		kinds = append(kinds, kind)
	}
	for _, kind := range kinds {
		if err := replayOn(kind, conf, cmd, events, runID); err != nil {
			return err
		}
	}
	return nil
}

func runLive(ctx context.Context, conf *config.AppConfig) error {
	var cmd goredis.Cmdable
	if conf.TraceStream != "" {
		rdb, err := redis.NewRedisFromConfig(ctx, &conf.RedisConfig)
		if err != nil {
			return err
		}
		defer rdb.Stop()
		cmd = rdb.GetCmdable()
	}
	rec, _, err := trace.NewFromConfig(&conf.TraceConfig, cmd)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.Close()
	}
	return liveRun(ctx, os.Stdout, conf, rec, *timers, uint32(*span), *seed, *live, uuid.New())
}

func loadEvents() ([]trace.Event, string, error) {
	if *traceFile == "" {
		return synthesize(*timers, uint32(*span), *loops, *seed), "synthetic", nil
	}
	f, err := os.Open(*traceFile)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	var events []trace.Event
	session, err := trace.Decode(f, func(ev *trace.Event) error {
		events = append(events, *ev)
		return nil
	})
	return events, session, err
}

func replayOn(kind timer.Kind, conf *config.AppConfig, cmd goredis.Cmdable, events []trace.Event, runID uuid.UUID) error {
	rec, _, err := trace.NewFromConfig(&conf.TraceConfig, cmd)
	if err != nil {
		return err
	}
	prec, _ := conf.Precision()
	r, err := newReplayer(kind, prec, rec)
	if err != nil {
		return err
	}
	r.replay(events)

	fmt.Printf("== run %s backend %s precision %s\n", runID, kind, prec)
	r.report(os.Stdout)
	if rec != nil {
		if err := rec.Close(); err != nil {
			mlog.Warnf("trace close: %v", err)
		}
		mlog.Infof("trace session %s: %d events, %d sink errors", rec.Session(), rec.Seq(), rec.Errors())
	}
	return nil
}
