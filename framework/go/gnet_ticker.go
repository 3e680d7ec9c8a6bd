package g

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/fixkme/gotimer/mlog"
	"github.com/fixkme/gotimer/timer"
)

// gnet 的 ticker 不接受非正的间隔
const minTickDelay = time.Millisecond

// GnetTicker 用 gnet 的 OnTick 驱动 timer.Service
// OnTick 和 event-loop 不在同一协程，访问 Service 需经 Do 加锁
type GnetTicker struct {
	gnet.BuiltinEventEngine
	mu      sync.Mutex
	svc     *timer.Service
	maxWait time.Duration
	eng     gnet.Engine
	booted  chan struct{}
}

func NewGnetTicker(svc *timer.Service, maxWait time.Duration) *GnetTicker {
	if svc == nil {
		panic("gnet ticker: nil timer service")
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &GnetTicker{
		svc:     svc,
		maxWait: maxWait,
		booted:  make(chan struct{}),
	}
}

// Do 持锁在 Service 上执行 fn
func (t *GnetTicker) Do(fn func(svc *timer.Service)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.svc)
}

func (t *GnetTicker) OnBoot(eng gnet.Engine) gnet.Action {
	t.eng = eng
	close(t.booted)
	mlog.Debugf("gnet ticker boot, backend %v", t.svc.Backend())
	return gnet.None
}

// OnTick 执行到期定时器，返回距下一个截止时间的间隔
func (t *GnetTicker) OnTick() (delay time.Duration, action gnet.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.svc.Run()
	d, ok := t.svc.NextDelay()
	switch {
	case !ok || d > t.maxWait:
		d = t.maxWait
	case d < minTickDelay:
		d = minTickDelay
	}
	return d, gnet.None
}

// Serve 以 ticker 模式运行 gnet 直到 ctx 结束
func (t *GnetTicker) Serve(ctx context.Context, addr string, opts ...gnet.Option) error {
	errCh := make(chan error, 1)
	go func() {
		opts = append(opts, gnet.WithTicker(true))
		errCh <- gnet.Run(t, addr, opts...)
	}()

	select {
	case err := <-errCh:
		return err
	case <-t.booted:
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := t.eng.Stop(stopCtx); err != nil {
		mlog.Warnf("gnet ticker stop error: %v", err)
	}
	return <-errCh
}
