package g

import (
	"context"
	"sync"
	"time"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/timer"
)

const DefaultMaxWait = time.Second

// RoutineAgent 单协程事件循环，持有一个 timer.Service
// 定时器回调和提交的闭包都在 Run 所在的协程上执行
type RoutineAgent struct {
	*Go
	svc         *timer.Service
	maxWait     time.Duration
	closeSig    chan struct{}
	isClosed    bool
	mutex       sync.RWMutex
	beforeClose func()
}

func NewRoutineAgent(svc *timer.Service, taskChSize int, maxWait time.Duration) *RoutineAgent {
	if svc == nil {
		panic("routine agent: nil timer service")
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	a := &RoutineAgent{
		Go:       NewGoChan(taskChSize),
		svc:      svc,
		maxWait:  maxWait,
		closeSig: make(chan struct{}),
	}
	return a
}

func (a *RoutineAgent) Init(beforeClose func()) {
	a.beforeClose = beforeClose
}

// Service 只能在循环协程上使用
func (a *RoutineAgent) Service() *timer.Service {
	return a.svc
}

// wait 下次唤醒前的等待时长
func (a *RoutineAgent) wait() time.Duration {
	d, ok := a.svc.NextDelay()
	if !ok || d > a.maxWait {
		return a.maxWait
	}
	return d
}

func (a *RoutineAgent) Run() {
	defer a.onClose()

	wake := time.NewTimer(a.wait())
	defer wake.Stop()
	for {
		select {
		case <-a.closeSig:
			return
		case cb := <-a.Go.ChanCb:
			a.Go.Exec(cb)
		case <-wake.C:
		}
		a.Go.Exec(a.svc.Run)

		if !wake.Stop() {
			select {
			case <-wake.C:
			default:
			}
		}
		wake.Reset(a.wait())
	}
}

func (a *RoutineAgent) onClose() {
	if a.beforeClose != nil {
		a.beforeClose()
	}
	a.Go.Close()
	for cb := range a.Go.ChanCb {
		a.Go.Exec(cb)
	}
}

func (a *RoutineAgent) Close() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.isClosed {
		return
	}

	a.isClosed = true
	close(a.closeSig)
}

func (a *RoutineAgent) SyncRunFunc(f func()) (err error) {
	a.mutex.RLock()
	if a.isClosed {
		a.mutex.RUnlock()
		return errs.Closed
	}

	errCh := a.Go.SubmitWithResult(f)
	a.mutex.RUnlock()
	return <-errCh
}

func (a *RoutineAgent) CtxRunFunc(ctx context.Context, f func()) (err error) {
	a.mutex.RLock()
	if a.isClosed {
		a.mutex.RUnlock()
		return errs.Closed
	}

	errCh := a.Go.SubmitWithResult(f)
	a.mutex.RUnlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-errCh:
		return err
	}
}

func (a *RoutineAgent) TryRunFunc(f func()) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if a.isClosed {
		return errs.Closed
	}

	if !a.Go.TrySubmit(f) {
		return errs.Full
	}
	return nil
}

func (a *RoutineAgent) MustRunFunc(f func()) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if a.isClosed {
		return errs.Closed
	}

	a.Go.MustSubmit(f)
	return nil
}

// AfterMsec 在循环协程上创建并启动一个 msec 毫秒后触发的定时器
func (a *RoutineAgent) AfterMsec(msec uint32, fn timer.Func, data any) (t *timer.Timer, err error) {
	t = timer.New(fn, data)
	err = a.SyncRunFunc(func() {
		a.svc.ArmInMsec(t, msec)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CancelTimer 在循环协程上取消定时器
func (a *RoutineAgent) CancelTimer(t *timer.Timer) error {
	return a.SyncRunFunc(func() {
		a.svc.Cancel(t)
	})
}

// 以下实现 app.Module

func (a *RoutineAgent) OnInit() error {
	return nil
}

func (a *RoutineAgent) Destroy() {
	a.Close()
}

func (a *RoutineAgent) Name() string {
	return "timer-agent:" + a.svc.Backend().String()
}
