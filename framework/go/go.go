package g

import (
	"sync/atomic"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/mlog"
)

const (
	minChanSize = 1024
	maxChanSize = 102400
)

// Go 任务队列，闭包在消费协程上串行执行
type Go struct {
	ChanCb       chan func()
	panicHandler func(r any)
	closed       atomic.Bool
}

func NewGoChan(size int) *Go {
	if size < minChanSize {
		size = minChanSize
	} else if size > maxChanSize {
		size = maxChanSize
	}

	g := new(Go)
	g.ChanCb = make(chan func(), size)
	g.panicHandler = func(r any) {
		mlog.Errorf("go run panic: %v", r)
	}
	return g
}

func (g *Go) SetPanicHandler(f func(r any)) {
	if f != nil {
		g.panicHandler = f
	}
}

func (g *Go) Closed() bool {
	return g.closed.Load()
}

func (g *Go) Close() {
	if g.closed.CompareAndSwap(false, true) {
		close(g.ChanCb)
	}
}

// SubmitWithResult errCh 在 f 执行完后关闭，提交失败时写入错误
func (g *Go) SubmitWithResult(f func()) (errCh chan error) {
	errCh = make(chan error, 1)
	call := func() {
		if g.closed.Load() {
			errCh <- errs.Closed
			return
		}
		defer close(errCh)
		g.Exec(f)
	}
	select {
	case g.ChanCb <- call:
	default:
		errCh <- errs.Full
	}
	return
}

func (g *Go) TrySubmit(f func()) (ok bool) {
	call := func() {
		if g.closed.Load() {
			return
		}
		f()
	}
	select {
	case g.ChanCb <- call:
		return true
	default:
		return false
	}
}

func (g *Go) MustSubmit(f func()) {
	g.ChanCb <- func() {
		if g.closed.Load() {
			return
		}
		f()
	}
}

func (g *Go) Exec(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			g.panicHandler(r)
		}
	}()

	cb()
}
