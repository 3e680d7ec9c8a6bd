package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/fixkme/gotimer/mlog"
)

// 进程全局状态
const (
	AppStateNone = iota // 未开始或已停止
	AppStateInit        // 正在初始化中
	AppStateRun         // 正在运行中
	AppStateStop        // 正在停止中
)

var defaultApp = NewApp()

type Module interface {
	OnInit() error // 初始化
	Destroy()      // 销毁
	Run()          // 启动, 阻塞到 Destroy 被调用
	Name() string  // 名字
}

// DefaultApp 默认单例
func DefaultApp() *App {
	return defaultApp
}

// App 中的 modules 在 Start 之后不能变更
type App struct {
	mods  []Module
	state atomic.Int32
	sig   chan os.Signal
	wg    sync.WaitGroup
}

func NewApp() *App {
	return &App{sig: make(chan os.Signal, 1)}
}

func (app *App) GetState() int32 {
	return app.state.Load()
}

// Start 初始化并启动所有模块, 任一模块初始化失败时已初始化的模块按逆序销毁
func (app *App) Start(mods ...Module) error {
	if !app.state.CompareAndSwap(AppStateNone, AppStateInit) {
		return fmt.Errorf("app cannot start twice, state %d", app.GetState())
	}
	mlog.Info("app starting up")
	for i, mi := range mods {
		if err := mi.OnInit(); err != nil {
			for j := i - 1; j >= 0; j-- {
				destroy(mods[j])
			}
			app.state.Store(AppStateNone)
			return fmt.Errorf("module %s init error: %w", mi.Name(), err)
		}
	}
	app.mods = mods
	for _, mi := range app.mods {
		app.wg.Add(1)
		go func(mi Module) {
			defer app.wg.Done()
			mi.Run()
		}(mi)
	}
	app.state.Store(AppStateRun)
	mlog.Info("app started")
	return nil
}

// Stop 先进后出销毁模块并等待所有 Run 返回
func (app *App) Stop() {
	if !app.state.CompareAndSwap(AppStateRun, AppStateStop) {
		return
	}
	mlog.Info("app stop begin")
	for i := len(app.mods) - 1; i >= 0; i-- {
		mi := app.mods[i]
		mlog.Infof("app stop module %s", mi.Name())
		destroy(mi)
	}
	app.wg.Wait()
	app.mods = nil
	app.state.Store(AppStateNone)
	mlog.Info("app stoped")
}

func destroy(mi Module) {
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("%s module destroy panic: %v\n%s", mi.Name(), r, debug.Stack())
		}
	}()

	mi.Destroy()
}

// Run 启动模块, 阻塞到收到退出信号或 ctx 结束, SIGHUP 被忽略
func (app *App) Run(ctx context.Context, mods ...Module) error {
	if err := app.Start(mods...); err != nil {
		return err
	}
	signal.Notify(app.sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(app.sig)
loop:
	for {
		select {
		case <-ctx.Done():
			mlog.Infof("app closing down (%v)", ctx.Err())
			break loop
		case sig := <-app.sig:
			mlog.Infof("app closing down (signal: %v)", sig)
			if sig != syscall.SIGHUP {
				break loop
			}
		}
	}

	app.Stop()
	return nil
}

// Shutdown 通知 Run 退出
func (app *App) Shutdown() {
	select {
	case app.sig <- syscall.SIGTERM:
	default:
	}
}
