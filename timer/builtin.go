package timer

import (
	"sync"

	utime "github.com/fixkme/gotimer/time"
)

var (
	builtinService *Service
	onec           sync.Once
	builtinOpts    []Option
	builtinKind    = HWheel
)

// Setup 设置进程默认 Service 的参数, 必须在第一次使用 Default 之前调用
func Setup(kind Kind, opts ...Option) {
	builtinKind = kind
	builtinOpts = opts
}

// Default 进程默认的 Service, 同样只能在一个 goroutine 里使用
func Default() *Service {
	onec.Do(func() {
		builtinService = MustService(builtinKind, builtinOpts...)
	})
	return builtinService
}

func ArmAt(t *Timer, at utime.Timespec) {
	Default().ArmAt(t, at)
}

func ArmInMsec(t *Timer, msec uint32) {
	Default().ArmInMsec(t, msec)
}

func ArmInSec(t *Timer, sec uint32) {
	Default().ArmInSec(t, sec)
}

func Cancel(t *Timer) {
	Default().Cancel(t)
}

func NextDeadlineMsec() int {
	return Default().NextDeadlineMsec()
}

func Run() {
	Default().Run()
}
