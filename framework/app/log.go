package app

import (
	"context"
	"sync"

	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/mlog"
)

// SetupLog 按配置选择日志实现
// 配置了 log_path 时写文件, 否则 log_zap 为真用 zap, 其余情况写标准输出
func SetupLog(ctx context.Context, wg *sync.WaitGroup, conf *config.LogConfig, debug bool) error {
	level := mlog.ParseLevel(conf.LogLevel)
	switch {
	case conf.LogPath != "":
		return mlog.UseDefaultLogger(ctx, wg, conf.LogPath, conf.LogName, level, conf.LogStdOut)
	case conf.LogZap:
		return mlog.UseZapLogger(level, debug)
	default:
		return mlog.UseStdLogger(level)
	}
}
