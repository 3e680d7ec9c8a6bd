package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/tick"
	"github.com/fixkme/gotimer/timer"
)

var Config *AppConfig

type AppConfig struct {
	TimerConfig `json:",inline" mapstructure:",inline"`
	LogConfig   `json:",inline" mapstructure:",inline"`
	TraceConfig `json:",inline" mapstructure:",inline"`
	LoopConfig  `json:",inline" mapstructure:",inline"`
	RedisConfig `json:",inline" mapstructure:",inline"`
	IsDebug     bool `json:"is_debug" mapstructure:"is_debug"`
}

type TimerConfig struct {
	SubsecBits int    `json:"subsec_bits" mapstructure:"subsec_bits"` //tick精度 0~9, 每秒 2^bits 个tick
	Backend    string `json:"backend" mapstructure:"backend"`         //list, hwheel, heap
}

type LogConfig struct {
	LogPath   string `json:"log_path" mapstructure:"log_path"`
	LogName   string `json:"log_name" mapstructure:"log_name"`
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogStdOut bool   `json:"log_std_out" mapstructure:"log_std_out"`
	LogZap    bool   `json:"log_zap" mapstructure:"log_zap"` //使用zap输出
}

type TraceConfig struct {
	TraceRing         int    `json:"trace_ring" mapstructure:"trace_ring"`                 //内存中保留的事件数, 0表示不保留
	TraceFile         string `json:"trace_file" mapstructure:"trace_file"`                 //二进制trace文件
	TraceLog          bool   `json:"trace_log" mapstructure:"trace_log"`                   //事件写到日志
	TraceStream       string `json:"trace_stream" mapstructure:"trace_stream"`             //redis stream名字, 需要配置redis
	TraceStreamMaxLen int64  `json:"trace_stream_max_len" mapstructure:"trace_stream_max_len"`
}

type LoopConfig struct {
	TaskChanSize int `json:"task_chan_size" mapstructure:"task_chan_size"` //任务队列长度
	MaxWaitMsec  int `json:"max_wait_msec" mapstructure:"max_wait_msec"`   //没有定时器时最长等待 毫秒
}

type RedisConfig struct {
	RedisMode       string `json:"redis_mode" mapstructure:"redis_mode"`
	RedisAddr       string `json:"redis_addr" mapstructure:"redis_addr"` // 多个地址用,隔开
	RedisMasterName string `json:"redis_master_name" mapstructure:"redis_master_name"`
	RedisPassword   string `json:"redis_password" mapstructure:"redis_password"`
	RedisDB         int    `json:"redis_db" mapstructure:"redis_db"`
}

func Default() *AppConfig {
	return &AppConfig{
		TimerConfig: TimerConfig{SubsecBits: tick.DefaultSubsecBits, Backend: timer.HWheel.String()},
		LogConfig:   LogConfig{LogName: "gotimer", LogLevel: "info", LogStdOut: true},
		LoopConfig:  LoopConfig{TaskChanSize: 10240, MaxWaitMsec: 1000},
	}
}

// LoadConfig 先用默认值, 然后依次用配置文件和环境变量覆盖
func LoadConfig(configFile string, loadConfigFromEnv func(*AppConfig) error) error {
	conf := Default()
	if len(configFile) != 0 {
		if err := loadConfigFromFile(configFile, conf); err != nil {
			return err
		}
	}
	if loadConfigFromEnv != nil {
		if err := loadConfigFromEnv(conf); err != nil {
			return err
		}
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	Config = conf
	return nil
}

func loadConfigFromFile(configFile string, conf *AppConfig) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, conf); err != nil {
		return errs.InvalidConfig.Wrap(err)
	}
	return nil
}

// LoadEnv 读取 GOTIMER_ 开头的环境变量
func LoadEnv(conf *AppConfig) error {
	strs := map[string]*string{
		"GOTIMER_BACKEND":      &conf.Backend,
		"GOTIMER_LOG_PATH":     &conf.LogPath,
		"GOTIMER_LOG_LEVEL":    &conf.LogLevel,
		"GOTIMER_TRACE_FILE":   &conf.TraceFile,
		"GOTIMER_TRACE_STREAM": &conf.TraceStream,
		"GOTIMER_REDIS_MODE":   &conf.RedisMode,
		"GOTIMER_REDIS_ADDR":   &conf.RedisAddr,
	}
	for key, p := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*p = v
		}
	}
	ints := map[string]*int{
		"GOTIMER_SUBSEC_BITS":   &conf.SubsecBits,
		"GOTIMER_TRACE_RING":    &conf.TraceRing,
		"GOTIMER_MAX_WAIT_MSEC": &conf.MaxWaitMsec,
	}
	for key, p := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errs.InvalidConfig.Printf("%s=%s", key, v)
			}
			*p = n
		}
	}
	return nil
}

func (conf *AppConfig) Validate() error {
	if _, err := conf.Precision(); err != nil {
		return err
	}
	if _, err := conf.Kind(); err != nil {
		return err
	}
	if conf.TaskChanSize <= 0 || conf.MaxWaitMsec <= 0 {
		return errs.InvalidConfig.Printf("task_chan_size=%d max_wait_msec=%d", conf.TaskChanSize, conf.MaxWaitMsec)
	}
	if conf.TraceStream != "" && conf.RedisAddr == "" {
		return errs.InvalidConfig.Print("trace_stream requires redis_addr")
	}
	return nil
}

func (conf *TimerConfig) Precision() (tick.Precision, error) {
	return tick.NewPrecision(conf.SubsecBits)
}

func (conf *TimerConfig) Kind() (timer.Kind, error) {
	return timer.ParseKind(conf.Backend)
}

func (conf *AppConfig) JsonFormat() string {
	if conf == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
