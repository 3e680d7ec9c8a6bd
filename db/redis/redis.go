package redis

import (
	"context"
	"strings"
	"time"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/framework/config"
	"github.com/fixkme/gotimer/mlog"
	"github.com/redis/go-redis/v9"
)

const (
	RedisMode_Single   = "single"
	RedisMode_Sentinel = "sentinel"
	RedisMode_Cluster  = "cluster"

	pingTimeout = 3 * time.Second
)

type RedisImpl struct {
	client  *redis.Client
	cluster *redis.ClusterClient
}

func NewRedis(ctx context.Context, mode string, opts any) (*RedisImpl, error) {
	db := &RedisImpl{}
	switch mode {
	case RedisMode_Cluster:
		db.cluster = redis.NewClusterClient(opts.(*redis.ClusterOptions))
	case RedisMode_Sentinel:
		db.client = redis.NewFailoverClient(opts.(*redis.FailoverOptions))
	default: // 默认single模式
		db.client = redis.NewClient(opts.(*redis.Options))
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.GetCmdable().Ping(ctx).Err(); err != nil {
		db.Stop()
		return nil, err
	}
	return db, nil
}

// Options 根据配置生成 NewRedis 需要的参数
func Options(conf *config.RedisConfig) (any, error) {
	if conf == nil || conf.RedisAddr == "" {
		return nil, errs.InvalidConfig.Print("redis_addr")
	}
	addrs := strings.Split(conf.RedisAddr, ",")
	switch conf.RedisMode {
	case RedisMode_Cluster:
		return &redis.ClusterOptions{
			Addrs:    addrs,
			Password: conf.RedisPassword,
		}, nil
	case RedisMode_Sentinel:
		return &redis.FailoverOptions{
			MasterName:    conf.RedisMasterName,
			SentinelAddrs: addrs,
			Password:      conf.RedisPassword,
			DB:            conf.RedisDB,
		}, nil
	case RedisMode_Single, "":
		return &redis.Options{
			Addr:     addrs[0],
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}, nil
	}
	return nil, errs.InvalidConfig.Printf("redis_mode=%s", conf.RedisMode)
}

func NewRedisFromConfig(ctx context.Context, conf *config.RedisConfig) (*RedisImpl, error) {
	opts, err := Options(conf)
	if err != nil {
		return nil, err
	}
	db, err := NewRedis(ctx, conf.RedisMode, opts)
	if err != nil {
		return nil, err
	}
	mlog.Infof("redis connected, mode=%s addr=%s", conf.RedisMode, conf.RedisAddr)
	return db, nil
}

func (db *RedisImpl) Client() *redis.Client {
	return db.client
}

func (db *RedisImpl) ClusterClient() *redis.ClusterClient {
	return db.cluster
}

func (db *RedisImpl) Stop() {
	if db.client != nil {
		db.client.Close()
	}
	if db.cluster != nil {
		db.cluster.Close()
	}
}

func (db *RedisImpl) GetCmdable() redis.Cmdable {
	if db.client != nil {
		return db.client
	}
	if db.cluster != nil {
		return db.cluster
	}
	return nil
}
