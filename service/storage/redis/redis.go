package redis

import (
	"context"
	"sync"
	"time"

	"SupportChat/tools/errs"

	"github.com/redis/go-redis/v9"
)

var (
	redisOnce sync.Once
	redisMgr  *RedisManager
)

type RedisManager struct {
	client *redis.Client
}

// Config 用于初始化 Redis；URL 非空时优先解析 URL
type Config struct {
	URL      string // redis://:password@host:6379/0
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func (c Config) options() (*redis.Options, error) {
	if c.URL != "" {
		opt, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, errs.WrapMsg(err, "parse redis url")
		}
		if c.PoolSize > 0 {
			opt.PoolSize = c.PoolSize
		}
		return opt, nil
	}
	if c.Addr == "" {
		return nil, errs.New("redis url or addr is required")
	}
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}, nil
}

// InitRedis 初始化 Redis 管理器（单例）
func InitRedis(c Config) (*redis.Client, error) {
	var initErr error
	redisOnce.Do(func() {
		opt, err := c.options()
		if err != nil {
			initErr = err
			return
		}
		rdb := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		// ping 失败不阻止启动，写入时返回 StoreUnavailable
		if err := rdb.Ping(ctx).Err(); err != nil {
			initErr = errs.WrapMsg(err, "redis ping", "addr", opt.Addr)
		}
		redisMgr = &RedisManager{client: rdb}
	})
	if redisMgr == nil {
		return nil, initErr
	}
	return redisMgr.client, initErr
}

// CloseRedis 关闭连接
func CloseRedis() error {
	if redisMgr != nil && redisMgr.client != nil {
		return redisMgr.client.Close()
	}
	return nil
}
