package config

import (
	"context"

	"SupportChat/data/database/mgo/mongoutil"
	"SupportChat/logger"
	mgoSrv "SupportChat/service/mgo"
	"SupportChat/service/natsx"
	redis "SupportChat/service/storage/redis"
	ids "SupportChat/tools/ids"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func ConfigLogger(c AppConfig) {
	logger.Init(logger.Options{Level: c.LogLevel, File: c.LogFile})
}

func ConfigIds(c AppConfig) {
	logger.Infof("配置id生成 node=%d", c.NodeId)
	ids.SetNodeID(c.NodeId)
}

// ConfigRedis ping 失败只打告警，客户端照常返回（go-redis 会自动重连）
func ConfigRedis(c AppConfig) (*goredis.Client, error) {
	cli, err := redis.InitRedis(redis.Config{
		URL:      c.RedisURL,
		PoolSize: c.RedisPoolSize,
	})
	if cli == nil {
		return nil, err
	}
	if err != nil {
		logger.Warn("[Redis] initial ping failed", zap.Error(err))
	}
	return cli, nil
}

// ConfigMgo 后台连接，不阻塞启动；连上之前存储层返回 StoreUnavailable
func ConfigMgo(ctx context.Context, c AppConfig) *mgoSrv.MongoManager {
	cfg := &mongoutil.Config{
		Uri:         c.MongoUri,
		Database:    c.MongoDatabase,
		MaxPoolSize: c.MongoMaxPoolSize,
		MaxRetry:    1, // StartAsync 里自己做了指数退避
		AppName:     c.Name,
	}
	mgoSrv.StartAsync(ctx, cfg)
	return mgoSrv.Manager()
}

// ConfigNats NATS_URL 为空时返回 nil，通知走进程内投递
func ConfigNats(c AppConfig) (*natsx.NatsxClient, error) {
	if c.NatsURL == "" {
		return nil, nil
	}
	return natsx.NewNatsxClient(natsx.NatsxConfig{
		Servers: natsx.ParseServers(c.NatsURL),
		Name:    c.Name,
	}, natsx.WithLogging(0))
}
