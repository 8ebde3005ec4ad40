package mgo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	mgo "SupportChat/data/database/mgo/mongoutil"
	"SupportChat/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second // 健康检查周期
	failThresh  = 3                // 连续失败阈值
)

type MongoManager struct {
	mu        sync.RWMutex
	client    *mgo.Client
	readyCh   chan struct{} // 首次就绪通知；只会被 close 一次
	readyOnce sync.Once
	doneCh    chan struct{}

	lastErr atomic.Value // error
}

func NewManager() *MongoManager {
	return &MongoManager{
		readyCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

var globalMgr = NewManager()

func Manager() *MongoManager {
	return globalMgr
}

// StartAsync 在全局 manager 上启动
func StartAsync(ctx context.Context, cfg *mgo.Config) {
	globalMgr.StartAsync(ctx, cfg)
}

// StartAsync 一直运行到 ctx.Done()；首次连上时 close readyCh，后续掉线会自动重连
func (m *MongoManager) StartAsync(ctx context.Context, cfg *mgo.Config) {
	go func() {
		defer close(m.doneCh)
		for {
			if !m.connect(ctx, cfg) {
				return
			}
			if !m.watch(ctx) {
				return
			}
			// 健康检查失败，回到连接阶段
		}
	}()
}

// connect 带退避重试，ctx 结束返回 false
func (m *MongoManager) connect(ctx context.Context, cfg *mgo.Config) bool {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		cli, err := mgo.NewMongoDB(ctx, cfg)
		if err == nil {
			m.mu.Lock()
			m.client = cli
			m.mu.Unlock()
			m.readyOnce.Do(func() {
				logger.Info("[Mongo] connected", zap.String("database", cfg.Database))
				close(m.readyCh)
			})
			return true
		}

		m.lastErr.Store(err)
		logger.Warn("[Mongo] connect failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		// 退避 + 抖动
		backoff := baseBackoff << attempt
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(rand.Int63n(int64(backoff / 5))) // 0~20%
		timer := time.NewTimer(backoff - jitter/2)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		if attempt < 6 {
			attempt++
		}
	}
}

// watch 健康检查阶段；ctx 结束返回 false，掉线返回 true 触发重连
func (m *MongoManager) watch(ctx context.Context) bool {
	fail := 0
	ticker := time.NewTicker(healthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.disconnect()
			return false
		case <-ticker.C:
			db, ok := m.TryGetDB()
			if !ok {
				return true
			}
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := db.Client().Ping(pctx, nil)
			cancel()
			if err == nil {
				fail = 0
				continue
			}
			fail++
			m.lastErr.Store(err)
			if fail >= failThresh {
				logger.Warn("[Mongo] health check failed, reconnecting", zap.Error(err))
				m.disconnect()
				return true
			}
		}
	}
}

func (m *MongoManager) disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = m.client.Disconnect(ctx)
		cancel()
		m.client = nil
	}
}

// Ready 首次连接成功时会 close；可 select 等待
func (m *MongoManager) Ready() <-chan struct{} {
	return m.readyCh
}

// Done 后台循环退出（已断开）后 close
func (m *MongoManager) Done() <-chan struct{} {
	return m.doneCh
}

// Err 最近一次错误
func (m *MongoManager) Err() error {
	if v := m.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (m *MongoManager) TryGetDB() (*mongo.Database, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, false
	}
	return m.client.GetDB(), true
}

func TryGetDB() (*mongo.Database, bool) {
	return globalMgr.TryGetDB()
}

func (m *MongoManager) WaitReady(ctx context.Context) error {
	if _, ok := m.TryGetDB(); ok {
		return nil
	}
	if m.readyCh == nil {
		return fmt.Errorf("mongo manager not started")
	}
	select {
	case <-m.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
