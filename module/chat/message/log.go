// Package message 群聊消息日志：Redis 列表做 write-behind 缓冲，Mongo 持久化，读时合并。
package message

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"SupportChat/logger"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
	"SupportChat/tools/safe"

	"go.uber.org/zap"
)

const (
	DefaultThreshold  = 20
	DefaultInterval   = 10 * time.Second
	DefaultQueryLimit = 20
	flushTimeout      = 15 * time.Second
)

type Options struct {
	Threshold int           // 缓冲区长度达到阈值触发 flush
	Interval  time.Duration // 定时 flush，兜底达不到阈值的缓冲区
}

type Log struct {
	buf   Buffer
	store Store
	opts  Options

	flushing atomic.Bool

	mu     sync.Mutex // 保护 closed 与 async.Go，保证 Wait 之后不再 Add
	closed bool
	async  safe.Group
}

func NewLog(buf Buffer, store Store, opts Options) *Log {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Log{buf: buf, store: store, opts: opts}
}

// Append 只写缓冲区，不等待 Mongo
func (l *Log) Append(ctx context.Context, m model.Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errs.WrapMsg(err, "encode message")
	}
	return l.buf.Push(ctx, raw)
}

// MaybeFlush 长度达到阈值才 flush
func (l *Log) MaybeFlush(ctx context.Context) (int, error) {
	n, err := l.buf.Len(ctx)
	if err != nil {
		return 0, err
	}
	if n < int64(l.opts.Threshold) {
		return 0, nil
	}
	return l.Flush(ctx)
}

// FlushAsync 在后台 goroutine 里 MaybeFlush，调用方不阻塞；Wait 可等待全部完成。
// Run 进入收尾后调用为空操作，剩余缓冲由收尾 flush 处理。
func (l *Log) FlushAsync(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	base := context.WithoutCancel(ctx)
	l.async.Go("message.flush", func() {
		fctx, cancel := context.WithTimeout(base, flushTimeout)
		defer cancel()
		if _, err := l.MaybeFlush(fctx); err != nil {
			logger.Warn("async flush failed", zap.Error(err))
		}
	})
}

// Wait 等待 FlushAsync 发起的 goroutine
func (l *Log) Wait() { l.async.Wait() }

// closeAsync 停止接收新的 FlushAsync 并等待已发起的完成
func (l *Log) closeAsync() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.async.Wait()
}

// Flush 把当前缓冲区整体迁移到 Mongo。
// 同一时刻只有一个 flush 在跑，重叠调用直接返回 0。
// 插入失败时缓冲区保持不变，等待下次重试（可能重复，读侧去重）。
func (l *Log) Flush(ctx context.Context) (int, error) {
	if !l.flushing.CompareAndSwap(false, true) {
		logger.Debug("flush already in progress, skip")
		return 0, nil
	}
	defer l.flushing.Store(false)

	raws, err := l.buf.Range(ctx)
	if err != nil {
		return 0, err
	}
	if len(raws) == 0 {
		return 0, nil
	}

	msgs := decodeAll(raws)
	if err := l.store.InsertMany(ctx, msgs); err != nil {
		return 0, errs.ErrStoreUnavailable.WrapMsg("flush insert", "count", len(msgs), "err", err)
	}
	// 只裁掉已迁移的前缀，flush 期间新追加的保留在尾部
	if err := l.buf.TrimPrefix(ctx, int64(len(raws))); err != nil {
		return len(msgs), err
	}
	logger.Info("flushed buffer to store", zap.Int("count", len(msgs)))
	return len(msgs), nil
}

// Run 定时 flush，ctx 取消后等待进行中的 flush，再做一次有超时的收尾 flush
func (l *Log) Run(ctx context.Context) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.closeAsync()
			fctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			if n, err := l.Flush(fctx); err != nil {
				logger.Warn("final flush failed, messages kept in buffer", zap.Error(err))
			} else if n > 0 {
				logger.Info("final flush done", zap.Int("count", n))
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := l.Flush(ctx); err != nil {
				logger.Warn("periodic flush failed", zap.Error(err))
			}
		}
	}
}

// Query 合并缓冲区与持久化存储，返回按时间正序的最近 limit 条。
// 只有一侧失败时返回已拿到的数据以及 ErrStoreUnavailable；两侧都失败返回 nil。
func (l *Log) Query(ctx context.Context, groupID string, limit int, before time.Time) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var buffered []model.Message
	raws, bufErr := l.buf.Range(ctx)
	if bufErr == nil {
		for _, m := range decodeAll(raws) {
			if m.GroupID != groupID {
				continue
			}
			if !before.IsZero() && !m.Timestamp.Before(before) {
				continue
			}
			buffered = append(buffered, m)
		}
	}

	durable, storeErr := l.store.Find(ctx, groupID, before, limit)

	if bufErr != nil && storeErr != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("query history", "groupId", groupID, "buffer", bufErr, "store", storeErr)
	}

	out := merge(durable, buffered, limit)
	switch {
	case bufErr != nil:
		return out, errs.ErrStoreUnavailable.WrapMsg("buffer read failed, durable only", "err", bufErr)
	case storeErr != nil:
		return out, errs.ErrStoreUnavailable.WrapMsg("store read failed, buffer only", "err", storeErr)
	}
	return out, nil
}

// merge 去重 -> 倒序 -> 截断 -> 反转为正序
func merge(durable, buffered []model.Message, limit int) []model.Message {
	seen := make(map[model.DedupKey]struct{}, len(durable)+len(buffered))
	all := make([]model.Message, 0, len(durable)+len(buffered))
	for _, src := range [][]model.Message{durable, buffered} {
		for _, m := range src {
			k := m.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			all = append(all, m)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// decodeAll 坏数据跳过并告警，不阻塞 flush
func decodeAll(raws [][]byte) []model.Message {
	out := make([]model.Message, 0, len(raws))
	for _, raw := range raws {
		var m model.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			logger.Warn("skip malformed buffered message", zap.ByteString("raw", raw), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out
}
