package message

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
)

// MemBuffer 内存缓冲区，行为与 RedisBuffer 一致
type MemBuffer struct {
	mu    sync.Mutex
	items [][]byte

	FailPush  atomic.Bool
	FailRange atomic.Bool
}

var _ Buffer = (*MemBuffer)(nil)

func NewMemBuffer() *MemBuffer { return &MemBuffer{} }

func (b *MemBuffer) Push(_ context.Context, raw []byte) error {
	if b.FailPush.Load() {
		return errs.ErrStoreUnavailable.WrapMsg("mem buffer push")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, append([]byte(nil), raw...))
	return nil
}

func (b *MemBuffer) Len(_ context.Context) (int64, error) {
	if b.FailRange.Load() {
		return 0, errs.ErrStoreUnavailable.WrapMsg("mem buffer len")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.items)), nil
}

func (b *MemBuffer) Range(_ context.Context) ([][]byte, error) {
	if b.FailRange.Load() {
		return nil, errs.ErrStoreUnavailable.WrapMsg("mem buffer range")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.items...), nil
}

func (b *MemBuffer) TrimPrefix(_ context.Context, n int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= int64(len(b.items)) {
		b.items = nil
		return nil
	}
	if n > 0 {
		b.items = append([][]byte(nil), b.items[n:]...)
	}
	return nil
}

// MemStore 内存持久化存储，可注入失败与阻塞
type MemStore struct {
	mu   sync.Mutex
	msgs []model.Message

	FailInsert  atomic.Bool
	FailFind    atomic.Bool
	InsertCalls atomic.Int64

	// InsertGate 非空时 InsertMany 先等待一个值，用于测试 flush 重叠
	InsertGate chan struct{}
	// InsertStarted 非空时 InsertMany 进入后发送信号
	InsertStarted chan struct{}
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Seed(msgs ...model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msgs...)
}

func (s *MemStore) All() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.msgs...)
}

func (s *MemStore) InsertMany(ctx context.Context, msgs []model.Message) error {
	s.InsertCalls.Add(1)
	if s.InsertStarted != nil {
		s.InsertStarted <- struct{}{}
	}
	if s.InsertGate != nil {
		select {
		case <-s.InsertGate:
		case <-ctx.Done():
			return errs.ErrStoreUnavailable.WrapMsg("mem store insert canceled")
		}
	}
	if s.FailInsert.Load() {
		return errs.ErrStoreUnavailable.WrapMsg("mem store insert")
	}
	s.Seed(msgs...)
	return nil
}

func (s *MemStore) Find(_ context.Context, groupID string, before time.Time, limit int) ([]model.Message, error) {
	if s.FailFind.Load() {
		return nil, errs.ErrStoreUnavailable.WrapMsg("mem store find")
	}
	s.mu.Lock()
	var out []model.Message
	for _, m := range s.msgs {
		if m.GroupID != groupID {
			continue
		}
		if !before.IsZero() && !m.Timestamp.Before(before) {
			continue
		}
		out = append(out, m)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
