package message

import (
	"context"
	"time"

	"SupportChat/module/chat/model"
)

// Buffer write-behind 缓冲区，所有群共用一个列表，元素为 JSON 编码的 Message
type Buffer interface {
	Push(ctx context.Context, raw []byte) error
	Len(ctx context.Context) (int64, error)
	// Range 返回全部元素，按追加顺序
	Range(ctx context.Context) ([][]byte, error)
	// TrimPrefix 删除最早追加的 n 个元素，之后追加的保留
	TrimPrefix(ctx context.Context, n int64) error
}

// Store 持久化存储
type Store interface {
	InsertMany(ctx context.Context, msgs []model.Message) error
	// Find 按时间倒序取 groupId 下最多 limit 条；before 为零值时不过滤
	Find(ctx context.Context, groupID string, before time.Time, limit int) ([]model.Message, error)
}
